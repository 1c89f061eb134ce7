package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/idhash"
	"holder-sentinel/internal/ledger"
	"holder-sentinel/internal/observability"
)

// DetectorConfig holds sell-detection parameters. The decrease threshold and
// lookback window are tuned heuristics; keep them configurable.
type DetectorConfig struct {
	// MinDecreasePct is the balance drop, as a percentage of the last
	// known balance, below which a decrease is ignored.
	MinDecreasePct float64
	// TransferLookback is how far back an outgoing transfer may be and
	// still verify a balance decrease.
	TransferLookback time.Duration
	// WorkerLimit bounds per-tick concurrent wallet checks. Unbounded
	// fan-out would trip upstream rate limits.
	WorkerLimit int
	// CheckTimeout is the per-wallet gateway call deadline.
	CheckTimeout time.Duration
	// HistoryLimit bounds the transfer history fetched when resolving a
	// sell candidate.
	HistoryLimit int
	// TickInterval is the session poll interval, also the alert-id time
	// bucket when no transaction signature resolves.
	TickInterval time.Duration
}

// DefaultDetectorConfig returns the default detection parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinDecreasePct:   1.0,
		TransferLookback: 5 * time.Minute,
		WorkerLimit:      3,
		CheckTimeout:     10 * time.Second,
		HistoryLimit:     20,
		TickInterval:     30 * time.Second,
	}
}

// walletCheck is one tracked wallet's state snapshot handed to the detector.
// LastBalance nil means the wallet has not been observed yet.
type walletCheck struct {
	Address     string
	Role        domain.Role
	LastBalance *float64
}

// checkResult is one wallet's tick outcome. Err set means the check failed
// and the wallet's tracked state must stay unchanged. Alert is non-nil only
// for a verified sell.
type checkResult struct {
	Address string
	Role    domain.Role
	Balance float64
	Err     error
	Alert   *domain.SellAlert
}

// Detector diffs tracked wallet balances against their last observation and
// verifies decreases against recent outgoing transfers. It holds no session
// state; the session loop owns the tracked map and applies results.
type Detector struct {
	config  DetectorConfig
	gateway ledger.Gateway
	venues  *VenueRegistry
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDetector creates a new Detector.
func NewDetector(config DetectorConfig, gateway ledger.Gateway, venues *VenueRegistry, logger zerolog.Logger) *Detector {
	defaults := DefaultDetectorConfig()
	if config.MinDecreasePct <= 0 {
		config.MinDecreasePct = defaults.MinDecreasePct
	}
	if config.TransferLookback <= 0 {
		config.TransferLookback = defaults.TransferLookback
	}
	if config.WorkerLimit <= 0 {
		config.WorkerLimit = defaults.WorkerLimit
	}
	if config.CheckTimeout <= 0 {
		config.CheckTimeout = defaults.CheckTimeout
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = defaults.HistoryLimit
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if venues == nil {
		venues = NewVenueRegistry(nil)
	}
	return &Detector{
		config:  config,
		gateway: gateway,
		venues:  venues,
		logger:  logger.With().Str("component", "detector").Logger(),
		now:     time.Now,
	}
}

// runTick checks every wallet with bounded fan-out and returns one result
// per wallet. Order matches the input; no ordering is guaranteed between the
// underlying gateway calls.
func (d *Detector) runTick(ctx context.Context, tokenAddress string, network domain.Network, checks []walletCheck) []checkResult {
	results := make([]checkResult, len(checks))
	sem := make(chan struct{}, d.config.WorkerLimit)

	var wg sync.WaitGroup
	for i, wc := range checks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, wc walletCheck) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = d.checkWallet(ctx, tokenAddress, network, wc)
		}(i, wc)
	}
	wg.Wait()

	return results
}

// checkWallet fetches one wallet's balance and decides whether a verified
// sell occurred. A gateway failure is returned in the result; it must not
// abort the tick for other wallets.
func (d *Detector) checkWallet(ctx context.Context, tokenAddress string, network domain.Network, wc walletCheck) checkResult {
	callCtx, cancel := context.WithTimeout(ctx, d.config.CheckTimeout)
	defer cancel()

	start := d.now()
	balance, err := d.gateway.GetBalance(callCtx, wc.Address, tokenAddress, network)
	observability.RecordGatewayCall("get_balance", time.Since(start).Seconds(), err)
	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("wallet", wc.Address).
			Str("token", tokenAddress).
			Msg("balance check failed, keeping last known state")
		return checkResult{Address: wc.Address, Role: wc.Role, Err: err}
	}

	result := checkResult{Address: wc.Address, Role: wc.Role, Balance: balance}

	// First observation seeds the baseline; no alert on first sight.
	if wc.LastBalance == nil {
		return result
	}

	last := *wc.LastBalance
	delta := last - balance
	if delta <= 0 || last <= 0 {
		return result
	}
	changePct := delta / last * 100
	if changePct < d.config.MinDecreasePct {
		return result
	}

	transfer, ok := d.resolveSellTransfer(callCtx, wc.Address, tokenAddress, network)
	if !ok {
		// Unverifiable decrease: the balance still updates, only the
		// alert is withheld.
		observability.RecordAlertSuppressed("unresolved_transfer")
		d.logger.Debug().
			Str("wallet", wc.Address).
			Str("token", tokenAddress).
			Float64("change_pct", changePct).
			Msg("balance decrease without a resolvable transfer, no alert")
		return result
	}

	now := d.now().UnixMilli()
	result.Alert = &domain.SellAlert{
		AlertID: idhash.ComputeAlertID(
			wc.Address, tokenAddress, network,
			transfer.TxSignature, now, d.config.TickInterval.Milliseconds(),
		),
		WalletAddress:     wc.Address,
		WalletRole:        wc.Role,
		TokenAddress:      tokenAddress,
		Network:           network,
		AmountSold:        delta,
		PreviousBalance:   last,
		NewBalance:        balance,
		ChangePercentage:  changePct,
		CounterpartyVenue: d.venues.Lookup(transfer.To),
		TxSignature:       transfer.TxSignature,
		Timestamp:         now,
	}
	return result
}

// resolveSellTransfer finds the wallet's most recent outgoing transfer
// within the lookback window. History arrives newest first, so the first
// match wins.
func (d *Detector) resolveSellTransfer(ctx context.Context, walletAddress, tokenAddress string, network domain.Network) (domain.Transfer, bool) {
	start := d.now()
	transfers, err := d.gateway.GetTransferHistory(ctx, walletAddress, tokenAddress, network, d.config.HistoryLimit)
	observability.RecordGatewayCall("get_transfer_history", time.Since(start).Seconds(), err)
	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("wallet", walletAddress).
			Msg("transfer resolution failed")
		return domain.Transfer{}, false
	}

	cutoff := d.now().Add(-d.config.TransferLookback).UnixMilli()
	for _, t := range transfers {
		if t.From != walletAddress {
			continue
		}
		if t.Timestamp < cutoff {
			// Newest first; everything after this is older still.
			break
		}
		return t, true
	}
	return domain.Transfer{}, false
}
