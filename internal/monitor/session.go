package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/observability"
	"holder-sentinel/internal/storage"
)

// trackedWallet is one wallet's live state inside a session. LastBalance is
// nil until the first successful check.
type trackedWallet struct {
	Role          domain.Role
	LastBalance   *float64
	LastCheckedAt int64
}

// session is one active watch over a token's classified wallets. The tracked
// map is owned exclusively by the run loop goroutine; the manager only seeds
// it before the loop starts and cancels the loop to stop it.
type session struct {
	tokenAddress string
	network      domain.Network
	tracked      map[string]*trackedWallet
	walletCount  int // fixed at creation; safe to read outside the loop

	detector     *Detector
	dispatcher   Dispatcher
	observations storage.BalanceObservationStore // nil disables persistence
	interval     time.Duration

	// recheck receives wallet addresses pushed by the ws feed for an
	// early check between ticks. Best effort; a full tick covers every
	// wallet anyway.
	recheck chan string

	cancel    context.CancelFunc
	done      chan struct{}
	startedAt int64
	logger    zerolog.Logger
}

func newSession(tokenAddress string, network domain.Network, wallets []domain.ClassifiedWallet, detector *Detector, dispatcher Dispatcher, observations storage.BalanceObservationStore, interval time.Duration, logger zerolog.Logger) *session {
	tracked := make(map[string]*trackedWallet, len(wallets))
	for _, w := range wallets {
		if w.Address == "" {
			continue
		}
		tracked[w.Address] = &trackedWallet{Role: w.Role}
	}
	return &session{
		tokenAddress: tokenAddress,
		network:      network,
		tracked:      tracked,
		walletCount:  len(tracked),
		detector:     detector,
		dispatcher:   dispatcher,
		observations: observations,
		interval:     interval,
		recheck:      make(chan string, 16),
		done:         make(chan struct{}),
		startedAt:    time.Now().UnixMilli(),
		logger: logger.With().
			Str("component", "session").
			Str("token", tokenAddress).
			Str("network", network.String()).
			Logger(),
	}
}

// run is the session's tick loop. It exits when ctx is cancelled; in-flight
// results of an interrupted tick are discarded, never applied.
func (s *session) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Int("wallets", len(s.tracked)).
		Dur("interval", s.interval).
		Msg("monitoring session started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("monitoring session stopped")
			return
		case <-ticker.C:
			s.tick(ctx, s.snapshot(), true)
		case wallet := <-s.recheck:
			if wc, ok := s.snapshotOne(wallet); ok {
				s.tick(ctx, []walletCheck{wc}, false)
			}
		}
	}
}

// snapshot copies the tracked map into detector inputs.
func (s *session) snapshot() []walletCheck {
	checks := make([]walletCheck, 0, len(s.tracked))
	for address, w := range s.tracked {
		checks = append(checks, walletCheck{
			Address:     address,
			Role:        w.Role,
			LastBalance: w.LastBalance,
		})
	}
	return checks
}

func (s *session) snapshotOne(address string) (walletCheck, bool) {
	w, ok := s.tracked[address]
	if !ok {
		return walletCheck{}, false
	}
	return walletCheck{Address: address, Role: w.Role, LastBalance: w.LastBalance}, true
}

// tick runs the detector over the given wallets and applies the results.
// Failed checks leave their wallet untouched; a cancelled context discards
// the whole batch.
func (s *session) tick(ctx context.Context, checks []walletCheck, full bool) {
	if len(checks) == 0 {
		return
	}

	results := s.detector.runTick(ctx, s.tokenAddress, s.network, checks)
	if ctx.Err() != nil {
		return
	}

	now := time.Now().UnixMilli()
	var observed []*domain.BalanceObservation
	checkErrors := 0

	for _, r := range results {
		if r.Err != nil {
			checkErrors++
			continue
		}
		w, ok := s.tracked[r.Address]
		if !ok {
			continue
		}
		balance := r.Balance
		w.LastBalance = &balance
		w.LastCheckedAt = now

		observed = append(observed, &domain.BalanceObservation{
			WalletAddress: r.Address,
			TokenAddress:  s.tokenAddress,
			Network:       s.network,
			Balance:       balance,
			ObservedAt:    now,
		})

		if r.Alert != nil {
			s.logger.Info().
				Str("wallet", r.Address).
				Str("role", r.Role.String()).
				Float64("amount_sold", r.Alert.AmountSold).
				Float64("change_pct", r.Alert.ChangePercentage).
				Str("venue", r.Alert.CounterpartyVenue).
				Msg("sell detected")
			s.dispatcher.Dispatch(r.Alert)
			observability.RecordAlertEmitted(r.Role.String())
		}
	}

	if full {
		observability.RecordTick(len(results), checkErrors)
	}

	if s.observations != nil && len(observed) > 0 {
		if err := s.observations.InsertBulk(ctx, observed); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist balance observations")
		}
	}
}

// notify queues a wallet for an early re-check. Non-blocking; dropped when
// the queue is full.
func (s *session) notify(wallet string) {
	select {
	case s.recheck <- wallet:
	default:
	}
}
