package stub

import (
	"context"
	"sync"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger"
)

// Gateway implements ledger.Gateway for testing. All entries are keyed by
// address; entries marked in Fail return ledger.ErrUnavailable.
type Gateway struct {
	mu sync.Mutex

	Holders   map[string][]domain.HolderRecord // keyed by token address
	Transfers map[string][]domain.Transfer     // keyed by wallet address
	Deployers map[string]string                // keyed by token address
	Balances  map[string]float64               // keyed by wallet address
	Supplies  map[string]float64               // keyed by token address

	// Fail marks addresses whose lookups should fail.
	Fail map[string]bool

	// BalanceCalls counts GetBalance invocations per wallet.
	BalanceCalls map[string]int
}

// Compile-time interface check.
var _ ledger.Gateway = (*Gateway)(nil)

// NewGateway creates a new stub gateway.
func NewGateway() *Gateway {
	return &Gateway{
		Holders:      make(map[string][]domain.HolderRecord),
		Transfers:    make(map[string][]domain.Transfer),
		Deployers:    make(map[string]string),
		Balances:     make(map[string]float64),
		Supplies:     make(map[string]float64),
		Fail:         make(map[string]bool),
		BalanceCalls: make(map[string]int),
	}
}

// GetHolders retrieves the scripted holder snapshot for a token.
func (g *Gateway) GetHolders(_ context.Context, tokenAddress string, _ domain.Network, limit int) ([]domain.HolderRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Fail[tokenAddress] {
		return nil, ledger.ErrUnavailable
	}
	holders := g.Holders[tokenAddress]
	if limit > 0 && limit < len(holders) {
		holders = holders[:limit]
	}
	out := make([]domain.HolderRecord, len(holders))
	copy(out, holders)
	return out, nil
}

// GetTransferHistory retrieves the scripted transfers for a wallet.
func (g *Gateway) GetTransferHistory(_ context.Context, walletAddress, _ string, _ domain.Network, limit int) ([]domain.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Fail[walletAddress] {
		return nil, ledger.ErrUnavailable
	}
	transfers := g.Transfers[walletAddress]
	if limit > 0 && limit < len(transfers) {
		transfers = transfers[:limit]
	}
	out := make([]domain.Transfer, len(transfers))
	copy(out, transfers)
	return out, nil
}

// GetDeployer resolves the scripted deployer for a token.
func (g *Gateway) GetDeployer(_ context.Context, tokenAddress string, _ domain.Network) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Fail[tokenAddress] {
		return "", ledger.ErrUnavailable
	}
	return g.Deployers[tokenAddress], nil
}

// GetBalance retrieves the scripted balance for a wallet.
func (g *Gateway) GetBalance(_ context.Context, walletAddress, _ string, _ domain.Network) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.BalanceCalls[walletAddress]++
	if g.Fail[walletAddress] {
		return 0, ledger.ErrUnavailable
	}
	return g.Balances[walletAddress], nil
}

// GetTotalSupply retrieves the scripted supply for a token.
func (g *Gateway) GetTotalSupply(_ context.Context, tokenAddress string, _ domain.Network) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Fail[tokenAddress] {
		return 0, ledger.ErrUnavailable
	}
	return g.Supplies[tokenAddress], nil
}

// SetBalance updates a wallet's scripted balance.
func (g *Gateway) SetBalance(wallet string, balance float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Balances[wallet] = balance
}

// SetTransfers replaces a wallet's scripted transfers.
func (g *Gateway) SetTransfers(wallet string, transfers []domain.Transfer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Transfers[wallet] = transfers
}

// BalanceCallCount returns how many GetBalance calls a wallet received.
func (g *Gateway) BalanceCallCount(wallet string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.BalanceCalls[wallet]
}

// SetFail marks or clears an address as failing.
func (g *Gateway) SetFail(address string, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Fail[address] = fail
}
