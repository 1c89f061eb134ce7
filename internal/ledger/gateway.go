package ledger

import (
	"context"
	"errors"

	"holder-sentinel/internal/domain"
)

// ErrUnavailable indicates the upstream data source could not serve the
// query. Callers may retry or degrade depending on the operation.
var ErrUnavailable = errors.New("ledger unavailable")

// Gateway defines the ledger-query interface the core depends on.
// All calls are fallible and honor the caller-supplied context deadline.
type Gateway interface {
	// GetHolders retrieves the largest holders of a token, balance-descending.
	GetHolders(ctx context.Context, tokenAddress string, network domain.Network, limit int) ([]domain.HolderRecord, error)

	// GetTransferHistory retrieves recent transfers touching a wallet for one
	// token, newest first.
	GetTransferHistory(ctx context.Context, walletAddress, tokenAddress string, network domain.Network, limit int) ([]domain.Transfer, error)

	// GetDeployer resolves the address that created the token's contract.
	// Returns an empty string when the deployer cannot be resolved.
	GetDeployer(ctx context.Context, tokenAddress string, network domain.Network) (string, error)

	// GetBalance retrieves a wallet's current balance of the token.
	GetBalance(ctx context.Context, walletAddress, tokenAddress string, network domain.Network) (float64, error)

	// GetTotalSupply retrieves the token's total supply.
	GetTotalSupply(ctx context.Context, tokenAddress string, network domain.Network) (float64, error)
}
