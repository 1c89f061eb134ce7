package storage

import (
	"context"

	"holder-sentinel/internal/domain"
)

// AlertStore provides access to sell_alerts storage.
type AlertStore interface {
	// Upsert inserts an alert if its alert_id is new; a duplicate key is a
	// silent no-op so at-least-once delivery stays idempotent.
	Upsert(ctx context.Context, a *domain.SellAlert) error

	// GetByID retrieves an alert by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, alertID string) (*domain.SellAlert, error)

	// GetByToken retrieves all alerts for a token, newest first.
	GetByToken(ctx context.Context, tokenAddress string, network domain.Network) ([]*domain.SellAlert, error)

	// GetByWallet retrieves all alerts for a wallet, newest first.
	GetByWallet(ctx context.Context, walletAddress string) ([]*domain.SellAlert, error)
}

// ClassificationStore provides access to classification_runs storage.
type ClassificationStore interface {
	// InsertRun stores a completed classification run with all its wallets.
	InsertRun(ctx context.Context, r *domain.ClassificationResult) error

	// GetLatestByToken retrieves the most recent run for a token.
	// Returns ErrNotFound if no run exists.
	GetLatestByToken(ctx context.Context, tokenAddress string, network domain.Network) (*domain.ClassificationResult, error)
}

// BalanceObservationStore provides access to the balance_observations
// timeseries. Append-only.
type BalanceObservationStore interface {
	// InsertBulk adds the observations of one tick.
	InsertBulk(ctx context.Context, obs []*domain.BalanceObservation) error

	// GetByWallet retrieves observations for a wallet within [start, end]
	// (inclusive, milliseconds), ordered by observed_at ASC.
	GetByWallet(ctx context.Context, walletAddress, tokenAddress string, start, end int64) ([]*domain.BalanceObservation, error)
}
