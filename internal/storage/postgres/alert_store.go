package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// Upsert inserts an alert; a duplicate alert_id is a silent no-op.
// ON CONFLICT DO NOTHING gives the at-least-once delivery its idempotency.
func (s *AlertStore) Upsert(ctx context.Context, a *domain.SellAlert) error {
	if a == nil || a.AlertID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sell_alerts (
			alert_id, wallet_address, wallet_role, token_address, network,
			amount_sold, previous_balance, new_balance, change_percentage,
			counterparty_venue, tx_signature, alert_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (alert_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		a.AlertID,
		a.WalletAddress,
		string(a.WalletRole),
		a.TokenAddress,
		string(a.Network),
		a.AmountSold,
		a.PreviousBalance,
		a.NewBalance,
		a.ChangePercentage,
		a.CounterpartyVenue,
		a.TxSignature,
		a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert alert: %w", err)
	}
	return nil
}

// GetByID retrieves an alert by its ID. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByID(ctx context.Context, alertID string) (*domain.SellAlert, error) {
	query := `
		SELECT alert_id, wallet_address, wallet_role, token_address, network,
		       amount_sold, previous_balance, new_balance, change_percentage,
		       counterparty_venue, tx_signature, alert_timestamp
		FROM sell_alerts
		WHERE alert_id = $1
	`

	row := s.pool.QueryRow(ctx, query, alertID)
	a, err := scanAlert(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alert by id: %w", err)
	}
	return a, nil
}

// GetByToken retrieves all alerts for a token, newest first.
func (s *AlertStore) GetByToken(ctx context.Context, tokenAddress string, network domain.Network) ([]*domain.SellAlert, error) {
	query := `
		SELECT alert_id, wallet_address, wallet_role, token_address, network,
		       amount_sold, previous_balance, new_balance, change_percentage,
		       counterparty_venue, tx_signature, alert_timestamp
		FROM sell_alerts
		WHERE token_address = $1 AND network = $2
		ORDER BY alert_timestamp DESC, alert_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress, string(network))
	if err != nil {
		return nil, fmt.Errorf("get alerts by token: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetByWallet retrieves all alerts for a wallet, newest first.
func (s *AlertStore) GetByWallet(ctx context.Context, walletAddress string) ([]*domain.SellAlert, error) {
	query := `
		SELECT alert_id, wallet_address, wallet_role, token_address, network,
		       amount_sold, previous_balance, new_balance, change_percentage,
		       counterparty_venue, tx_signature, alert_timestamp
		FROM sell_alerts
		WHERE wallet_address = $1
		ORDER BY alert_timestamp DESC, alert_id ASC
	`

	rows, err := s.pool.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("get alerts by wallet: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// scanAlert scans a single alert row.
func scanAlert(row pgx.Row) (*domain.SellAlert, error) {
	var a domain.SellAlert
	var role, network string

	err := row.Scan(
		&a.AlertID,
		&a.WalletAddress,
		&role,
		&a.TokenAddress,
		&network,
		&a.AmountSold,
		&a.PreviousBalance,
		&a.NewBalance,
		&a.ChangePercentage,
		&a.CounterpartyVenue,
		&a.TxSignature,
		&a.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	a.WalletRole = domain.Role(role)
	a.Network = domain.Network(network)
	return &a, nil
}

// scanAlerts scans all alert rows.
func scanAlerts(rows pgx.Rows) ([]*domain.SellAlert, error) {
	var alerts []*domain.SellAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}
