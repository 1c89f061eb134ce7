package clickhouse

import (
	"context"
	"fmt"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// BalanceObservationStore implements storage.BalanceObservationStore using
// ClickHouse. The table is append-only; no uniqueness is enforced since a
// wallet is observed at most once per tick.
type BalanceObservationStore struct {
	conn *Conn
}

// NewBalanceObservationStore creates a new BalanceObservationStore.
func NewBalanceObservationStore(conn *Conn) *BalanceObservationStore {
	return &BalanceObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BalanceObservationStore = (*BalanceObservationStore)(nil)

// InsertBulk adds the observations of one tick.
func (s *BalanceObservationStore) InsertBulk(ctx context.Context, obs []*domain.BalanceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO balance_observations (
			wallet_address, token_address, network, balance, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			o.WalletAddress, o.TokenAddress, string(o.Network),
			o.Balance, uint64(o.ObservedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves observations within [start, end], observed_at ASC.
func (s *BalanceObservationStore) GetByWallet(ctx context.Context, walletAddress, tokenAddress string, start, end int64) ([]*domain.BalanceObservation, error) {
	query := `
		SELECT wallet_address, token_address, network, balance, observed_at
		FROM balance_observations
		WHERE wallet_address = ? AND token_address = ?
		  AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, walletAddress, tokenAddress, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("get observations by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.BalanceObservation
	for rows.Next() {
		var o domain.BalanceObservation
		var network string
		var observedAt uint64
		if err := rows.Scan(&o.WalletAddress, &o.TokenAddress, &network, &o.Balance, &observedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Network = domain.Network(network)
		o.ObservedAt = int64(observedAt)
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return result, nil
}
