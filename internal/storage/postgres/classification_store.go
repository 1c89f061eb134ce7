package postgres

import (
	"context"
	"fmt"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// ClassificationStore implements storage.ClassificationStore using
// PostgreSQL. A run is one row in classification_runs plus one row per
// classified wallet in classified_wallets.
type ClassificationStore struct {
	pool *Pool
}

// NewClassificationStore creates a new ClassificationStore.
func NewClassificationStore(pool *Pool) *ClassificationStore {
	return &ClassificationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClassificationStore = (*ClassificationStore)(nil)

// InsertRun stores a completed classification run with all its wallets.
// The run and its wallets are written in one transaction.
func (s *ClassificationStore) InsertRun(ctx context.Context, r *domain.ClassificationResult) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO classification_runs (
			token_address, network, deployer, total_supply, holder_count,
			team_count, bundle_count, mev_count, run_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING run_id
	`,
		r.TokenAddress,
		string(r.Network),
		r.Deployer,
		r.TotalSupply,
		r.HolderCount,
		r.Counts.Team,
		r.Counts.Bundle,
		r.Counts.MEV,
		r.RunAt,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	insertWallet := func(w domain.ClassifiedWallet) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO classified_wallets (
				run_id, wallet_address, balance, supply_percentage,
				role, reason, risk_level
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			runID, w.Address, w.Balance, w.SupplyPercentage,
			string(w.Role), w.Reason, string(w.RiskLevel),
		)
		return err
	}

	for _, bucket := range [][]domain.ClassifiedWallet{r.TeamWallets, r.BundleWallets, r.MEVWallets} {
		for _, w := range bucket {
			if err := insertWallet(w); err != nil {
				return fmt.Errorf("insert classified wallet: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetLatestByToken retrieves the most recent run for a token.
func (s *ClassificationStore) GetLatestByToken(ctx context.Context, tokenAddress string, network domain.Network) (*domain.ClassificationResult, error) {
	var runID int64
	r := &domain.ClassificationResult{}
	var net string

	err := s.pool.QueryRow(ctx, `
		SELECT run_id, token_address, network, deployer, total_supply,
		       holder_count, team_count, bundle_count, mev_count, run_at
		FROM classification_runs
		WHERE token_address = $1 AND network = $2
		ORDER BY run_at DESC, run_id DESC
		LIMIT 1
	`, tokenAddress, string(network)).Scan(
		&runID,
		&r.TokenAddress,
		&net,
		&r.Deployer,
		&r.TotalSupply,
		&r.HolderCount,
		&r.Counts.Team,
		&r.Counts.Bundle,
		&r.Counts.MEV,
		&r.RunAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	r.Network = domain.Network(net)
	r.Counts.Total = r.Counts.Team + r.Counts.Bundle + r.Counts.MEV

	rows, err := s.pool.Query(ctx, `
		SELECT wallet_address, balance, supply_percentage, role, reason, risk_level
		FROM classified_wallets
		WHERE run_id = $1
		ORDER BY balance DESC, wallet_address ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get classified wallets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.ClassifiedWallet
		var role, riskLevel string
		if err := rows.Scan(&w.Address, &w.Balance, &w.SupplyPercentage, &role, &w.Reason, &riskLevel); err != nil {
			return nil, fmt.Errorf("scan classified wallet: %w", err)
		}
		w.Role = domain.Role(role)
		w.RiskLevel = domain.RiskLevel(riskLevel)

		switch w.Role {
		case domain.RoleTeam, domain.RoleDeployer:
			r.TeamWallets = append(r.TeamWallets, w)
		case domain.RoleBundle:
			r.BundleWallets = append(r.BundleWallets, w)
		case domain.RoleMEV:
			r.MEVWallets = append(r.MEVWallets, w)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classified wallets: %w", err)
	}

	return r, nil
}
