package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
	"holder-sentinel/internal/storage/postgres"
)

func testRun(token string, runAt int64) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		TokenAddress: token,
		Network:      domain.NetworkMainnet,
		Deployer:     "DeployerAddr",
		TotalSupply:  1000000,
		HolderCount:  120,
		TeamWallets: []domain.ClassifiedWallet{
			{Address: "TeamW1", Balance: 600000, SupplyPercentage: 60, Role: domain.RoleDeployer, Reason: "Deployer wallet", RiskLevel: domain.RiskHigh},
			{Address: "TeamW2", Balance: 250000, SupplyPercentage: 25, Role: domain.RoleTeam, Reason: "Supply above team threshold", RiskLevel: domain.RiskMedium},
		},
		BundleWallets: []domain.ClassifiedWallet{
			{Address: "BundleW1", Balance: 200, SupplyPercentage: 0.02, Role: domain.RoleBundle, Reason: "Coordinated bundle cluster", RiskLevel: domain.RiskMedium},
		},
		MEVWallets: []domain.ClassifiedWallet{
			{Address: "MevW1", Balance: 50, SupplyPercentage: 0.005, Role: domain.RoleMEV, Reason: "High-frequency extraction", RiskLevel: domain.RiskHigh},
		},
		Counts: domain.RoleCounts{Team: 2, Bundle: 1, MEV: 1, Total: 4},
		RunAt:  runAt,
	}
}

func TestClassificationStore_InsertAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClassificationStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertRun(ctx, testRun("Mint1", 1000)))
	require.NoError(t, store.InsertRun(ctx, testRun("Mint1", 3000)))
	require.NoError(t, store.InsertRun(ctx, testRun("Mint1", 2000)))

	got, err := store.GetLatestByToken(ctx, "Mint1", domain.NetworkMainnet)
	require.NoError(t, err)

	assert.Equal(t, int64(3000), got.RunAt)
	assert.Equal(t, "DeployerAddr", got.Deployer)
	assert.Equal(t, 120, got.HolderCount)
	require.Len(t, got.TeamWallets, 2)
	require.Len(t, got.BundleWallets, 1)
	require.Len(t, got.MEVWallets, 1)
	assert.Equal(t, 2, got.Counts.Team)
	assert.Equal(t, 4, got.Counts.Total)

	// Team bucket keeps the deployer row with its reason
	assert.Equal(t, "Deployer wallet", got.TeamWallets[0].Reason)
	assert.Equal(t, domain.RoleDeployer, got.TeamWallets[0].Role)
}

func TestClassificationStore_GetLatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClassificationStore(pool)

	_, err := store.GetLatestByToken(context.Background(), "missing", domain.NetworkMainnet)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClassificationStore_EmptyBucketsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewClassificationStore(pool)
	ctx := context.Background()

	run := &domain.ClassificationResult{
		TokenAddress: "Mint2",
		Network:      domain.NetworkMainnet,
		TotalSupply:  100,
		RunAt:        1000,
	}
	require.NoError(t, store.InsertRun(ctx, run))

	got, err := store.GetLatestByToken(ctx, "Mint2", domain.NetworkMainnet)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
