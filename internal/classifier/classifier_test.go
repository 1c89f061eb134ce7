package classifier

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
)

const (
	testToken = "TokenMint1"
	testNet   = domain.NetworkMainnet
)

// stubSummarizer returns scripted summaries; wallets without an entry get a
// zero-valued summary, matching the degraded-data contract.
type stubSummarizer struct {
	summaries map[string]domain.ActivitySummary
}

func (s *stubSummarizer) Summarize(_ context.Context, walletAddress, _ string, _ domain.Network, _ int) domain.ActivitySummary {
	if summary, ok := s.summaries[walletAddress]; ok {
		return summary
	}
	return domain.ActivitySummary{Address: walletAddress}
}

func newClassifier(summaries map[string]domain.ActivitySummary) *Classifier {
	cfg := DefaultConfig()
	cfg.BatchPause = 0 // no pacing in tests
	return New(cfg, &stubSummarizer{summaries: summaries}, zerolog.Nop())
}

func allWallets(r *domain.ClassificationResult) []domain.ClassifiedWallet {
	var all []domain.ClassifiedWallet
	all = append(all, r.TeamWallets...)
	all = append(all, r.BundleWallets...)
	all = append(all, r.MEVWallets...)
	return all
}

func findWallet(ws []domain.ClassifiedWallet, address string) *domain.ClassifiedWallet {
	for i := range ws {
		if ws[i].Address == address {
			return &ws[i]
		}
	}
	return nil
}

func TestClassify_SmallPopulationTierOne(t *testing.T) {
	// Small population, tier 1: team > 0.1%, bundle > 0.01%.
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 60},
		{Address: "B", Balance: 25},
		{Address: "C", Balance: 0.02},
		{Address: "D", Balance: 0.02},
		{Address: "E", Balance: 0.02},
	}

	c := newClassifier(nil)
	result := c.Classify(context.Background(), holders, testToken, "A", 100, testNet)

	a := findWallet(result.TeamWallets, "A")
	if a == nil {
		t.Fatal("Expected A in team wallets")
	}
	if a.Reason != "Deployer wallet" {
		t.Errorf("A reason = %q, want \"Deployer wallet\"", a.Reason)
	}

	b := findWallet(result.TeamWallets, "B")
	if b == nil {
		t.Fatal("Expected B in team wallets (25% > 0.1%)")
	}

	for _, addr := range []string{"C", "D", "E"} {
		w := findWallet(result.BundleWallets, addr)
		if w == nil {
			t.Fatalf("Expected %s in bundle wallets (0.02%% > 0.01%%, coordinated cluster)", addr)
		}
		if w.Reason != "Coordinated bundle cluster" {
			t.Errorf("%s reason = %q, want coordinated cluster", addr, w.Reason)
		}
	}

	if result.Counts.Team != 2 || result.Counts.Bundle != 3 {
		t.Errorf("Counts = %+v, want Team=2 Bundle=3", result.Counts)
	}
}

func TestClassify_BucketsDisjoint(t *testing.T) {
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 60},
		{Address: "B", Balance: 25},
		{Address: "C", Balance: 5},
		{Address: "D", Balance: 0.5},
		{Address: "E", Balance: 0.02},
		{Address: "F", Balance: 0.02},
		{Address: "G", Balance: 0.02},
		{Address: "M", Balance: 0.1},
	}
	summaries := map[string]domain.ActivitySummary{
		"M": {Address: "M", TotalBought: 1000, TotalSold: 950, SellTxCount: 30, RiskScore: 85},
	}

	result := newClassifier(summaries).Classify(context.Background(), holders, testToken, "A", 100, testNet)

	seen := make(map[string]int)
	for _, w := range allWallets(result) {
		seen[w.Address]++
	}
	for addr, n := range seen {
		if n > 1 {
			t.Errorf("Address %s appears in %d buckets", addr, n)
		}
	}
}

func TestClassify_SupplyPercentageInvariant(t *testing.T) {
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 123456.78},
		{Address: "B", Balance: 42},
		{Address: "C", Balance: 0.5},
	}
	totalSupply := 1000000.0

	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "", totalSupply, testNet)

	for _, w := range allWallets(result) {
		want := w.Balance / totalSupply * 100
		if math.Abs(w.SupplyPercentage-want) > 1e-9 {
			t.Errorf("Wallet %s: SupplyPercentage = %f, recomputed %f", w.Address, w.SupplyPercentage, want)
		}
	}
}

func TestClassify_NonPositiveSupply(t *testing.T) {
	holders := []domain.HolderRecord{{Address: "A", Balance: 60}}

	for _, supply := range []float64{0, -1} {
		result := newClassifier(nil).Classify(context.Background(), holders, testToken, "A", supply, testNet)
		if !result.Empty() {
			t.Errorf("Supply %f: expected empty result, got %+v", supply, result.Counts)
		}
	}
}

func TestClassify_EmptyHolderList(t *testing.T) {
	result := newClassifier(nil).Classify(context.Background(), nil, testToken, "A", 100, testNet)
	if !result.Empty() {
		t.Errorf("Expected empty result with no fallback, got %+v", result.Counts)
	}
}

func TestClassify_SkipsNonPositiveBalances(t *testing.T) {
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 0},
		{Address: "B", Balance: -5},
	}
	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "", 100, testNet)
	if !result.Empty() {
		t.Errorf("Non-positive balances must not classify or trigger fallback, got %+v", result.Counts)
	}
}

func TestClassify_MEVOverridesStakeHeuristics(t *testing.T) {
	// M would be a bundle candidate by stake, but its activity marks it MEV.
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 60},
		{Address: "M", Balance: 0.05},
		{Address: "C", Balance: 0.02},
		{Address: "D", Balance: 0.02},
		{Address: "E", Balance: 0.02},
	}
	summaries := map[string]domain.ActivitySummary{
		"M": {Address: "M", TotalBought: 500, TotalSold: 480, SellTxCount: 25, RiskScore: 85},
	}

	result := newClassifier(summaries).Classify(context.Background(), holders, testToken, "", 100, testNet)

	if findWallet(result.MEVWallets, "M") == nil {
		t.Fatal("Expected M classified MEV")
	}
	if findWallet(result.BundleWallets, "M") != nil {
		t.Error("M must not also be in bundle wallets")
	}
}

func TestClassify_MEVRequiresSmallStake(t *testing.T) {
	// Same activity pattern but a 5% stake: not MEV.
	holders := []domain.HolderRecord{
		{Address: "W", Balance: 5},
	}
	summaries := map[string]domain.ActivitySummary{
		"W": {Address: "W", TotalBought: 500, TotalSold: 480, SellTxCount: 25, RiskScore: 85},
	}

	result := newClassifier(summaries).Classify(context.Background(), holders, testToken, "", 100, testNet)

	if len(result.MEVWallets) != 0 {
		t.Error("Large-stake wallet must not classify MEV")
	}
}

func TestClassify_LargeAccumulationWithoutSells(t *testing.T) {
	// Below the team threshold by stake, but a large never-selling
	// accumulator.
	holders := []domain.HolderRecord{
		{Address: "Big", Balance: 900000},
		{Address: "Acc", Balance: 50},
	}
	summaries := map[string]domain.ActivitySummary{
		"Acc": {Address: "Acc", TotalBought: 50000, SellTxCount: 0},
	}

	cfg := DefaultConfig()
	cfg.BatchPause = 0
	c := New(cfg, &stubSummarizer{summaries: summaries}, zerolog.Nop())

	// Supply large enough that Acc's stake is under every threshold.
	result := c.Classify(context.Background(), holders, testToken, "", 100000000, testNet)

	acc := findWallet(result.TeamWallets, "Acc")
	if acc == nil {
		t.Fatal("Expected Acc in team wallets via accumulation signal")
	}
	if acc.Reason != "Large accumulation without sells" {
		t.Errorf("Acc reason = %q", acc.Reason)
	}
}

func TestClassify_DeployerNotInWorkingSetTopN(t *testing.T) {
	// Deployer match only applies to working-set holders; a deployer
	// absent from the snapshot simply is not classified.
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 60},
	}
	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "NotPresent", 100, testNet)
	if findWallet(result.TeamWallets, "NotPresent") != nil {
		t.Error("Deployer not in snapshot must not appear in result")
	}
}
