package classifier

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
)

func TestFallback_TeamPromotionWhenNothingMatches(t *testing.T) {
	// Both holders sit below the bundle threshold and too far apart to
	// cluster, so the primary pass classifies nothing.
	holders := []domain.HolderRecord{
		{Address: "X", Balance: 0.009},
		{Address: "Y", Balance: 0.002},
	}

	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "", 100, testNet)

	if len(result.TeamWallets) != 2 {
		t.Fatalf("TeamWallets = %d, want 2 forced promotions", len(result.TeamWallets))
	}
	for _, w := range result.TeamWallets {
		if w.Reason != "Team Wallet (Forced)" {
			t.Errorf("Wallet %s reason = %q, want forced tag", w.Address, w.Reason)
		}
		if w.Role != domain.RoleTeam {
			t.Errorf("Wallet %s role = %s, want TEAM", w.Address, w.Role)
		}
	}
	// Largest holder promoted first.
	if result.TeamWallets[0].Address != "X" {
		t.Errorf("First promotion = %s, want X", result.TeamWallets[0].Address)
	}
}

func TestFallback_DeployerKeepsIdentityWhenPromoted(t *testing.T) {
	holders := []domain.HolderRecord{
		{Address: "X", Balance: 0.009},
		{Address: "Y", Balance: 0.002},
	}

	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "Y", 100, testNet)

	y := findWallet(result.TeamWallets, "Y")
	if y == nil {
		t.Fatal("Expected deployer Y in team wallets")
	}
	if y.Role != domain.RoleDeployer || y.Reason != "Deployer wallet" {
		t.Errorf("Y = role %s reason %q, want DEPLOYER / \"Deployer wallet\"", y.Role, y.Reason)
	}
}

func TestFallback_BundlePromotionAfterPrimaryTeam(t *testing.T) {
	holders := []domain.HolderRecord{
		{Address: "A", Balance: 60},    // team by stake
		{Address: "X", Balance: 0.009}, // below bundle threshold, no cluster
		{Address: "Y", Balance: 0.002},
	}

	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "", 100, testNet)

	if findWallet(result.TeamWallets, "A") == nil {
		t.Fatal("Expected A in team wallets")
	}
	if len(result.BundleWallets) != 2 {
		t.Fatalf("BundleWallets = %d, want 2 forced promotions", len(result.BundleWallets))
	}
	for _, w := range result.BundleWallets {
		if w.Reason != "Bundle Wallet (Forced)" {
			t.Errorf("Wallet %s reason = %q", w.Address, w.Reason)
		}
	}
}

func TestFallback_TeamCapRespected(t *testing.T) {
	// High thresholds leave six holders unclassified, far enough apart
	// that the cluster check never fires.
	cfg := DefaultConfig()
	cfg.BatchPause = 0
	cfg.Tiers = []Tier{{Thresholds: Thresholds{Team: 10, Bundle: 5}}}
	c := New(cfg, &stubSummarizer{}, zerolog.Nop())

	holders := []domain.HolderRecord{
		{Address: "H1", Balance: 4},
		{Address: "H2", Balance: 3},
		{Address: "H3", Balance: 2},
		{Address: "H4", Balance: 1},
		{Address: "H5", Balance: 0.5},
		{Address: "H6", Balance: 0.2},
	}

	result := c.Classify(context.Background(), holders, testToken, "", 100, testNet)

	if len(result.TeamWallets) != cfg.TeamFallbackMax {
		t.Errorf("TeamWallets = %d, want cap %d", len(result.TeamWallets), cfg.TeamFallbackMax)
	}
	// The rest spill into the bundle fallback.
	if len(result.BundleWallets) != 3 {
		t.Errorf("BundleWallets = %d, want 3", len(result.BundleWallets))
	}
	// Team fallback promotes by rank.
	for i, want := range []string{"H1", "H2", "H3"} {
		if result.TeamWallets[i].Address != want {
			t.Errorf("TeamWallets[%d] = %s, want %s", i, result.TeamWallets[i].Address, want)
		}
	}
}

func TestFallback_NeverBothBucketsEmpty(t *testing.T) {
	cases := []struct {
		name    string
		holders []domain.HolderRecord
	}{
		{"single dust holder", []domain.HolderRecord{{Address: "X", Balance: 0.0001}}},
		{"two spread holders", []domain.HolderRecord{{Address: "X", Balance: 0.009}, {Address: "Y", Balance: 0.001}}},
		{"one whale", []domain.HolderRecord{{Address: "W", Balance: 99}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := newClassifier(nil).Classify(context.Background(), tc.holders, testToken, "", 100, testNet)
			if len(result.TeamWallets) == 0 && len(result.BundleWallets) == 0 {
				t.Error("Both team and bundle buckets empty with a positive holder present")
			}
		})
	}
}

func TestFallback_AllMEVReTagsLargestIntoBundle(t *testing.T) {
	// Every working-set holder matches the MEV heuristics, so nothing is left
	// for the ordinary promotions. The largest MEV wallets are re-tagged so
	// team and bundle are not both empty.
	holders := []domain.HolderRecord{
		{Address: "M1", Balance: 0.05},
		{Address: "M2", Balance: 0.03},
	}
	summaries := map[string]domain.ActivitySummary{
		"M1": {Address: "M1", TotalBought: 1000, TotalSold: 950, SellTxCount: 30, RiskScore: 85},
		"M2": {Address: "M2", TotalBought: 1000, TotalSold: 950, SellTxCount: 30, RiskScore: 85},
	}

	result := newClassifier(summaries).Classify(context.Background(), holders, testToken, "", 100, testNet)

	if len(result.TeamWallets) == 0 && len(result.BundleWallets) == 0 {
		t.Fatal("Both team and bundle buckets empty with positive holders present")
	}
	if len(result.BundleWallets) != 2 {
		t.Fatalf("Expected 2 re-tagged bundle wallets, got %d", len(result.BundleWallets))
	}
	if result.BundleWallets[0].Address != "M1" {
		t.Errorf("Expected largest wallet M1 re-tagged first, got %s", result.BundleWallets[0].Address)
	}
	for _, w := range result.BundleWallets {
		if w.Role != domain.RoleBundle {
			t.Errorf("Re-tagged wallet %s has role %s, want %s", w.Address, w.Role, domain.RoleBundle)
		}
		if w.Reason != "Bundle Wallet (Forced)" {
			t.Errorf("Re-tagged wallet %s reason %q lacks forced bundle tag", w.Address, w.Reason)
		}
	}

	// Buckets stay disjoint: a re-tagged wallet leaves the MEV bucket.
	seen := make(map[string]bool)
	for _, w := range allWallets(result) {
		if seen[w.Address] {
			t.Errorf("Wallet %s appears in more than one bucket", w.Address)
		}
		seen[w.Address] = true
	}
	if result.Counts.MEV != len(result.MEVWallets) || result.Counts.Bundle != 2 {
		t.Errorf("Counts inconsistent with buckets: %+v", result.Counts)
	}
}

func TestFallback_AllMEVKeepsOverflowInMEVBucket(t *testing.T) {
	// Three MEV wallets, forced cap two: the smallest stays MEV-tagged.
	holders := []domain.HolderRecord{
		{Address: "M1", Balance: 0.05},
		{Address: "M2", Balance: 0.03},
		{Address: "M3", Balance: 0.02},
	}
	summaries := make(map[string]domain.ActivitySummary, len(holders))
	for _, h := range holders {
		summaries[h.Address] = domain.ActivitySummary{
			Address: h.Address, TotalBought: 1000, TotalSold: 950, SellTxCount: 30, RiskScore: 85,
		}
	}

	result := newClassifier(summaries).Classify(context.Background(), holders, testToken, "", 100, testNet)

	if len(result.BundleWallets) != 2 {
		t.Fatalf("Expected 2 re-tagged bundle wallets, got %d", len(result.BundleWallets))
	}
	if len(result.MEVWallets) != 1 || result.MEVWallets[0].Address != "M3" {
		t.Fatalf("Expected M3 left in MEV bucket, got %+v", result.MEVWallets)
	}
}

func TestFallback_ForcedReasonsAreTagged(t *testing.T) {
	holders := []domain.HolderRecord{
		{Address: "X", Balance: 0.009},
		{Address: "Y", Balance: 0.002},
	}

	result := newClassifier(nil).Classify(context.Background(), holders, testToken, "", 100, testNet)

	for _, w := range allWallets(result) {
		if w.Reason == "Deployer wallet" {
			continue
		}
		if !strings.Contains(w.Reason, "(Forced)") {
			t.Errorf("Promoted wallet %s reason %q lacks forced tag", w.Address, w.Reason)
		}
	}
}
