package classifier

import (
	"holder-sentinel/internal/domain"
)

// applyFallback guarantees non-empty Team and Bundle buckets whenever at
// least one positive-balance holder exists. An empty bucket is
// indistinguishable from a classifier failure for downstream consumers, so
// the largest remaining holders are promoted with "(Forced)" reasons that
// let callers discount confidence. Kept as a separate post-pass over the
// primary output so its effect stays auditable.
func (c *Classifier) applyFallback(result *domain.ClassificationResult, working, unclassified []domain.HolderRecord, classified map[string]bool, deployer string, totalSupply float64) {
	if len(working) == 0 {
		return
	}

	supplyPct := func(h domain.HolderRecord) float64 {
		return h.Balance / totalSupply * 100
	}

	// Team fallback: promote the largest unclassified holders.
	if len(result.TeamWallets) == 0 {
		promoted := 0
		for _, h := range unclassified {
			if promoted >= c.config.TeamFallbackMax {
				break
			}
			role, reason := domain.RoleTeam, "Team Wallet (Forced)"
			if deployer != "" && h.Address == deployer {
				role, reason = domain.RoleDeployer, "Deployer wallet"
			}
			result.TeamWallets = append(result.TeamWallets, domain.ClassifiedWallet{
				Address:          h.Address,
				Balance:          h.Balance,
				SupplyPercentage: supplyPct(h),
				Role:             role,
				Reason:           reason,
				RiskLevel:        domain.RiskLow,
			})
			classified[h.Address] = true
			promoted++
		}
	}

	if len(result.BundleWallets) > 0 {
		return
	}

	// Bundle fallback: promote the largest holders not already classified.
	promoted := 0
	for _, h := range unclassified {
		if promoted >= c.config.BundleFallbackMax {
			break
		}
		if classified[h.Address] {
			continue
		}
		result.BundleWallets = append(result.BundleWallets, domain.ClassifiedWallet{
			Address:          h.Address,
			Balance:          h.Balance,
			SupplyPercentage: supplyPct(h),
			Role:             domain.RoleBundle,
			Reason:           "Bundle Wallet (Forced)",
			RiskLevel:        domain.RiskLow,
		})
		classified[h.Address] = true
		promoted++
	}
	if promoted > 0 {
		return
	}

	// Everything sizeable went to Team or MEV. Take the holders ranked beyond
	// the team set, preferring non-MEV wallets, up to the forced cap.
	teamSize := len(result.TeamWallets)
	inMEV := make(map[string]bool, len(result.MEVWallets))
	for _, w := range result.MEVWallets {
		inMEV[w.Address] = true
	}
	inTeam := make(map[string]bool, teamSize)
	for _, w := range result.TeamWallets {
		inTeam[w.Address] = true
	}

	forced := 0
	for i := teamSize; i < len(working) && forced < c.config.BundleForcedMax; i++ {
		h := working[i]
		if inTeam[h.Address] || inMEV[h.Address] {
			continue
		}
		result.BundleWallets = append(result.BundleWallets, domain.ClassifiedWallet{
			Address:          h.Address,
			Balance:          h.Balance,
			SupplyPercentage: supplyPct(h),
			Role:             domain.RoleBundle,
			Reason:           "Bundle Wallet (Forced)",
			RiskLevel:        domain.RiskLow,
		})
		forced++
	}
	if forced > 0 || len(result.MEVWallets) == 0 {
		return
	}

	// Only MEV wallets remain outside Team. Re-tag the largest of them so the
	// bundle bucket is never empty alongside an empty team bucket; the forced
	// reason keeps the re-tag auditable. Buckets stay disjoint.
	moved := len(result.MEVWallets)
	if moved > c.config.BundleForcedMax {
		moved = c.config.BundleForcedMax
	}
	for _, w := range result.MEVWallets[:moved] {
		w.Role = domain.RoleBundle
		w.Reason = "Bundle Wallet (Forced)"
		result.BundleWallets = append(result.BundleWallets, w)
	}
	result.MEVWallets = result.MEVWallets[moved:]
}
