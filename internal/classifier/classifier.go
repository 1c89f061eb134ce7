// Package classifier assigns behavioral roles to a token's holders.
package classifier

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/activity"
	"holder-sentinel/internal/domain"
)

// Config holds classification parameters. The cutoffs are tuned heuristics,
// not derived constants; keep them configurable.
type Config struct {
	// TopN bounds the working set to the N largest holders.
	TopN int
	// BatchSize is how many activity summaries are fetched concurrently.
	BatchSize int
	// BatchPause is the delay between summary batches, for upstream rate limits.
	BatchPause time.Duration
	// HistoryLimit bounds the transfer history inspected per wallet.
	HistoryLimit int

	// Tiers is the population threshold table.
	Tiers []Tier

	// MEV cutoffs.
	MEVSellTxCount  int     // sell transactions above this mark high frequency
	MEVSoldRatio    float64 // sold volume must be at least this share of bought
	MEVMaxSupplyPct float64 // MEV wallets hold small stakes
	MEVMinRiskScore float64

	// LargeAccumulationFloor admits never-selling accumulators to Team.
	LargeAccumulationFloor float64

	// Coordinated-cluster admission for Bundle.
	ClusterTolerance float64 // supply % band two holders count as clustered within
	ClusterMinPeers  int     // minimum other holders sharing the band

	// Fallback promotion caps.
	TeamFallbackMax   int
	BundleFallbackMax int
	BundleForcedMax   int
}

// DefaultConfig returns the default classification parameters.
func DefaultConfig() Config {
	return Config{
		TopN:                   20,
		BatchSize:              3,
		BatchPause:             500 * time.Millisecond,
		HistoryLimit:           100,
		Tiers:                  DefaultTiers(),
		MEVSellTxCount:         15,
		MEVSoldRatio:           0.8,
		MEVMaxSupplyPct:        1.0,
		MEVMinRiskScore:        70,
		LargeAccumulationFloor: 10000,
		ClusterTolerance:       0.005,
		ClusterMinPeers:        2,
		TeamFallbackMax:        3,
		BundleFallbackMax:      8,
		BundleForcedMax:        2,
	}
}

// summarizer is the slice of the activity package the classifier needs.
type summarizer interface {
	Summarize(ctx context.Context, walletAddress, tokenAddress string, network domain.Network, historyLimit int) domain.ActivitySummary
}

// Classifier turns holder snapshots into role-tagged wallets.
type Classifier struct {
	config     Config
	summarizer summarizer
	logger     zerolog.Logger
}

// Compile-time check that the activity package satisfies summarizer.
var _ summarizer = (*activity.Summarizer)(nil)

// New creates a new Classifier.
func New(config Config, s summarizer, logger zerolog.Logger) *Classifier {
	if config.TopN <= 0 {
		config.TopN = DefaultConfig().TopN
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Classifier{
		config:     config,
		summarizer: s,
		logger:     logger.With().Str("component", "classifier").Logger(),
	}
}

// Classify assigns roles to the largest holders of a token.
// A non-positive total supply or an empty holder list yields an empty
// result; that is a valid outcome, not an error.
func (c *Classifier) Classify(ctx context.Context, holders []domain.HolderRecord, tokenAddress, deployer string, totalSupply float64, network domain.Network) *domain.ClassificationResult {
	result := &domain.ClassificationResult{
		TokenAddress: tokenAddress,
		Network:      network,
		Deployer:     deployer,
		TotalSupply:  totalSupply,
		HolderCount:  len(holders),
		RunAt:        time.Now().UnixMilli(),
	}

	if totalSupply <= 0 || len(holders) == 0 {
		return result
	}

	// Working set: top-N by balance, positive balances only.
	working := make([]domain.HolderRecord, 0, len(holders))
	for _, h := range holders {
		if h.Balance > 0 {
			working = append(working, h)
		}
	}
	sort.Slice(working, func(i, j int) bool {
		return working[i].Balance > working[j].Balance
	})
	if len(working) > c.config.TopN {
		working = working[:c.config.TopN]
	}
	if len(working) == 0 {
		return result
	}

	summaries := c.summarizeBatched(ctx, working, tokenAddress, network)
	thresholds := thresholdsFor(c.config.Tiers, len(holders))

	c.logger.Debug().
		Str("token", tokenAddress).
		Int("population", len(holders)).
		Int("working_set", len(working)).
		Float64("team_threshold", thresholds.Team).
		Float64("bundle_threshold", thresholds.Bundle).
		Msg("classifying working set")

	supplyPct := func(h domain.HolderRecord) float64 {
		return h.Balance / totalSupply * 100
	}

	classified := make(map[string]bool, len(working))
	var unclassified []domain.HolderRecord

	for _, h := range working {
		pct := supplyPct(h)
		summary := summaries[h.Address]

		// High-frequency extraction overrides the stake-size heuristics.
		if c.isMEV(summary, pct) {
			result.MEVWallets = append(result.MEVWallets, domain.ClassifiedWallet{
				Address:          h.Address,
				Balance:          h.Balance,
				SupplyPercentage: pct,
				Role:             domain.RoleMEV,
				Reason:           "High-frequency sell pattern",
				RiskLevel:        domain.RiskHigh,
			})
			classified[h.Address] = true
			continue
		}

		if role, reason, level, ok := c.teamMatch(h.Address, deployer, pct, thresholds, summary); ok {
			result.TeamWallets = append(result.TeamWallets, domain.ClassifiedWallet{
				Address:          h.Address,
				Balance:          h.Balance,
				SupplyPercentage: pct,
				Role:             role,
				Reason:           reason,
				RiskLevel:        level,
			})
			classified[h.Address] = true
			continue
		}

		if reason, ok := c.bundleMatch(h, pct, thresholds, working, totalSupply); ok {
			result.BundleWallets = append(result.BundleWallets, domain.ClassifiedWallet{
				Address:          h.Address,
				Balance:          h.Balance,
				SupplyPercentage: pct,
				Role:             domain.RoleBundle,
				Reason:           reason,
				RiskLevel:        bundleRisk(summary),
			})
			classified[h.Address] = true
			continue
		}

		unclassified = append(unclassified, h)
	}

	c.applyFallback(result, working, unclassified, classified, deployer, totalSupply)

	result.Counts = domain.RoleCounts{
		Team:   len(result.TeamWallets),
		Bundle: len(result.BundleWallets),
		MEV:    len(result.MEVWallets),
	}
	result.Counts.Total = result.Counts.Team + result.Counts.Bundle + result.Counts.MEV

	return result
}

// summarizeBatched fetches activity summaries in fixed-size concurrent
// batches with a pacing delay between batches. Results are aggregated under
// a mutex; no other state is shared.
func (c *Classifier) summarizeBatched(ctx context.Context, working []domain.HolderRecord, tokenAddress string, network domain.Network) map[string]domain.ActivitySummary {
	summaries := make(map[string]domain.ActivitySummary, len(working))
	var mu sync.Mutex

	for start := 0; start < len(working); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(working) {
			end = len(working)
		}

		var wg sync.WaitGroup
		for _, h := range working[start:end] {
			wg.Add(1)
			go func(address string) {
				defer wg.Done()
				s := c.summarizer.Summarize(ctx, address, tokenAddress, network, c.config.HistoryLimit)
				mu.Lock()
				summaries[address] = s
				mu.Unlock()
			}(h.Address)
		}
		wg.Wait()

		if end < len(working) && c.config.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return summaries
			case <-time.After(c.config.BatchPause):
			}
		}
	}

	return summaries
}

// isMEV checks the high-frequency extractor pattern: many sells, sold volume
// near or above bought volume, a small stake, and a high risk score.
func (c *Classifier) isMEV(s domain.ActivitySummary, supplyPct float64) bool {
	return s.SellTxCount > c.config.MEVSellTxCount &&
		s.TotalSold >= c.config.MEVSoldRatio*s.TotalBought &&
		s.TotalSold > 0 &&
		supplyPct < c.config.MEVMaxSupplyPct &&
		s.RiskScore > c.config.MEVMinRiskScore
}

// teamMatch checks the three team signals in order: deployer identity,
// stake above the tier threshold, large never-selling accumulation.
func (c *Classifier) teamMatch(address, deployer string, supplyPct float64, th Thresholds, s domain.ActivitySummary) (domain.Role, string, domain.RiskLevel, bool) {
	if deployer != "" && address == deployer {
		return domain.RoleDeployer, "Deployer wallet", domain.RiskHigh, true
	}
	if supplyPct > th.Team {
		return domain.RoleTeam, "Supply above team threshold", teamRisk(supplyPct), true
	}
	if s.SellTxCount == 0 && s.TotalBought > c.config.LargeAccumulationFloor {
		return domain.RoleTeam, "Large accumulation without sells", domain.RiskMedium, true
	}
	return "", "", "", false
}

// bundleMatch admits holders between the bundle and team thresholds, plus
// holders below the bundle threshold that cluster with at least
// ClusterMinPeers others in a narrow supply-percentage band.
func (c *Classifier) bundleMatch(h domain.HolderRecord, supplyPct float64, th Thresholds, working []domain.HolderRecord, totalSupply float64) (string, bool) {
	if supplyPct > th.Bundle && supplyPct <= th.Team {
		if c.clusterPeers(h, supplyPct, working, totalSupply) >= c.config.ClusterMinPeers {
			return "Coordinated bundle cluster", true
		}
		return "Supply above bundle threshold", true
	}

	if supplyPct > 0 && c.clusterPeers(h, supplyPct, working, totalSupply) >= c.config.ClusterMinPeers {
		return "Coordinated bundle cluster", true
	}

	return "", false
}

// clusterPeers counts other working-set holders whose supply percentage
// falls within the cluster tolerance of this holder's.
func (c *Classifier) clusterPeers(h domain.HolderRecord, supplyPct float64, working []domain.HolderRecord, totalSupply float64) int {
	peers := 0
	for _, other := range working {
		if other.Address == h.Address {
			continue
		}
		otherPct := other.Balance / totalSupply * 100
		diff := supplyPct - otherPct
		if diff < 0 {
			diff = -diff
		}
		if diff <= c.config.ClusterTolerance {
			peers++
		}
	}
	return peers
}

func teamRisk(supplyPct float64) domain.RiskLevel {
	if supplyPct > 10 {
		return domain.RiskHigh
	}
	return domain.RiskMedium
}

func bundleRisk(s domain.ActivitySummary) domain.RiskLevel {
	if s.RiskScore > 50 {
		return domain.RiskHigh
	}
	if s.RiskScore > 20 {
		return domain.RiskMedium
	}
	return domain.RiskLow
}
