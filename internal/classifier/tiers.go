package classifier

// Thresholds is one population tier's percentage cutoffs.
type Thresholds struct {
	Team   float64 // supply % above which a holder looks team-controlled
	Bundle float64 // supply % above which a holder looks like a bundle buy
}

// Tier maps a holder-population ceiling to its thresholds. In a larger
// population a smaller percentage is still anomalous, so cutoffs shrink as
// the population grows.
type Tier struct {
	PopulationCeiling int // 0 means no ceiling (catch-all)
	Thresholds        Thresholds
}

// DefaultTiers returns the default population tier table. Scanned top-down,
// first match wins; each tier at least halves the previous cutoffs.
func DefaultTiers() []Tier {
	return []Tier{
		{PopulationCeiling: 250, Thresholds: Thresholds{Team: 0.10, Bundle: 0.01}},
		{PopulationCeiling: 1000, Thresholds: Thresholds{Team: 0.05, Bundle: 0.005}},
		{PopulationCeiling: 5000, Thresholds: Thresholds{Team: 0.02, Bundle: 0.002}},
		{PopulationCeiling: 0, Thresholds: Thresholds{Team: 0.01, Bundle: 0.001}},
	}
}

// thresholdsFor picks the first tier whose ceiling covers the population.
func thresholdsFor(tiers []Tier, population int) Thresholds {
	for _, tier := range tiers {
		if tier.PopulationCeiling == 0 || population <= tier.PopulationCeiling {
			return tier.Thresholds
		}
	}
	// Empty tier table, fall back to the built-in catch-all
	defaults := DefaultTiers()
	return defaults[len(defaults)-1].Thresholds
}
