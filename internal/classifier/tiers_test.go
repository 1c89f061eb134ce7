package classifier

import "testing"

func TestThresholdsFor_TierSelection(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		population int
		wantTeam   float64
		wantBundle float64
	}{
		{5, 0.10, 0.01},
		{250, 0.10, 0.01},
		{251, 0.05, 0.005},
		{1000, 0.05, 0.005},
		{5000, 0.02, 0.002},
		{100000, 0.01, 0.001},
	}

	for _, tt := range tests {
		th := thresholdsFor(tiers, tt.population)
		if th.Team != tt.wantTeam {
			t.Errorf("population %d: Team = %f, want %f", tt.population, th.Team, tt.wantTeam)
		}
		if th.Bundle != tt.wantBundle {
			t.Errorf("population %d: Bundle = %f, want %f", tt.population, th.Bundle, tt.wantBundle)
		}
	}
}

func TestThresholdsFor_ShrinkAsPopulationGrows(t *testing.T) {
	tiers := DefaultTiers()

	prev := thresholdsFor(tiers, 1)
	for _, population := range []int{300, 2000, 50000} {
		cur := thresholdsFor(tiers, population)
		if cur.Team >= prev.Team {
			t.Errorf("Team threshold did not shrink at population %d: %f >= %f", population, cur.Team, prev.Team)
		}
		if cur.Bundle >= prev.Bundle {
			t.Errorf("Bundle threshold did not shrink at population %d: %f >= %f", population, cur.Bundle, prev.Bundle)
		}
		// Each tier at least halves the previous cutoffs
		if cur.Team > prev.Team/2 {
			t.Errorf("Team threshold at population %d shrank less than half: %f > %f", population, cur.Team, prev.Team/2)
		}
		prev = cur
	}
}

func TestThresholdsFor_EmptyTable(t *testing.T) {
	th := thresholdsFor(nil, 10)
	if th.Team <= 0 || th.Bundle <= 0 {
		t.Errorf("Empty tier table should fall back to catch-all, got %+v", th)
	}
}
