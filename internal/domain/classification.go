package domain

// Role is the behavioral role assigned to a classified wallet.
type Role string

const (
	RoleDeployer Role = "DEPLOYER"
	RoleTeam     Role = "TEAM"
	RoleBundle   Role = "BUNDLE"
	RoleMEV      Role = "MEV"
	RoleHolder   Role = "HOLDER"
)

// String returns the string representation of Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleDeployer, RoleTeam, RoleBundle, RoleMEV, RoleHolder:
		return true
	}
	return false
}

// RiskLevel grades how risky a classified wallet looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// String returns the string representation of RiskLevel.
func (l RiskLevel) String() string {
	return string(l)
}

// ClassifiedWallet is one holder with its assigned role.
// Created once per classification run; immutable.
type ClassifiedWallet struct {
	Address          string    `json:"address"`
	Balance          float64   `json:"balance"`
	SupplyPercentage float64   `json:"supply_percentage"` // balance / totalSupply * 100, from the run's snapshot
	Role             Role      `json:"role"`
	Reason           string    `json:"reason"` // human-readable why, "(Forced)" suffix for fallback promotions
	RiskLevel        RiskLevel `json:"risk_level"`
}

// RoleCounts summarizes bucket sizes of a classification run.
type RoleCounts struct {
	Team   int `json:"team"`
	Bundle int `json:"bundle"`
	MEV    int `json:"mev"`
	Total  int `json:"total"`
}

// ClassificationResult partitions the classified working set into disjoint
// role buckets. A wallet appears in at most one bucket per run.
type ClassificationResult struct {
	TokenAddress  string             `json:"token_address"`
	Network       Network            `json:"network"`
	Deployer      string             `json:"deployer"` // empty when the deployer lookup failed
	TotalSupply   float64            `json:"total_supply"`
	HolderCount   int                `json:"holder_count"` // full population, not the working set
	TeamWallets   []ClassifiedWallet `json:"team_wallets"`
	BundleWallets []ClassifiedWallet `json:"bundle_wallets"`
	MEVWallets    []ClassifiedWallet `json:"mev_wallets"`
	Counts        RoleCounts         `json:"counts"`
	RunAt         int64              `json:"run_at"` // Unix timestamp in milliseconds
}

// Empty reports whether no wallet was classified in any bucket.
func (r *ClassificationResult) Empty() bool {
	return len(r.TeamWallets) == 0 && len(r.BundleWallets) == 0 && len(r.MEVWallets) == 0
}
