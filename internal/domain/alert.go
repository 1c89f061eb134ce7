package domain

// SellAlert is a detected, transaction-verified decrease in a tracked
// wallet's balance. Created exactly once per detected decrease per tick;
// immutable; delivered at-least-once to each subscriber and channel.
type SellAlert struct {
	AlertID           string  `json:"alert_id"` // deterministic hash, see idhash.ComputeAlertID
	WalletAddress     string  `json:"wallet_address"`
	WalletRole        Role    `json:"wallet_role"`
	TokenAddress      string  `json:"token_address"`
	Network           Network `json:"network"`
	AmountSold        float64 `json:"amount_sold"`
	PreviousBalance   float64 `json:"previous_balance"`
	NewBalance        float64 `json:"new_balance"`
	ChangePercentage  float64 `json:"change_percentage"`  // of the previous balance
	CounterpartyVenue string  `json:"counterparty_venue"` // recognized exchange venue or "Unknown"
	TxSignature       string  `json:"tx_signature"`
	Timestamp         int64   `json:"timestamp"` // Unix timestamp in milliseconds
}

// BalanceObservation is one successful per-tick balance check of a tracked
// wallet. Append-only; recorded whether or not an alert fired.
type BalanceObservation struct {
	WalletAddress string  `json:"wallet_address"`
	TokenAddress  string  `json:"token_address"`
	Network       Network `json:"network"`
	Balance       float64 `json:"balance"`
	ObservedAt    int64   `json:"observed_at"` // Unix timestamp in milliseconds
}
