package domain

// ActivitySummary aggregates a wallet's transfer history for one token.
// Recomputed on each classification run, never mutated afterward.
type ActivitySummary struct {
	Address     string
	TotalBought float64 // sum of transfer amounts received
	TotalSold   float64 // sum of transfer amounts sent
	SellTxCount int     // number of outgoing transfers
	RiskScore   float64 // 0..100, monotonic in sell pressure
}

// SellBuyRatio returns sold volume relative to bought volume.
// A wallet that only sells reports a ratio above any buy-backed wallet.
func (a ActivitySummary) SellBuyRatio() float64 {
	if a.TotalBought > 0 {
		return a.TotalSold / a.TotalBought
	}
	if a.TotalSold > 0 {
		return 1.0
	}
	return 0
}
