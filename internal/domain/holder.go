package domain

// HolderRecord is one row of a token holder snapshot.
// Immutable once produced by the ledger gateway.
type HolderRecord struct {
	Address string  // wallet address (base58)
	Balance float64 // token balance at snapshot time
	TxCount int     // total transaction count for the address
}
