package domain

// Transfer is one token transfer as reported by the ledger gateway.
type Transfer struct {
	From        string
	To          string
	Amount      float64 // zero when the upstream row had no parsable amount
	TxSignature string
	Slot        int64
	Timestamp   int64 // Unix timestamp in milliseconds
}
