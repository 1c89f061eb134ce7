package domain

// Network identifies the ledger cluster a token lives on.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkDevnet  Network = "devnet"
)

// String returns the string representation of Network.
func (n Network) String() string {
	return string(n)
}

// IsValid checks if the network is a valid value.
func (n Network) IsValid() bool {
	return n == NetworkMainnet || n == NetworkDevnet
}
