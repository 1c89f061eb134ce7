package monitor

import "sync"

// VenueRegistry maps known exchange program addresses to venue names.
// Unrecognized destinations classify as "Unknown".
type VenueRegistry struct {
	mu     sync.RWMutex
	venues map[string]string
}

// UnknownVenue is the classification for unrecognized destinations.
const UnknownVenue = "Unknown"

// defaultVenues covers the major mainnet swap programs.
var defaultVenues = map[string]string{
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "Raydium",
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": "Raydium CLMM",
	"9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP": "Orca",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  "Orca Whirlpool",
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  "Jupiter",
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  "Pump.fun",
	"Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB": "Meteora",
}

// NewVenueRegistry creates a registry seeded with the default venues plus
// any extra entries, which override defaults on conflict.
func NewVenueRegistry(extra map[string]string) *VenueRegistry {
	venues := make(map[string]string, len(defaultVenues)+len(extra))
	for addr, name := range defaultVenues {
		venues[addr] = name
	}
	for addr, name := range extra {
		venues[addr] = name
	}
	return &VenueRegistry{venues: venues}
}

// Lookup classifies a destination address.
func (r *VenueRegistry) Lookup(address string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.venues[address]; ok {
		return name
	}
	return UnknownVenue
}

// Register adds or replaces a venue entry.
func (r *VenueRegistry) Register(address, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[address] = name
}
