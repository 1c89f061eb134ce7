package memory

import (
	"context"
	"sort"
	"sync"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// BalanceObservationStore is an in-memory implementation of
// storage.BalanceObservationStore.
type BalanceObservationStore struct {
	mu   sync.RWMutex
	data []*domain.BalanceObservation
}

// NewBalanceObservationStore creates a new in-memory observation store.
func NewBalanceObservationStore() *BalanceObservationStore {
	return &BalanceObservationStore{}
}

// Compile-time interface check.
var _ storage.BalanceObservationStore = (*BalanceObservationStore)(nil)

// InsertBulk adds the observations of one tick.
func (s *BalanceObservationStore) InsertBulk(_ context.Context, obs []*domain.BalanceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	for _, o := range obs {
		if o == nil || o.WalletAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		obsCopy := *o
		s.data = append(s.data, &obsCopy)
	}
	return nil
}

// GetByWallet retrieves observations within [start, end], observed_at ASC.
func (s *BalanceObservationStore) GetByWallet(_ context.Context, walletAddress, tokenAddress string, start, end int64) ([]*domain.BalanceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BalanceObservation
	for _, o := range s.data {
		if o.WalletAddress != walletAddress || o.TokenAddress != tokenAddress {
			continue
		}
		if o.ObservedAt < start || o.ObservedAt > end {
			continue
		}
		obsCopy := *o
		result = append(result, &obsCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}
