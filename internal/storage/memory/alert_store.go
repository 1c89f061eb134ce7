package memory

import (
	"context"
	"sort"
	"sync"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SellAlert // keyed by alert_id
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[string]*domain.SellAlert),
	}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// Upsert inserts an alert if its alert_id is new; duplicates are a no-op.
func (s *AlertStore) Upsert(_ context.Context, a *domain.SellAlert) error {
	if a == nil || a.AlertID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AlertID]; exists {
		return nil
	}

	// Store a copy to prevent external mutation
	alertCopy := *a
	s.data[a.AlertID] = &alertCopy
	return nil
}

// GetByID retrieves an alert by its ID. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByID(_ context.Context, alertID string) (*domain.SellAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[alertID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	alertCopy := *a
	return &alertCopy, nil
}

// GetByToken retrieves all alerts for a token, newest first.
func (s *AlertStore) GetByToken(_ context.Context, tokenAddress string, network domain.Network) ([]*domain.SellAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SellAlert
	for _, a := range s.data {
		if a.TokenAddress == tokenAddress && a.Network == network {
			alertCopy := *a
			result = append(result, &alertCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp > result[j].Timestamp
	})

	return result, nil
}

// GetByWallet retrieves all alerts for a wallet, newest first.
func (s *AlertStore) GetByWallet(_ context.Context, walletAddress string) ([]*domain.SellAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SellAlert
	for _, a := range s.data {
		if a.WalletAddress == walletAddress {
			alertCopy := *a
			result = append(result, &alertCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp > result[j].Timestamp
	})

	return result, nil
}
