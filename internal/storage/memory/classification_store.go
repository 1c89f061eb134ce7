package memory

import (
	"context"
	"sync"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// ClassificationStore is an in-memory implementation of
// storage.ClassificationStore. Keeps every run, returns the newest.
type ClassificationStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ClassificationResult // keyed by token|network
}

// NewClassificationStore creates a new in-memory classification store.
func NewClassificationStore() *ClassificationStore {
	return &ClassificationStore{
		data: make(map[string][]*domain.ClassificationResult),
	}
}

// Compile-time interface check.
var _ storage.ClassificationStore = (*ClassificationStore)(nil)

func runKey(tokenAddress string, network domain.Network) string {
	return tokenAddress + "|" + string(network)
}

// InsertRun stores a completed classification run.
func (s *ClassificationStore) InsertRun(_ context.Context, r *domain.ClassificationResult) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCopy := copyResult(r)
	key := runKey(r.TokenAddress, r.Network)
	s.data[key] = append(s.data[key], runCopy)
	return nil
}

// GetLatestByToken retrieves the most recent run for a token.
func (s *ClassificationStore) GetLatestByToken(_ context.Context, tokenAddress string, network domain.Network) (*domain.ClassificationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.data[runKey(tokenAddress, network)]
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}

	latest := runs[0]
	for _, r := range runs[1:] {
		if r.RunAt > latest.RunAt {
			latest = r
		}
	}
	return copyResult(latest), nil
}

func copyResult(r *domain.ClassificationResult) *domain.ClassificationResult {
	out := *r
	out.TeamWallets = append([]domain.ClassifiedWallet(nil), r.TeamWallets...)
	out.BundleWallets = append([]domain.ClassifiedWallet(nil), r.BundleWallets...)
	out.MEVWallets = append([]domain.ClassifiedWallet(nil), r.MEVWallets...)
	return &out
}
