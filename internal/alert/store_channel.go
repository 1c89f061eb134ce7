package alert

import (
	"context"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/storage"
)

// StoreChannel persists alerts through an AlertStore. Upsert keyed by the
// alert id makes redelivery a no-op, so this channel is safe under
// at-least-once dispatch.
type StoreChannel struct {
	store storage.AlertStore
}

// NewStoreChannel creates a persistence channel over the given store.
func NewStoreChannel(store storage.AlertStore) *StoreChannel {
	return &StoreChannel{store: store}
}

// Name implements Channel.
func (s *StoreChannel) Name() string {
	return "store"
}

// Send implements Channel.
func (s *StoreChannel) Send(ctx context.Context, a *domain.SellAlert) error {
	return s.store.Upsert(ctx, a)
}
