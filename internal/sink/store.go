package sink

import (
	"context"
	"fmt"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

// StoreSink persists every opportunity through an OpportunityStore.
type StoreSink struct {
	store domain.OpportunityStore
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(store domain.OpportunityStore) *StoreSink {
	return &StoreSink{store: store}
}

// Publish inserts the opportunity.
func (s *StoreSink) Publish(ctx context.Context, opp domain.Opportunity) error {
	if err := s.store.Insert(ctx, opp); err != nil {
		return fmt.Errorf("store sink: %w", err)
	}
	return nil
}

var _ domain.OpportunitySink = (*StoreSink)(nil)
