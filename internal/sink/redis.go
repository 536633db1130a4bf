package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

const (
	// opportunityChannel is the pub/sub channel live consumers subscribe to.
	opportunityChannel = "opportunities"

	// opportunityStream is the durable stream for replayable history.
	opportunityStream = "opportunities:stream"
)

// opportunityEvent is the JSON wire shape published to the bus.
type opportunityEvent struct {
	ID           string  `json:"id"`
	SellExchange string  `json:"sell_exchange"`
	BuyExchange  string  `json:"buy_exchange"`
	SellPrice    float64 `json:"sell_price"`
	BuyPrice     float64 `json:"buy_price"`
	GrossSpread  float64 `json:"gross_spread"`
	NetSpread    float64 `json:"net_spread"`
	ProfitPct    float64 `json:"profit_pct"`
	DetectedAt   string  `json:"detected_at"`
}

// BusSink publishes opportunities to the signal bus: an ephemeral pub/sub
// fan-out plus a trimmed stream append.
type BusSink struct {
	bus domain.SignalBus
}

// NewBusSink creates a BusSink over the given bus.
func NewBusSink(bus domain.SignalBus) *BusSink {
	return &BusSink{bus: bus}
}

// Publish marshals and sends the opportunity. Stream-append failures are
// reported but the pub/sub publish is attempted first so live consumers get
// the event even when the stream is unavailable.
func (s *BusSink) Publish(ctx context.Context, opp domain.Opportunity) error {
	payload, err := json.Marshal(opportunityEvent{
		ID:           opp.ID,
		SellExchange: opp.SellExchange,
		BuyExchange:  opp.BuyExchange,
		SellPrice:    opp.SellPrice,
		BuyPrice:     opp.BuyPrice,
		GrossSpread:  opp.GrossSpread,
		NetSpread:    opp.NetSpread,
		ProfitPct:    opp.ProfitPct,
		DetectedAt:   opp.DetectedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("bus sink: marshal: %w", err)
	}

	if err := s.bus.Publish(ctx, opportunityChannel, payload); err != nil {
		return fmt.Errorf("bus sink: publish: %w", err)
	}
	if err := s.bus.StreamAppend(ctx, opportunityStream, payload); err != nil {
		return fmt.Errorf("bus sink: stream append: %w", err)
	}
	return nil
}

var _ domain.OpportunitySink = (*BusSink)(nil)
