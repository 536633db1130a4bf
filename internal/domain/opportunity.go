package domain

import (
	"context"
	"time"
)

// Opportunity is a cross-exchange arbitrage signal: sell at SellExchange's
// best bid, buy at BuyExchange's best ask. Created transiently by the scanner
// on each tick and handed to sinks; never retained by the scanner.
type Opportunity struct {
	ID           string
	SellExchange string
	BuyExchange  string
	SellPrice    float64
	BuyPrice     float64
	GrossSpread  float64
	NetSpread    float64
	ProfitPct    float64 // decimal fraction, e.g. 0.001 == 0.1%
	FeeBuy       float64
	FeeSell      float64
	TsSell       time.Time
	TsBuy        time.Time
	DetectedAt   time.Time
}

// OpportunitySink consumes emitted opportunities. Implementations must be
// tolerant of transient unavailability; delivery is best-effort and a sink
// error never stops the pipeline.
type OpportunitySink interface {
	Publish(ctx context.Context, opp Opportunity) error
}

// OpportunityStore persists opportunities for later inspection.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// SignalBus publishes raw payloads to an external message bus.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}
