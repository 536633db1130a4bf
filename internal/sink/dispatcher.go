// Package sink fans emitted opportunities out to pluggable consumers: log
// narration, CSV files, the redis signal bus, the postgres recorder, and the
// simulated executor. The Dispatcher decouples the scan loop from sink
// latency with a bounded buffer and drop-and-count shedding.
package sink

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/metrics"
)

// deliverTimeout bounds a single sink delivery so one slow consumer cannot
// stall the others indefinitely.
const deliverTimeout = 5 * time.Second

// Dispatcher delivers opportunities to all registered sinks from a single
// goroutine. Offer never blocks; on a full buffer the newest record is shed
// and counted.
type Dispatcher struct {
	ch      chan domain.Opportunity
	sinks   []domain.OpportunitySink
	dropped atomic.Uint64
	m       *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher with the given buffer capacity. m may
// be nil.
func NewDispatcher(capacity int, m *metrics.Metrics, logger *slog.Logger, sinks ...domain.OpportunitySink) *Dispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Dispatcher{
		ch:     make(chan domain.Opportunity, capacity),
		sinks:  sinks,
		m:      m,
		logger: logger.With(slog.String("component", "sink_dispatcher")),
	}
}

// Offer hands an opportunity to the dispatcher without blocking. Returns
// false when the buffer was full and the record was shed.
func (d *Dispatcher) Offer(opp domain.Opportunity) bool {
	select {
	case d.ch <- opp:
		return true
	default:
		d.dropped.Add(1)
		if d.m != nil {
			d.m.SinkDropped.Inc()
		}
		return false
	}
}

// Dropped returns the number of records shed so far.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Run delivers buffered opportunities until ctx is cancelled, then drains
// whatever is still buffered before returning so nothing accepted by Offer
// is silently lost on shutdown.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started", slog.Int("sinks", len(d.sinks)))
	defer d.logger.Info("dispatcher stopped", slog.Uint64("dropped", d.Dropped()))

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return ctx.Err()
		case opp := <-d.ch:
			d.deliver(ctx, opp)
		}
	}
}

// drain flushes the remaining buffer with a background context.
func (d *Dispatcher) drain() {
	for {
		select {
		case opp := <-d.ch:
			d.deliver(context.Background(), opp)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, opp domain.Opportunity) {
	for _, s := range d.sinks {
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
		if err := s.Publish(deliverCtx, opp); err != nil {
			d.logger.Warn("sink publish failed",
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}
