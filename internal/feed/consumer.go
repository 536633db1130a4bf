package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/book"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/health"
)

// Consumer is the single drainer of the normalization queue: it applies every
// update to the order-book store in arrival order and feeds the latency
// tracker. Being the only writer keeps per-exchange FIFO intact.
type Consumer struct {
	queue   *Queue
	store   *book.Store
	tracker *health.LatencyTracker
	logger  *slog.Logger
}

// NewConsumer creates a consumer. tracker may be nil.
func NewConsumer(queue *Queue, store *book.Store, tracker *health.LatencyTracker, logger *slog.Logger) *Consumer {
	return &Consumer{
		queue:   queue,
		store:   store,
		tracker: tracker,
		logger:  logger.With(slog.String("component", "consumer")),
	}
}

// Run drains the queue until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for {
		u, err := c.queue.Get(ctx)
		if err != nil {
			return err
		}

		c.store.Apply(u)

		if c.tracker != nil && !u.Timestamp.IsZero() {
			c.tracker.Record(u.Exchange, time.Since(u.Timestamp))
		}
	}
}
