package feed

import (
	"context"
	"sync/atomic"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/metrics"
)

// Queue is the bounded normalization queue shared by all stream clients:
// multi-producer, single-consumer. When full, TryPut sheds the incoming item
// and counts the drop rather than blocking the hot ingestion path.
type Queue struct {
	ch      chan *domain.BookUpdate
	dropped atomic.Uint64
	m       *metrics.Metrics
}

// NewQueue creates a Queue with the given capacity. m may be nil.
func NewQueue(capacity int, m *metrics.Metrics) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{
		ch: make(chan *domain.BookUpdate, capacity),
		m:  m,
	}
}

// TryPut enqueues u without blocking. Returns false when the queue is full
// and the item was shed.
func (q *Queue) TryPut(u *domain.BookUpdate) bool {
	select {
	case q.ch <- u:
		return true
	default:
		q.dropped.Add(1)
		if q.m != nil {
			q.m.QueueDropped.Inc()
		}
		return false
	}
}

// Get blocks until an update is available or ctx is cancelled.
func (q *Queue) Get(ctx context.Context) (*domain.BookUpdate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case u := <-q.ch:
		return u, nil
	}
}

// Dropped returns the number of items shed so far.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return len(q.ch)
}
