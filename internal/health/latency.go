// Package health tracks per-exchange feed latency and periodically narrates
// a summary, so a stalled or lagging venue is visible in the logs long
// before it shows up as missing opportunities.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

const (
	// maxSamples bounds the per-exchange rolling window.
	maxSamples = 50

	summaryInterval = 5 * time.Second
)

// LatencyTracker keeps a fixed-capacity rolling window of observed feed
// latencies per exchange.
type LatencyTracker struct {
	mu      sync.Mutex
	buffers map[string]*deque.Deque[time.Duration]
	logger  *slog.Logger
}

// NewLatencyTracker creates an empty tracker.
func NewLatencyTracker(logger *slog.Logger) *LatencyTracker {
	return &LatencyTracker{
		buffers: make(map[string]*deque.Deque[time.Duration]),
		logger:  logger.With(slog.String("component", "health")),
	}
}

// Record adds one latency sample for an exchange, evicting the oldest sample
// once the window is full. Negative samples (clock skew) are ignored.
func (t *LatencyTracker) Record(exchange string, latency time.Duration) {
	if latency < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	buf, ok := t.buffers[exchange]
	if !ok {
		buf = &deque.Deque[time.Duration]{}
		t.buffers[exchange] = buf
	}
	if buf.Len() >= maxSamples {
		buf.PopFront()
	}
	buf.PushBack(latency)
}

// Average returns the mean latency over the current window. ok is false when
// no samples exist for the exchange.
func (t *LatencyTracker) Average(exchange string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.averageLocked(exchange)
}

func (t *LatencyTracker) averageLocked(exchange string) (time.Duration, bool) {
	buf, ok := t.buffers[exchange]
	if !ok || buf.Len() == 0 {
		return 0, false
	}
	var total time.Duration
	for i := 0; i < buf.Len(); i++ {
		total += buf.At(i)
	}
	return total / time.Duration(buf.Len()), true
}

// Summary renders a one-line latency report across all tracked exchanges.
func (t *LatencyTracker) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.buffers) == 0 {
		return "latency: waiting for samples"
	}

	names := make([]string, 0, len(t.buffers))
	for ex := range t.buffers {
		names = append(names, ex)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, ex := range names {
		if avg, ok := t.averageLocked(ex); ok {
			parts = append(parts, fmt.Sprintf("%s=%.3fs", ex, avg.Seconds()))
		}
	}
	return "latency: " + strings.Join(parts, " | ")
}

// Run logs the summary every few seconds until ctx is cancelled.
func (t *LatencyTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.logger.Info(t.Summary())
		}
	}
}
