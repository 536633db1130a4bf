package sink

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingSink) Publish(ctx context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, opp.ID)
	return nil
}

func (r *recordingSink) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.seen))
	copy(out, r.seen)
	return out
}

func TestDispatcherOfferNeverBlocks(t *testing.T) {
	d := NewDispatcher(2, nil, slog.Default())

	require.True(t, d.Offer(domain.Opportunity{ID: "a"}))
	require.True(t, d.Offer(domain.Opportunity{ID: "b"}))

	// Buffer full and nobody consuming; Offer must return immediately.
	done := make(chan bool, 1)
	go func() {
		done <- d.Offer(domain.Opportunity{ID: "c"})
	}()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Offer blocked on a full buffer")
	}
	assert.Equal(t, uint64(1), d.Dropped())
}

func TestDispatcherDrainsBufferOnShutdown(t *testing.T) {
	rec := &recordingSink{}
	d := NewDispatcher(8, nil, slog.Default(), rec)

	require.True(t, d.Offer(domain.Opportunity{ID: "a"}))
	require.True(t, d.Offer(domain.Opportunity{ID: "b"}))
	require.True(t, d.Offer(domain.Opportunity{ID: "c"}))

	// Run with an already-cancelled context: everything buffered must still
	// reach the sink before Run returns.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"a", "b", "c"}, rec.ids())
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	d := NewDispatcher(8, nil, slog.Default(), first, second)

	require.True(t, d.Offer(domain.Opportunity{ID: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = d.Run(ctx)

	assert.Equal(t, []string{"x"}, first.ids())
	assert.Equal(t, []string{"x"}, second.ids())
}

type failingSink struct{}

func (failingSink) Publish(ctx context.Context, opp domain.Opportunity) error {
	return assert.AnError
}

func TestDispatcherSinkFailureDoesNotStopOthers(t *testing.T) {
	rec := &recordingSink{}
	d := NewDispatcher(8, nil, slog.Default(), failingSink{}, rec)

	require.True(t, d.Offer(domain.Opportunity{ID: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = d.Run(ctx)

	assert.Equal(t, []string{"x"}, rec.ids())
}
