package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

func TestQueueShedsNewestWhenFull(t *testing.T) {
	q := NewQueue(2, nil)

	first := &domain.BookUpdate{Exchange: "binance"}
	second := &domain.BookUpdate{Exchange: "coinbase"}
	third := &domain.BookUpdate{Exchange: "okx"}

	require.True(t, q.TryPut(first))
	require.True(t, q.TryPut(second))
	require.False(t, q.TryPut(third), "third put should be shed")

	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 2, q.Len())

	// The queue kept the oldest items, not the shed one.
	got, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "binance", got.Exchange)
}

func TestQueueGetHonorsCancellation(t *testing.T) {
	q := NewQueue(1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := NewQueue(0, nil)
	require.True(t, q.TryPut(&domain.BookUpdate{Exchange: "binance"}))
	assert.Equal(t, uint64(0), q.Dropped())
}
