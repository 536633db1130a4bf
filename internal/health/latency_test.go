package health

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyTrackerAverage(t *testing.T) {
	tr := NewLatencyTracker(slog.Default())

	tr.Record("binance", 100*time.Millisecond)
	tr.Record("binance", 300*time.Millisecond)

	avg, ok := tr.Average("binance")
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, avg)

	_, ok = tr.Average("coinbase")
	assert.False(t, ok)
}

func TestLatencyTrackerEvictsOldestAtCapacity(t *testing.T) {
	tr := NewLatencyTracker(slog.Default())

	// Fill the window with high samples, then push it full of low ones.
	for i := 0; i < maxSamples; i++ {
		tr.Record("okx", time.Second)
	}
	for i := 0; i < maxSamples; i++ {
		tr.Record("okx", 10*time.Millisecond)
	}

	avg, ok := tr.Average("okx")
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, avg, "window should contain only the recent samples")
}

func TestLatencyTrackerIgnoresNegativeSamples(t *testing.T) {
	tr := NewLatencyTracker(slog.Default())

	tr.Record("binance", -time.Second)
	_, ok := tr.Average("binance")
	assert.False(t, ok)
}

func TestLatencyTrackerSummary(t *testing.T) {
	tr := NewLatencyTracker(slog.Default())
	assert.Equal(t, "latency: waiting for samples", tr.Summary())

	tr.Record("coinbase", 250*time.Millisecond)
	tr.Record("binance", 125*time.Millisecond)

	// Exchanges are listed in sorted order.
	assert.Equal(t, "latency: binance=0.125s | coinbase=0.250s", tr.Summary())
}
