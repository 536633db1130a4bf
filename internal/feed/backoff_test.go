package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsExponentially(t *testing.T) {
	b := NewBackoff(30 * time.Second)

	for i, base := range []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	} {
		d := b.Next()
		assert.GreaterOrEqual(t, d, base, "attempt %d", i)
		assert.Less(t, d, base+time.Second, "attempt %d jitter bound", i)
	}
}

func TestBackoffCapsAtMax(t *testing.T) {
	b := NewBackoff(30 * time.Second)

	for i := 0; i < 10; i++ {
		b.Next()
	}
	d := b.Next()
	require.GreaterOrEqual(t, d, 30*time.Second)
	require.Less(t, d, 31*time.Second)
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(30 * time.Second)

	b.Next()
	b.Next()
	require.Equal(t, 2, b.Attempt())

	b.Reset()
	require.Equal(t, 0, b.Attempt())

	d := b.Next()
	assert.GreaterOrEqual(t, d, time.Second)
	assert.Less(t, d, 2*time.Second)
}

func TestBackoffDefaultMax(t *testing.T) {
	b := NewBackoff(0)
	for i := 0; i < 10; i++ {
		b.Next()
	}
	d := b.Next()
	assert.Less(t, d, 31*time.Second)
}
