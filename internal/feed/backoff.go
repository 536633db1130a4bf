package feed

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes reconnect delays: min(max, 2^attempt seconds) plus up to
// one second of uniform jitter to avoid synchronized retry storms. Each
// stream client owns its own instance, so one exchange's failures never
// influence another's schedule.
type Backoff struct {
	max     time.Duration
	attempt int
}

// NewBackoff creates a Backoff capped at max. A non-positive max falls back
// to 30 seconds.
func NewBackoff(max time.Duration) *Backoff {
	if max <= 0 {
		max = 30 * time.Second
	}
	return &Backoff{max: max}
}

// Next returns the delay for the current attempt and advances the counter.
func (b *Backoff) Next() time.Duration {
	exp := math.Pow(2, float64(b.attempt))
	delay := time.Duration(exp * float64(time.Second))
	if delay > b.max || delay <= 0 {
		delay = b.max
	}
	b.attempt++

	jitter := time.Duration(rand.Float64() * float64(time.Second))
	return delay + jitter
}

// Reset zeroes the attempt counter. Called after every successful connect.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt reports the current attempt counter.
func (b *Backoff) Attempt() int {
	return b.attempt
}
