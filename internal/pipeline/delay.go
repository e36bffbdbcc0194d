package pipeline

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayStrategy decides how long to pause before the next network fetch
type DelayStrategy interface {
	Next() time.Duration
}

// NoDelay never pauses
type NoDelay struct{}

// Next returns zero
func (NoDelay) Next() time.Duration { return 0 }

// RandomDelay draws pauses uniformly from [Min, Max)
type RandomDelay struct {
	Min time.Duration
	Max time.Duration

	float64 func() float64 // [0, 1) source, replaceable in tests
}

// NewRandomDelay creates a uniform random delay in [min, max)
func NewRandomDelay(min, max time.Duration) *RandomDelay {
	return &RandomDelay{Min: min, Max: max, float64: rand.Float64}
}

// Next returns the next pause
func (d *RandomDelay) Next() time.Duration {
	if d.Max <= d.Min {
		return max(d.Min, 0)
	}
	return d.Min + time.Duration(float64(d.Max-d.Min)*d.float64())
}

// sleepCtx sleeps for d unless ctx is done first
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
