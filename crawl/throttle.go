package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/time/rate"
)

var _ sitecrawl.Throttle = (*Throttle)(nil)

// Throttle pauses for delay between the end of one fetch and the start of
// the next, using a token bucket with a burst of 1 that is drained when a
// fetch completes. The first fetch is never delayed.
type Throttle struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewThrottle creates a Throttle with the given politeness delay.
// A zero or negative delay disables throttling.
func NewThrottle(delay time.Duration) *Throttle {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Throttle{
		limiter: rate.NewLimiter(limit, 1),
		delay:   max(delay, 0),
	}
}

// Delay returns the configured politeness delay.
func (t *Throttle) Delay() time.Duration {
	return t.delay
}

// Wait blocks until the next fetch may start.
// Returns an error if the context is canceled before the wait completes.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.limiter.Wait(ctx)
}

// Done drains the bucket so the next Wait lasts the full delay from now,
// however long the fetch took.
func (t *Throttle) Done() {
	if t.delay == 0 {
		return
	}
	t.limiter = rate.NewLimiter(rate.Every(t.delay), 1)
	t.limiter.Allow()
}
