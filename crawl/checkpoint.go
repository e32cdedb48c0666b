package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// DefaultRetryDelays returns the backoff delays for checkpoint retries: 100ms, 500ms.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{100 * time.Millisecond, 500 * time.Millisecond}
}

// SaveWithRetry writes a checkpoint of state, retrying a failed write once
// per entry in delays after waiting that long.
// Returns the last error if every attempt fails.
func SaveWithRetry(ctx context.Context, store sitecrawl.StateStore, state *sitecrawl.CrawlState, delays []time.Duration) error {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := store.Save(ctx, state)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
