package sitecrawl

import "context"

// Throttle enforces the politeness pause between consecutive fetches.
type Throttle interface {
	// Wait blocks until the next fetch may start.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error

	// Done marks the end of a fetch. The pause before the next fetch is
	// measured from here.
	Done()
}
