package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.Throttle = (*Throttle)(nil)

// Throttle is a mock implementation of sitecrawl.Throttle.
type Throttle struct {
	WaitFn func(ctx context.Context) error
	DoneFn func()
}

func (t *Throttle) Wait(ctx context.Context) error {
	return t.WaitFn(ctx)
}

func (t *Throttle) Done() {
	t.DoneFn()
}
