// Package poll provides the cooperative poll-with-backoff loop used on both
// sides of the shared-memory channels.
package poll

import (
	"context"
	"time"
)

// DefaultInterval is the backoff between polls when a channel is not in the
// expected state.
const DefaultInterval = time.Millisecond

// Poller sleeps a fixed interval between attempts. Call sites go through
// Until or Sleep so that a blocking primitive can replace it later.
type Poller struct {
	Interval time.Duration
}

// New creates a Poller. Non-positive intervals fall back to DefaultInterval.
func New(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{Interval: interval}
}

// Sleep waits one interval. It returns ctx.Err() if the context ends first.
func (p *Poller) Sleep(ctx context.Context) error {
	t := time.NewTimer(p.interval())
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Until calls fn until it reports done or returns an error, sleeping one
// interval between calls.
func (p *Poller) Until(ctx context.Context, fn func() (done bool, err error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if err := p.Sleep(ctx); err != nil {
			return err
		}
	}
}

func (p *Poller) interval() time.Duration {
	if p == nil || p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}
