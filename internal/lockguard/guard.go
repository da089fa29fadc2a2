package lockguard

import (
	"context"
)

// Leaser provides lease acquisition interface needed by the guard.
type Leaser interface {
	Acquire(ctx context.Context, key string) (*Lease, error)
}

// Guard executes operations under an account-number lease.
type Guard struct {
	leaser Leaser
}

// NewGuard returns a Guard on top of the given lease coordinator.
func NewGuard(l Leaser) *Guard {
	return &Guard{leaser: l}
}

// Do runs fn while holding the lease for key and releases the lease on every
// exit path, including an error or panic raised by fn. If acquisition fails,
// fn is never invoked and the acquisition error propagates unchanged.
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lease, err := g.leaser.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer lease.Release(ctx)

	return fn(ctx)
}
