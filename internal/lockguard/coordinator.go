// Package lockguard serializes balance mutations on a per-account-number lease.
package lockguard

import (
	"context"
	"sync"
	"time"

	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// Default lease timeouts.
const (
	// DefaultWaitTimeout bounds how long an acquirer blocks waiting for a lease.
	DefaultWaitTimeout = time.Second
	// DefaultHoldTimeout bounds how long an unreleased lease survives a crashed holder.
	DefaultHoldTimeout = 5 * time.Second
)

// Provider grants named time-bounded mutual-exclusion leases.
//
// TryAcquire blocks up to wait and returns the release callback of the granted
// lease, or nil when the key stayed held by someone else for the whole wait.
// A granted lease auto-expires after hold unless released. The callback is
// scoped to its own grant: invoking it after the lease expired and the key was
// re-acquired must leave the new holder's lease intact.
type Provider interface {
	TryAcquire(ctx context.Context, key string, wait, hold time.Duration) (func(context.Context) error, error)
}

// Coordinator acquires and releases leases for account numbers,
// translating provider failures into domain.ErrLockUnavailable.
type Coordinator struct {
	provider Provider
	wait     time.Duration
	hold     time.Duration
}

// NewCoordinator returns a Coordinator with the given timeouts.
// Non-positive timeouts fall back to the defaults.
func NewCoordinator(p Provider, wait, hold time.Duration) *Coordinator {
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}

	if hold <= 0 {
		hold = DefaultHoldTimeout
	}

	return &Coordinator{
		provider: p,
		wait:     wait,
		hold:     hold,
	}
}

// Acquire obtains an exclusive lease for the given account number.
// Both a timed-out wait and a provider error surface as domain.ErrLockUnavailable.
func (c *Coordinator) Acquire(ctx context.Context, key string) (*Lease, error) {
	l := zerolog.Ctx(ctx)

	release, err := c.provider.TryAcquire(ctx, key, c.wait, c.hold)
	if err != nil {
		l.Error().Err(err).Str("lock_key", key).Msg("lease acquisition failed")
		return nil, domain.ErrLockUnavailable
	}

	if release == nil {
		l.Info().Str("lock_key", key).Msg("lease unavailable")
		return nil, domain.ErrLockUnavailable
	}

	return &Lease{key: key, release: release}, nil
}

// Lease is an exclusively-held token for one account number.
type Lease struct {
	key     string
	release func(context.Context) error
	once    sync.Once
}

// Release returns the lease to the provider. It is idempotent: releasing twice,
// or releasing a lease the provider already auto-expired, never raises.
func (l *Lease) Release(ctx context.Context) {
	if l == nil || l.release == nil {
		return
	}

	l.once.Do(func() {
		if err := l.release(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("lock_key", l.key).Msg("lease release failed")
		}
	})
}
