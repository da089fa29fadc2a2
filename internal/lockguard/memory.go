package lockguard

import (
	"context"
	"sync"
	"time"
)

// pollInterval is the pause between acquisition attempts of the memory provider.
const pollInterval = 2 * time.Millisecond

// MemoryProvider is an in-process Provider used in tests and single-node setups.
type MemoryProvider struct {
	mu     sync.Mutex
	lastID uint64
	leases map[string]memoryLease
}

type memoryLease struct {
	id        uint64
	expiresAt time.Time
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{leases: make(map[string]memoryLease)}
}

// TryAcquire implements Provider. It polls until the key is free or wait elapses.
func (p *MemoryProvider) TryAcquire(ctx context.Context, key string, wait, hold time.Duration) (func(context.Context) error, error) {
	deadline := time.Now().Add(wait)

	for {
		if release := p.tryOnce(key, hold); release != nil {
			return release, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *MemoryProvider) tryOnce(key string, hold time.Duration) func(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, held := p.leases[key]
	if held && time.Now().Before(current.expiresAt) {
		return nil
	}

	p.lastID++
	grantID := p.lastID
	p.leases[key] = memoryLease{id: grantID, expiresAt: time.Now().Add(hold)}

	// The release is scoped to this grant: once the lease expires and the key
	// is re-acquired, the stored id differs and the stale release is a no-op.
	return func(ctx context.Context) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		if current, held := p.leases[key]; held && current.id == grantID {
			delete(p.leases, key)
		}

		return nil
	}
}
