package redispkg

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// lockKeyPrefix namespaces lease keys in redis.
const lockKeyPrefix = "ACLK:"

// retryDelay is the pause between acquisition attempts within the wait timeout.
const retryDelay = 100 * time.Millisecond

// LockProvider grants named time-bounded leases backed by redsync mutexes.
//
// A lease auto-expires after its hold timeout, so a crashed holder cannot
// block the key forever.
type LockProvider struct {
	rs *redsync.Redsync
}

// NewLockProvider returns a LockProvider on top of the given redis client.
func NewLockProvider(client redis.UniversalClient) *LockProvider {
	pool := goredis.NewPool(client)

	return &LockProvider{rs: redsync.New(pool)}
}

// TryAcquire attempts to obtain exclusive ownership of key, blocking up to wait.
// Once granted, the lease expires after hold unless released earlier via the
// returned callback. It returns a nil callback without error when the key is
// held by someone else.
//
// The callback unlocks the redsync mutex of this grant only. Redsync refuses
// to unlock a key whose stored value belongs to another mutex, so a release
// arriving after the lease expired cannot evict the next holder's lease.
func (p *LockProvider) TryAcquire(ctx context.Context, key string, wait, hold time.Duration) (func(context.Context) error, error) {
	tries := int(wait/retryDelay) + 1

	mutex := p.rs.NewMutex(
		lockKeyPrefix+key,
		redsync.WithExpiry(hold),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(retryDelay),
	)

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}

		var errTaken *redsync.ErrTaken
		if errors.As(err, &errTaken) {
			return nil, nil
		}

		return nil, err
	}

	return func(ctx context.Context) error {
		ok, err := mutex.UnlockContext(ctx)
		if err != nil {
			if errors.Is(err, redsync.ErrLockAlreadyExpired) {
				return nil
			}

			return err
		}

		if !ok {
			// The lease auto-expired or was taken over first.
			return nil
		}

		return nil
	}, nil
}
