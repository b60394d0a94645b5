package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes lineage mutations across replicas sharing one store.
type DistributedLocker interface {
	// Lock blocks until the lock on key (a lineage id) is held or ctx is done.
	// The lock expires after ttl if it is never released. The returned UnlockFunc
	// must be called once the critical section ends.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
