package shared

import (
	"context"
	"time"
)

// Locker serializes work on a named resource. Acquire returns true when the
// caller obtained the lock and false when another holder has it. The TTL
// bounds how long a crashed holder can block others.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
