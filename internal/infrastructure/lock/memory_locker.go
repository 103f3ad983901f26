package lock

import (
	"context"
	"sync"
	"time"

	"github.com/siatbridge/backend/internal/domain/shared"
)

// MemoryLocker implements Locker with an in-process map. Suitable for
// single-instance deployments and testing.
// WARNING: locks are not shared across process instances, which can allow
// concurrent issuance for the same point of sale in distributed deployments
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryLocker creates a new in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]time.Time),
	}
}

// Acquire takes the lock for key unless an unexpired holder exists
func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, held := l.locks[key]; held && now.Before(expires) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)
	return true, nil
}

// Release frees the lock for key. Releasing an unheld lock is a no-op.
func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
	return nil
}

// Ensure MemoryLocker implements Locker
var _ shared.Locker = (*MemoryLocker)(nil)
