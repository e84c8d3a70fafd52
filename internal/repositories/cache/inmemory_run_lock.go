package cache

import (
	"context"
	"sync"
	"time"

	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
)

// InMemoryRunLock guards scheduler runs within a single process. Deployments with
// multiple instances should use the Redis lock instead.
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> expiry
}

var _ portsrepo.RunLockManager = (*InMemoryRunLock)(nil)

func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{locks: make(map[string]time.Time)}
}

func (l *InMemoryRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expiry, held := l.locks[key]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *InMemoryRunLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}
