package repositories

import (
	"context"
	"time"
)

// RunLockManager guards a scheduled run so that exactly one process instance
// executes it. Losing the lock never corrupts state (transitions are guarded
// individually); it only prevents duplicate tenant-facing reminders.
type RunLockManager interface {
	// Acquire takes the lock for key, returning false if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for key.
	Release(ctx context.Context, key string) error
}
