package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	"github.com/rentably/pdc_engine/internal/repositories/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPDCCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryPDCCache(time.Minute)

	pdc := domain.PDC{
		PDCID:     "pdc-1",
		TenantRef: "TEN-1",
		Amount:    decimal.NewFromInt(5000),
		Status:    domain.StatusReceived,
		Version:   1,
	}

	_, ok := c.Get(ctx, "pdc-1")
	assert.False(t, ok, "cold cache should miss")

	c.Set(ctx, pdc)
	got, ok := c.Get(ctx, "pdc-1")
	require.True(t, ok)
	assert.Equal(t, pdc, *got)

	// Returned value is a copy, mutating it must not poison the cache
	got.Status = domain.StatusCancelled
	again, ok := c.Get(ctx, "pdc-1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusReceived, again.Status)

	c.Invalidate(ctx, "pdc-1")
	_, ok = c.Get(ctx, "pdc-1")
	assert.False(t, ok, "invalidated entry should miss")
}

func TestInMemoryPDCCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryPDCCache(-time.Second)

	c.Set(ctx, domain.PDC{PDCID: "pdc-1"})
	_, ok := c.Get(ctx, "pdc-1")
	assert.False(t, ok, "expired entry should miss")
}

func TestInMemoryRunLock_MutualExclusion(t *testing.T) {
	ctx := context.Background()
	l := cache.NewInMemoryRunLock()

	acquired, err := l.Acquire(ctx, "2024-03-10", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = l.Acquire(ctx, "2024-03-10", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "held lock should not be re-acquired")

	// A different key is an independent lock
	acquired, err = l.Acquire(ctx, "2024-03-11", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	require.NoError(t, l.Release(ctx, "2024-03-10"))
	acquired, err = l.Acquire(ctx, "2024-03-10", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "released lock should be acquirable")
}

func TestInMemoryRunLock_ExpiredLockIsAcquirable(t *testing.T) {
	ctx := context.Background()
	l := cache.NewInMemoryRunLock()

	acquired, err := l.Acquire(ctx, "2024-03-10", -time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = l.Acquire(ctx, "2024-03-10", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "expired lock should be acquirable")
}
