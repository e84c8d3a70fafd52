package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
)

// InMemoryPDCCache is a TTL map suitable for single-instance deployments and tests.
type InMemoryPDCCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
}

type inMemoryEntry struct {
	pdc       domain.PDC
	expiresAt time.Time
}

var _ portsrepo.PDCCache = (*InMemoryPDCCache)(nil)

// NewInMemoryPDCCache creates a cache with the given entry TTL.
func NewInMemoryPDCCache(ttl time.Duration) *InMemoryPDCCache {
	return &InMemoryPDCCache{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
	}
}

func (c *InMemoryPDCCache) Get(ctx context.Context, pdcID string) (*domain.PDC, bool) {
	c.mu.RLock()
	entry, ok := c.entries[pdcID]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	pdc := entry.pdc
	return &pdc, true
}

func (c *InMemoryPDCCache) Set(ctx context.Context, pdc domain.PDC) {
	c.mu.Lock()
	c.entries[pdc.PDCID] = inMemoryEntry{pdc: pdc, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *InMemoryPDCCache) Invalidate(ctx context.Context, pdcID string) {
	c.mu.Lock()
	delete(c.entries, pdcID)
	c.mu.Unlock()
}
