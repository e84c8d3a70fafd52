package repositories

import (
	"context"

	"github.com/rentably/pdc_engine/internal/core/domain"
)

// PDCCache is the read-through cache in front of the registry. Invalidation is
// tied directly to the state machine's write path, not an out-of-band mechanism.
type PDCCache interface {
	Get(ctx context.Context, pdcID string) (*domain.PDC, bool)
	Set(ctx context.Context, pdc domain.PDC)
	Invalidate(ctx context.Context, pdcID string)
}
