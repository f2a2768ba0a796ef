package resolver

import (
	"context"
	"errors"
	"log/slog"

	"dcx/internal/did"
	"dcx/internal/did/cache"
	"dcx/internal/platform/metrics"
)

// Cached serves documents from c and fills it from next on a miss.
// Cache failures degrade to a direct resolution.
type Cached struct {
	next    Resolver
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCached wraps next with a read-through cache. m may be nil.
func NewCached(next Resolver, c cache.Cache, m *metrics.Metrics, logger *slog.Logger) *Cached {
	return &Cached{next: next, cache: c, metrics: m, logger: logger}
}

func (c *Cached) Resolve(ctx context.Context, id string) (*did.Document, error) {
	doc, err := c.cache.Get(ctx, id)
	switch {
	case err == nil:
		c.metrics.IncrementCacheHit()
		return doc, nil
	case errors.Is(err, cache.ErrNotFound):
		c.metrics.IncrementCacheMiss()
	default:
		c.metrics.IncrementCacheMiss()
		c.warn(ctx, "did cache read failed", err)
	}

	doc, err = c.next.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, id, doc); err != nil {
		c.warn(ctx, "did cache write failed", err)
	}
	return doc, nil
}

func (c *Cached) warn(ctx context.Context, msg string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "error", err)
	}
}
