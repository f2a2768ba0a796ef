// Package cache stores resolved DID documents for a bounded time.
package cache

import (
	"context"
	"errors"

	"dcx/internal/did"
)

// ErrNotFound is returned on a cache miss.
var ErrNotFound = errors.New("did document not cached")

// Cache is implemented by Memory and Redis. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, id string) (*did.Document, error)
	Set(ctx context.Context, id string, doc *did.Document) error
}
