package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bluele/gcache"

	"dcx/internal/did"
)

// Memory is an in-process LRU cache with per-entry expiry.
type Memory struct {
	lru gcache.Cache
	ttl time.Duration
}

// NewMemory returns an LRU cache of size entries. A non-positive size means 1024.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{
		lru: gcache.New(size).LRU().Expiration(ttl).Build(),
		ttl: ttl,
	}
}

func (m *Memory) Get(_ context.Context, id string) (*did.Document, error) {
	v, err := m.lru.Get(id)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc, ok := v.(*did.Document)
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *Memory) Set(_ context.Context, id string, doc *did.Document) error {
	return m.lru.SetWithExpire(id, doc, m.ttl)
}
