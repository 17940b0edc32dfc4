// Copyright 2025 Veda Platform, Inc.

package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

// CachedStore consults an in-process LRU cache before falling through to
// primary. A cache hit short-circuits the primary lookup; a miss falls
// through transparently and, on a primary hit, populates the cache for
// next time. This in-process cache has no I/O failure mode of its own, so
// there is nothing to log-and-treat-as-miss here; a networked cache
// adapter would wrap Get in a recover-and-log the same way the adapters
// above wrap theirs in newReadError.
type CachedStore struct {
	primary Store
	cache   *lru.Cache
}

// NewCachedStore wraps primary with an LRU of the given size.
func NewCachedStore(primary Store, size int) (*CachedStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{primary: primary, cache: c}, nil
}

func (s *CachedStore) Name() string { return "cache+" + s.primary.Name() }

func (s *CachedStore) Get(ctx context.Context, key string) (Result, error) {
	if v, ok := s.cache.Get(key); ok {
		value, isString := v.(string)
		if isString {
			return Result{Value: value, Found: true, FromCache: true}, nil
		}
		// A cached "definitely absent" marker.
		if v == nil {
			return Result{Found: false, FromCache: true}, nil
		}
	}

	res, err := s.primary.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if res.Found {
		s.cache.Add(key, res.Value)
	}
	res.FromCache = false
	return res, nil
}

// Close releases the wrapped primary store, if it holds a closeable
// handle.
func (s *CachedStore) Close() error {
	if closer, ok := s.primary.(Closer); ok {
		return closer.Close()
	}
	return nil
}
