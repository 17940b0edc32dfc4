// Copyright 2025 Veda Platform, Inc.

package storage

import "context"

// Result is the outcome of one Get: whether the key was found, its value,
// and whether it was served from a cache layer. FromCache lets callers
// build the stats sidecar's "/C", "/cB", "/B" suffix without the store
// needing to know about stats at all.
type Result struct {
	Value     string
	Found     bool
	FromCache bool
}

// Store is the read-only key lookup the engine needs. A miss is reported
// as Found=false with a nil error — it is never an error. Implementations
// scope their read transaction to the call and release it before
// returning.
type Store interface {
	Get(ctx context.Context, key string) (Result, error)
	// Name identifies the backend for logs and metrics ("bbolt", "bolt",
	// or "cache+" followed by the wrapped store's name).
	Name() string
}

// Closer is implemented by adapters that hold a handle worth releasing
// explicitly (tests, process shutdown); production callers generally let
// the shared environment registry own the lifetime instead.
type Closer interface {
	Close() error
}
