// Copyright 2025 Veda Platform, Inc.

package storage

import (
	"context"
	"os"
	"sync"
	"time"
)

const openRetryInterval = 3 * time.Second

// envRegistry is a process-wide path -> opened-handle map with "init once,
// reuse, refcount" semantics, generic over the concrete driver handle type
// (*bbolt.DB or *bolt.DB) so both adapters share one implementation. The
// engine never sees the handle directly; adapters hand out scoped
// transactions built from it.
type envRegistry[T any] struct {
	mu      sync.Mutex
	entries map[string]*envEntry[T]
}

type envEntry[T any] struct {
	handle *T
	refs   int
}

func newEnvRegistry[T any]() *envRegistry[T] {
	return &envRegistry[T]{entries: make(map[string]*envEntry[T])}
}

// acquire returns the shared handle for path, opening it if this is the
// first caller. If the path does not exist yet, or open fails, it retries
// every 3s until open succeeds or ctx is done. The returned release func
// must be called exactly once when the caller is done with the handle.
func (r *envRegistry[T]) acquire(ctx context.Context, path string, open func(string) (*T, error)) (handle *T, release func(), err error) {
	r.mu.Lock()
	if e, ok := r.entries[path]; ok {
		e.refs++
		r.mu.Unlock()
		return e.handle, func() { r.unref(path) }, nil
	}
	r.mu.Unlock()

	h, err := openWithRetry(ctx, path, open)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	if e, ok := r.entries[path]; ok {
		// Lost the race with another opener; keep theirs, discard ours.
		e.refs++
		r.mu.Unlock()
		if closer, ok := any(h).(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return e.handle, func() { r.unref(path) }, nil
	}
	r.entries[path] = &envEntry[T]{handle: h, refs: 1}
	r.mu.Unlock()

	return h, func() { r.unref(path) }, nil
}

func (r *envRegistry[T]) unref(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[path]
	if !ok {
		return
	}
	e.refs--
	// The handle stays open even at refs==0: it is a process-wide mmap
	// cache, not a per-caller resource, and reopening it is the expensive
	// part this registry exists to avoid. reset() is the only way to
	// actually close it (tests only).
}

// reset closes every open handle and empties the registry. It exists for
// tests that need a clean environment between cases; production code never
// calls it.
func (r *envRegistry[T]) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, e := range r.entries {
		if closer, ok := any(e.handle).(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		delete(r.entries, path)
	}
}

func openWithRetry[T any](ctx context.Context, path string, open func(string) (*T, error)) (*T, error) {
	for {
		if _, statErr := os.Stat(path); statErr != nil {
			log.Warn("database file does not exist, retrying", "path", path)
			if !sleepOrDone(ctx) {
				return nil, ctx.Err()
			}
			continue
		}

		h, err := open(path)
		if err == nil {
			return h, nil
		}

		log.Error("error opening environment, retrying", "path", path, "error", err)
		if !sleepOrDone(ctx) {
			return nil, newUnavailableError(err)
		}
	}
}

func sleepOrDone(ctx context.Context) bool {
	t := time.NewTimer(openRetryInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
