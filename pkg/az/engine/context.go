// Copyright 2025 Veda Platform, Inc.

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veda-platform/az/pkg/az/storage"
	"github.com/veda-platform/az/pkg/logger"
)

var log = logger.Default().WithComponent("engine")

// StatsSink is the subset of the statistics sidecar the engine needs. It
// is defined here (rather than importing pkg/az/stats) so the engine has
// no compile-time dependency on the sidecar's transport.
type StatsSink interface {
	Collect(message string)
	SetDuration(d time.Duration)
	Flush() error
}

// Context is one caller's authorization handle: it owns a storage.Store,
// an optional stats sidecar, and the per-context read counter used for
// diagnostic reopen rotation. Authorize is safe to call concurrently from
// multiple goroutines sharing one Context, the same way multiple threads
// share one AzContext over the same process-wide database handle.
type Context struct {
	Config Config

	store storage.Store
	stats StatsSink

	mu             sync.Mutex
	readCounter    uint64
	maxReadCounter uint64
	lastDuration   time.Duration
}

// New builds a Context over store. maxReadCounter of 0 means "never
// rotate" (matches the spec default of max_read_counter = max).
func New(store storage.Store, maxReadCounter uint64, stats StatsSink) *Context {
	return &Context{
		Config:         DefaultConfig(),
		store:          store,
		stats:          stats,
		maxReadCounter: maxReadCounter,
	}
}

// Authorize computes the access byte granted to userURI on resourceURI. On
// a storage read error it retries the entire decision exactly once before
// surfacing the error. Statistics, if configured, are flushed after every
// call regardless of outcome; a flush failure is logged, never returned.
func (c *Context) Authorize(ctx context.Context, resourceURI, userURI string, requestedAccess uint8, trace *Trace) (uint8, error) {
	c.bumpReadCounter()

	start := time.Now()
	granted, err := c.authorizeWithRetry(ctx, resourceURI, userURI, requestedAccess, trace)

	elapsed := time.Since(start)
	c.mu.Lock()
	c.lastDuration = elapsed
	c.mu.Unlock()

	if c.stats != nil {
		c.stats.SetDuration(elapsed)
		if ferr := c.stats.Flush(); ferr != nil {
			log.Warn("stats flush failed", "error", ferr)
		}
	}

	return granted, err
}

func (c *Context) authorizeWithRetry(ctx context.Context, resourceURI, userURI string, requestedAccess uint8, trace *Trace) (uint8, error) {
	obs := c.observe()

	granted, err := authorizeAt(ctx, c.store, c.Config, resourceURI, userURI, requestedAccess, trace, time.Now().UTC(), obs)
	if err == nil {
		return granted, nil
	}
	if !storage.IsReadError(err) {
		return 0, err
	}

	log.Info("retrying authorization after storage read error", "error", err)
	return authorizeAt(ctx, c.store, c.Config, resourceURI, userURI, requestedAccess, trace, time.Now().UTC(), obs)
}

// observe builds the per-key stats callback from this context's
// configuration: "key/B" when no cache layer is configured, "key/cB" when
// the cache was configured but missed before falling through, "key/C" on a
// cache hit. A bare key with no suffix is never produced.
func (c *Context) observe() observer {
	if c.stats == nil {
		return nil
	}
	cacheConfigured := isCached(c.store)
	return func(key string, res storage.Result) {
		c.stats.Collect(message(key, cacheConfigured, res.FromCache))
	}
}

// isCached reports whether store consults a cache layer before primary,
// so the stats message suffix can distinguish "/B" (no cache configured)
// from "/cB" (cache configured but missed).
func isCached(store storage.Store) bool {
	_, ok := store.(*storage.CachedStore)
	return ok
}

func message(key string, cacheConfigured, fromCache bool) string {
	switch {
	case cacheConfigured && fromCache:
		return key + "/C"
	case cacheConfigured && !fromCache:
		return key + "/cB"
	default:
		return fmt.Sprintf("%s/B", key)
	}
}

// LastDuration returns the wall-clock time taken by the most recent
// Authorize call, for health and metrics reporting. Zero until the first
// call completes.
func (c *Context) LastDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDuration
}

// Store returns the underlying storage.Store, for health checks that need
// to probe the backend directly.
func (c *Context) Store() storage.Store {
	return c.store
}

func (c *Context) bumpReadCounter() {
	if c.maxReadCounter == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readCounter++
	if c.readCounter >= c.maxReadCounter {
		c.readCounter = 0
		// Rebinding to the shared database handle is a no-op in this
		// implementation: the handle is refcounted process-wide and
		// reopening it would just hand back the same pointer. This hook
		// exists for diagnostic rotation, not correctness.
	}
}
