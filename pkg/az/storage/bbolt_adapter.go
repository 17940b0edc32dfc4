// Copyright 2025 Veda Platform, Inc.

package storage

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/veda-platform/az/pkg/logger"
)

var log = logger.Default().WithComponent("storage")

// bucketName is the single bucket the engine reads from. Writers in the
// sibling subsystem own bucket layout; this adapter only ever opens it
// read-only.
const bucketName = "acl"

var bboltEnvs = newEnvRegistry[bolt.DB]()

// BboltStore is the primary adapter, backed by the pure-Go bbolt fork of
// LMDB-style mmap B+-trees. One shared *bolt.DB is cached per path across
// every BboltStore instance in the process; opening a second store for the
// same path reuses the handle instead of remapping the file.
type BboltStore struct {
	db      *bolt.DB
	release func()
}

// OpenBboltStore opens (or reuses) the shared environment at path. It
// blocks, retrying every 3s, until the file exists and opens successfully,
// or ctx is cancelled.
func OpenBboltStore(ctx context.Context, path string) (*BboltStore, error) {
	db, release, err := bboltEnvs.acquire(ctx, path, func(p string) (*bolt.DB, error) {
		return bolt.Open(p, 0o600, nil)
	})
	if err != nil {
		return nil, err
	}
	return &BboltStore{db: db, release: release}, nil
}

func (s *BboltStore) Name() string { return "bbolt" }

// Get opens one read transaction scoped to this call and releases it
// before returning, per the engine's "no transaction outlives a call"
// requirement.
func (s *BboltStore) Get(_ context.Context, key string) (Result, error) {
	var res Result

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		res.Found = true
		res.Value = string(v)
		return nil
	})
	if err != nil {
		return Result{}, newReadError(key, err)
	}
	return res, nil
}

// Close releases this store's reference on the shared environment. It
// does not necessarily close the underlying file — the environment is
// process-wide and outlives any single caller.
func (s *BboltStore) Close() error {
	if s.release != nil {
		s.release()
	}
	return nil
}

// ResetBboltEnvs closes every shared bbolt environment. Tests only.
func ResetBboltEnvs() { bboltEnvs.reset() }
