// Copyright 2025 Veda Platform, Inc.

package storage

import (
	"context"

	legacybolt "github.com/boltdb/bolt"
)

var legacyEnvs = newEnvRegistry[legacybolt.DB]()

// LegacyStore is the alternate adapter, backed by the original
// (unmaintained) boltdb/bolt rather than its bbolt successor. It exists so
// deployments that still ship the older on-disk format can be read without
// a migration step; selection between BboltStore and LegacyStore happens
// at configuration time (see pkg/config). Both share the same Store
// interface and the same rich Error shape — no numeric-code or bare
// io.Error fallback is reintroduced for this path either.
type LegacyStore struct {
	db      *legacybolt.DB
	release func()
}

// OpenLegacyStore opens (or reuses) the shared legacy environment at path,
// with the same existence-polling retry behavior as OpenBboltStore.
func OpenLegacyStore(ctx context.Context, path string) (*LegacyStore, error) {
	db, release, err := legacyEnvs.acquire(ctx, path, func(p string) (*legacybolt.DB, error) {
		return legacybolt.Open(p, 0o600, nil)
	})
	if err != nil {
		return nil, err
	}
	return &LegacyStore{db: db, release: release}, nil
}

func (s *LegacyStore) Name() string { return "bolt" }

func (s *LegacyStore) Get(_ context.Context, key string) (Result, error) {
	var res Result

	err := s.db.View(func(tx *legacybolt.Tx) error {
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

func (s *LegacyStore) Close() error {
	if s.release != nil {
		s.release()
	}
	return nil
}

// ResetLegacyEnvs closes every shared legacy environment. Tests only.
func ResetLegacyEnvs() { legacyEnvs.reset() }
