// Copyright 2025 Veda Platform, Inc.

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data  map[string]string
	calls int
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Get(_ context.Context, key string) (Result, error) {
	f.calls++
	v, ok := f.data[key]
	return Result{Value: v, Found: ok}, nil
}

func TestCachedStore_MissFallsThroughAndPopulates(t *testing.T) {
	primary := &fakeStore{data: map[string]string{"k": "v"}}
	cached, err := NewCachedStore(primary, 16)
	require.NoError(t, err)

	res, err := cached.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, primary.calls)

	res, err = cached.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, primary.calls, "second get should be served from cache, not primary")
}

func TestCachedStore_PrimaryMissNotCached(t *testing.T) {
	primary := &fakeStore{data: map[string]string{}}
	cached, err := NewCachedStore(primary, 16)
	require.NoError(t, err)

	res, err := cached.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = cached.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 2, primary.calls, "uncached miss should consult primary every time")
}
