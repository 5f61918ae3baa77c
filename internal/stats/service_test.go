// Copyright (c) 2026 Mintara. All rights reserved.

package stats_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/stats"
)

// # Test Doubles

type fakeRepo struct {
	snapshot *stats.Platform
	calls    int
}

func (repo *fakeRepo) Snapshot(context.Context) (*stats.Platform, error) {
	repo.calls++
	return repo.snapshot, nil
}

type fakeCache struct {
	snapshot *stats.Platform
	setErr   error
	lastTTL  time.Duration
}

func (cache *fakeCache) Get(context.Context) (*stats.Platform, error) {
	if cache.snapshot == nil {
		return nil, apperr.NotFound("Platform snapshot")
	}
	return cache.snapshot, nil
}

func (cache *fakeCache) Set(_ context.Context, snapshot *stats.Platform, ttl time.Duration) error {
	if cache.setErr != nil {
		return cache.setErr
	}
	cache.snapshot = snapshot
	cache.lastTTL = ttl
	return nil
}

func newService(repo *fakeRepo, cache *fakeCache) *stats.Service {
	return stats.NewService(repo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Tests

/*
TestPlatform_ColdCacheComputesAndWarms verifies that a cache miss falls
through to the database and warms the cache with the result.
*/
func TestPlatform_ColdCacheComputesAndWarms(t *testing.T) {
	repo := &fakeRepo{snapshot: &stats.Platform{TotalComics: 12, TradedVolume: 340.5, TotalCollectors: 9}}
	cache := &fakeCache{}
	service := newService(repo, cache)

	snapshot, err := service.Platform(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 12, snapshot.TotalComics)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, snapshot, cache.snapshot)
	assert.Equal(t, stats.SnapshotTTL, cache.lastTTL)
}

/*
TestPlatform_WarmCacheSkipsDatabase verifies that a warm cache serves the
snapshot without recomputing.
*/
func TestPlatform_WarmCacheSkipsDatabase(t *testing.T) {
	repo := &fakeRepo{snapshot: &stats.Platform{TotalComics: 99}}
	cache := &fakeCache{snapshot: &stats.Platform{TotalComics: 12}}
	service := newService(repo, cache)

	snapshot, err := service.Platform(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 12, snapshot.TotalComics)
	assert.Zero(t, repo.calls)
}

/*
TestPlatform_CacheWriteFailureDegrades verifies that a failing cache write
does not fail the request.
*/
func TestPlatform_CacheWriteFailureDegrades(t *testing.T) {
	repo := &fakeRepo{snapshot: &stats.Platform{TotalComics: 3}}
	cache := &fakeCache{setErr: apperr.Internal(nil)}
	service := newService(repo, cache)

	snapshot, err := service.Platform(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.TotalComics)
}
