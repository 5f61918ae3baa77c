// Copyright (c) 2026 Mintara. All rights reserved.

package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mintara/mintara/internal/platform/apperr"
)

// snapshotKey holds the single cached platform snapshot.
const snapshotKey = "stats:platform_snapshot"

// RedisSnapshotCache implements [SnapshotCache] using Redis.
type RedisSnapshotCache struct {
	client *redis.Client
}

// NewSnapshotCache creates a new Redis-backed [SnapshotCache].
func NewSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

/*
Get returns the cached snapshot.

Description: Returns apperr.NotFound when the cache is cold or the entry
has expired; the caller recomputes and re-sets.

Parameters:
  - context: context.Context

Returns:
  - *Platform: Cached aggregates
  - error: apperr.NotFound or connectivity errors
*/
func (cache *RedisSnapshotCache) Get(context context.Context) (*Platform, error) {
	payload, err := cache.client.Get(context, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Platform snapshot")
		}
		return nil, fmt.Errorf("redis_stats_cache_get_failed: %w", err)
	}

	snapshot := &Platform{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, apperr.NotFound("Platform snapshot")
	}

	return snapshot, nil
}

/*
Set stores a snapshot for the given duration.

Parameters:
  - context: context.Context
  - snapshot: *Platform
  - ttl: time.Duration

Returns:
  - error: Serialization or persistence failures
*/
func (cache *RedisSnapshotCache) Set(context context.Context, snapshot *Platform, ttl time.Duration) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis_stats_cache_marshal_failed: %w", err)
	}

	if err := cache.client.Set(context, snapshotKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_stats_cache_set_failed: %w", err)
	}

	return nil
}
