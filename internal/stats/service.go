// Copyright (c) 2026 Mintara. All rights reserved.

package stats

import (
	"context"
	"log/slog"
	"time"
)

// SnapshotTTL bounds the staleness of the public platform numbers.
const SnapshotTTL = 60 * time.Second

// # Service Layer

// Service serves the platform summary through a short-lived cache.
type Service struct {
	repository Repository
	cache      SnapshotCache
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(repository Repository, cache SnapshotCache, logger *slog.Logger) *Service {
	return &Service{repository: repository, cache: cache, logger: logger}
}

/*
Platform returns the platform-wide summary.

Description: Serves from the cache when warm; otherwise recomputes from the
database and re-warms the cache. Cache failures degrade to a direct
computation instead of failing the request.

Parameters:
  - context: context.Context

Returns:
  - *Platform: Current aggregates, at most SnapshotTTL stale
  - error: Database retrieval failures
*/
func (service *Service) Platform(context context.Context) (*Platform, error) {
	if snapshot, err := service.cache.Get(context); err == nil {
		return snapshot, nil
	}

	snapshot, err := service.repository.Snapshot(context)
	if err != nil {
		return nil, err
	}

	if err := service.cache.Set(context, snapshot, SnapshotTTL); err != nil {
		service.logger.Warn("stats_cache_warm_failed", slog.Any("error", err))
	}

	return snapshot, nil
}
