// Copyright (c) 2026 Mintara. All rights reserved.

package stats

import (
	"context"
	"time"
)

// # Aggregate Data Access

// Repository defines the data access contract for platform aggregates.
type Repository interface {

	/*
		Snapshot computes the platform-wide summary from live data.

		Parameters:
		  - context: context.Context

		Returns:
		  - *Platform: Freshly computed aggregates
		  - error: Database retrieval failures
	*/
	Snapshot(context context.Context) (*Platform, error)
}

// SnapshotCache defines the contract for the short-lived snapshot cache.
type SnapshotCache interface {

	/*
		Get returns the cached snapshot, or apperr.NotFound when the cache is
		cold or expired.

		Parameters:
		  - context: context.Context

		Returns:
		  - *Platform: Cached aggregates
		  - error: apperr.NotFound or retrieval failures
	*/
	Get(context context.Context) (*Platform, error)

	/*
		Set stores a snapshot for the given duration.

		Parameters:
		  - context: context.Context
		  - snapshot: *Platform
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, snapshot *Platform, ttl time.Duration) error
}
