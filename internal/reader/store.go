// Copyright (c) 2026 Mintara. All rights reserved.

package reader

import (
	"context"
)

// # History Data Access

// HistoryRepository defines the data access contract for reading history.
type HistoryRepository interface {

	/*
		FindByUserAndEpisode returns the user's progress record for one
		episode.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - episodeID: string

		Returns:
		  - *ReadHistory: The progress record
		  - error: apperr.NotFound when the user never opened the episode
	*/
	FindByUserAndEpisode(context context.Context, userID, episodeID string) (*ReadHistory, error)

	/*
		FindByUserAndComic returns the user's whole-comic progress record,
		the one with no episode reference.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - comicID: string

		Returns:
		  - *ReadHistory: The progress record
		  - error: apperr.NotFound when the user never opened the comic
	*/
	FindByUserAndComic(context context.Context, userID, comicID string) (*ReadHistory, error)

	/*
		Create persists a fresh progress record.

		Parameters:
		  - context: context.Context
		  - history: *ReadHistory

		Returns:
		  - error: apperr.Conflict when a record already exists for the
		    (user, episode) pair, or for the (user, comic) pair when the
		    episode reference is nil, persistence failures
	*/
	Create(context context.Context, history *ReadHistory) error

	/*
		UpdateProgress overwrites the page position and derived fields and
		refreshes the last-accessed timestamp.

		Parameters:
		  - context: context.Context
		  - id: string
		  - currentPage: int
		  - percentage: int
		  - completed: bool

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateProgress(context context.Context, id string, currentPage, percentage int, completed bool) error

	/*
		ListByUser returns the user's history ordered by recency.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*ReadHistory: Most recently accessed first
		  - int: Total record count for the user
		  - error: Database retrieval failures
	*/
	ListByUser(context context.Context, userID string, limit, offset int) ([]*ReadHistory, int, error)
}
