// Copyright (c) 2026 Mintara. All rights reserved.

package comic

import (
	"context"
)

// # Comic Data Access

// ComicRepository defines the data access contract for the catalogue.
type ComicRepository interface {

	/*
		FindByID returns the comic with the given ID, episode roster included.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Comic: Hydrated aggregate
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Comic, error)

	/*
		FindBySlug returns the comic with the given slug, episode roster
		included.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Comic: Hydrated aggregate
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindBySlug(context context.Context, slug string) (*Comic, error)

	/*
		List returns a filtered, paginated slice of comics and the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Comic: Matching comics, roster omitted
		  - int: Total count matching the filter
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Comic, int, error)

	/*
		Create persists a new comic.

		Parameters:
		  - context: context.Context
		  - comic: *Comic

		Returns:
		  - error: apperr.Conflict on a duplicate slug, persistence failures
	*/
	Create(context context.Context, comic *Comic) error

	/*
		Update overwrites the mutable metadata of a comic.

		Parameters:
		  - context: context.Context
		  - comic: *Comic

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Update(context context.Context, comic *Comic) error

	/*
		UpdateStatus moves the comic to the target publication state.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: Status

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateStatus(context context.Context, id string, status Status) error

	/*
		UpdateDownloads records the gated download bundle URLs.

		Parameters:
		  - context: context.Context
		  - id: string
		  - cbzURL: string (empty leaves the column unchanged)
		  - pdfURL: string (empty leaves the column unchanged)

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateDownloads(context context.Context, id, cbzURL, pdfURL string) error
}
