// Copyright (c) 2026 Mintara. All rights reserved.

package market

import (
	"context"
)

// # Listing Data Access

// ListingRepository defines the data access contract for the marketplace.
type ListingRepository interface {

	/*
		FindByID returns one listing.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Listing: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Listing, error)

	/*
		List returns a filtered, paginated slice of listings and the total
		count.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Listing: Matching listings, newest first
		  - int: Total count matching the filter
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Listing, int, error)

	/*
		Create persists a new active listing.

		Description: The partial unique index on (episodeid, serialnumber)
		over active listings guarantees one live listing per serial.

		Parameters:
		  - context: context.Context
		  - listing: *Listing

		Returns:
		  - error: apperr.Conflict when the serial is already listed,
		    persistence failures
	*/
	Create(context context.Context, listing *Listing) error

	/*
		ClaimStatus atomically moves a listing from one status to another.
		The guard and the update are one statement, so two buyers racing for
		the same listing cannot both win.

		Parameters:
		  - context: context.Context
		  - id: string
		  - from: ListingStatus
		  - to: ListingStatus

		Returns:
		  - bool: false when the listing was not in the expected state
		  - error: Persistence failures
	*/
	ClaimStatus(context context.Context, id string, from, to ListingStatus) (bool, error)

	/*
		RecordBid appends a bid and raises the listing's highest bid, both in
		one transaction. The raise is conditional: a stale bid below the
		current highest loses without side effects.

		Parameters:
		  - context: context.Context
		  - bid: *Bid

		Returns:
		  - bool: false when the bid did not beat the current highest
		  - error: Persistence failures
	*/
	RecordBid(context context.Context, bid *Bid) (bool, error)

	/*
		CreateTransaction appends one settled trade to the history.

		Parameters:
		  - context: context.Context
		  - transaction: *Transaction

		Returns:
		  - error: Persistence failures
	*/
	CreateTransaction(context context.Context, transaction *Transaction) error

	/*
		TradeSummary aggregates the settled trades of an episode.

		Parameters:
		  - context: context.Context
		  - episodeID: string (empty aggregates the whole marketplace)

		Returns:
		  - float64: Total settled volume
		  - int: Number of settled trades
		  - error: Database retrieval failures
	*/
	TradeSummary(context context.Context, episodeID string) (float64, int, error)

	/*
		Active returns every active listing of one episode, or of the whole
		marketplace when episodeID is empty.

		Parameters:
		  - context: context.Context
		  - episodeID: string (empty spans all episodes)

		Returns:
		  - []*Listing: Active listings
		  - error: Database retrieval failures
	*/
	Active(context context.Context, episodeID string) ([]*Listing, error)
}
