// Copyright (c) 2026 Mintara. All rights reserved.

package episode

import (
	"context"
	"time"
)

// # Episode Data Access

// EpisodeRepository defines the data access contract for episodes.
type EpisodeRepository interface {

	/*
		FindByID returns the episode with the given ID, pages included.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Episode: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Episode, error)

	/*
		ListByComic returns all episodes of a comic ordered by episode number.

		Parameters:
		  - context: context.Context
		  - comicID: string

		Returns:
		  - []*Episode: Ordered slice, pages omitted
		  - error: Database retrieval failures
	*/
	ListByComic(context context.Context, comicID string) ([]*Episode, error)

	/*
		Create persists a new episode in draft state.

		Parameters:
		  - context: context.Context
		  - episode: *Episode

		Returns:
		  - error: apperr.ValidationError on duplicate episode number, or
		    persistence failures
	*/
	Create(context context.Context, episode *Episode) error

	/*
		UpdateStatus transitions the episode's lifecycle state and adjusts the
		derived publication fields in one statement.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: Status (target state)
		  - isLive: bool
		  - publishedAt: *time.Time (stamped only when non-nil)

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateStatus(context context.Context, id string, status Status, isLive bool, publishedAt *time.Time) error

	/*
		UpdateRules overwrites the minting rules of an episode.

		Parameters:
		  - context: context.Context
		  - id: string
		  - rules: MintingRules

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateRules(context context.Context, id string, rules MintingRules) error

	/*
		ReserveSupply atomically increments the current supply by quantity,
		but only while the supply cap holds. The guard and the increment are
		one SQL statement so concurrent mints can never pass the cap.

		Parameters:
		  - context: context.Context
		  - id: string
		  - quantity: int

		Returns:
		  - bool: false when the cap would be exceeded (nothing was changed)
		  - error: Persistence failures
	*/
	ReserveSupply(context context.Context, id string, quantity int) (bool, error)

	/*
		ReleaseSupply undoes a prior reservation after a failed ledger call.

		Parameters:
		  - context: context.Context
		  - id: string
		  - quantity: int

		Returns:
		  - error: Persistence failures
	*/
	ReleaseSupply(context context.Context, id string, quantity int) error

	/*
		RecordMint appends mirror rows for freshly minted serials and bumps
		the mint counters, all in one transaction.

		Parameters:
		  - context: context.Context
		  - episodeID: string
		  - records: []MintedNFT (one per serial)
		  - earnings: float64 (mint revenue to add to total earnings)

		Returns:
		  - error: Persistence failures
	*/
	RecordMint(context context.Context, episodeID string, records []MintedNFT, earnings float64) error

	/*
		IncrementStat atomically adds delta to one whitelisted stats counter.

		Parameters:
		  - context: context.Context
		  - id: string
		  - stat: string (one of the Stat* identifiers)
		  - delta: int

		Returns:
		  - error: apperr.ValidationError for unknown counters, or
		    persistence failures
	*/
	IncrementStat(context context.Context, id string, stat string, delta int) error

	/*
		ListRecentlyMinted returns episodes with ledger collections whose last
		mint happened at or after the given instant. Drives reconciliation.

		Parameters:
		  - context: context.Context
		  - since: time.Time

		Returns:
		  - []*Episode: Matching episodes, pages omitted
		  - error: Database retrieval failures
	*/
	ListRecentlyMinted(context context.Context, since time.Time) ([]*Episode, error)

	/*
		RaiseSupply lifts the current supply counter to at least mintedCount.
		The correction is upward only; a counter already at or above the
		ledger's figure is left untouched.

		Parameters:
		  - context: context.Context
		  - id: string
		  - mintedCount: int

		Returns:
		  - error: Persistence failures
	*/
	RaiseSupply(context context.Context, id string, mintedCount int) error
}

// # Mirror Data Access

// MirrorRepository defines the data access contract for the minted-NFT mirror.
type MirrorRepository interface {

	/*
		OwnerAccounts returns the distinct owner accounts holding serials of
		the episode.

		Parameters:
		  - context: context.Context
		  - episodeID: string

		Returns:
		  - []string: Distinct owner account identifiers
		  - error: Database retrieval failures
	*/
	OwnerAccounts(context context.Context, episodeID string) ([]string, error)

	/*
		CountByOwner returns how many serials of the episode the account holds.
		Used to enforce the per-wallet mint cap.

		Parameters:
		  - context: context.Context
		  - episodeID: string
		  - accountID: string

		Returns:
		  - int: Number of serials held
		  - error: Database retrieval failures
	*/
	CountByOwner(context context.Context, episodeID, accountID string) (int, error)

	/*
		CollectionByOwner groups the account's mirror rows per episode.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - []*OwnedCollection: One entry per episode with serials held
		  - error: Database retrieval failures
	*/
	CollectionByOwner(context context.Context, accountID string) ([]*OwnedCollection, error)

	/*
		OwnsAnyOfComic reports whether the account holds at least one serial
		of any episode belonging to the comic. Drives download gating.

		Parameters:
		  - context: context.Context
		  - comicID: string
		  - accountID: string

		Returns:
		  - bool: true when at least one serial is held
		  - error: Database retrieval failures
	*/
	OwnsAnyOfComic(context context.Context, comicID, accountID string) (bool, error)

	/*
		SerialOwner returns the account currently holding one serial.

		Parameters:
		  - context: context.Context
		  - episodeID: string
		  - serialNumber: int64

		Returns:
		  - string: Owner account identifier
		  - error: apperr.NotFound for unknown serials
	*/
	SerialOwner(context context.Context, episodeID string, serialNumber int64) (string, error)

	/*
		UpdateSerialOwner moves a serial to a new owner account after a
		ledger transfer. The mirror row itself is never deleted.

		Parameters:
		  - context: context.Context
		  - episodeID: string
		  - serialNumber: int64
		  - ownerAccount: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateSerialOwner(context context.Context, episodeID string, serialNumber int64, ownerAccount string) error

	/*
		AppendMissing inserts mirror rows that the ledger knows about but the
		mirror does not. Existing rows are left untouched.

		Parameters:
		  - context: context.Context
		  - episodeID: string
		  - records: []MintedNFT

		Returns:
		  - int: Number of rows actually inserted
		  - error: Persistence failures
	*/
	AppendMissing(context context.Context, episodeID string, records []MintedNFT) (int, error)
}
