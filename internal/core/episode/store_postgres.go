// Copyright (c) 2026 Mintara. All rights reserved.

/*
PostgreSQL implementation of the episode and mirror repositories.

Supply and stats mutations are expressed as single-statement atomic updates
(increment-in-place with an embedded guard) rather than read-modify-write in
application code, so concurrent mints cannot corrupt counters or pass the
supply cap.
*/
package episode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/database/schema"
	"github.com/mintara/mintara/internal/platform/dberr"
)

// # Episode Repository

// episodeRepository implements the [EpisodeRepository] interface using pgx.
type episodeRepository struct {
	pool *pgxpool.Pool
}

// NewEpisodeRepository constructs a PostgreSQL backed episode store.
func NewEpisodeRepository(pool *pgxpool.Pool) EpisodeRepository {
	return &episodeRepository{pool: pool}
}

// episodeColumns is the SELECT list shared by the lookup queries.
func episodeColumns(prefix string) string {
	t := schema.CoreEpisode
	cols := t.Columns()
	list := ""
	for index, col := range cols {
		if index > 0 {
			list += ", "
		}
		list += prefix + col
	}
	return list
}

// scanEpisode hydrates one row into an [Episode].
func scanEpisode(row pgx.Row) (*Episode, error) {
	episode := &Episode{}
	var pagesJSON []byte

	err := row.Scan(
		&episode.ID,
		&episode.ComicID,
		&episode.EpisodeNumber,
		&episode.Title,
		&episode.Description,
		&episode.CollectionTokenID,
		&episode.CoverHash,
		&episode.CoverURL,
		&pagesJSON,
		&episode.PageCount,
		&episode.Pricing.MintPrice,
		&episode.Pricing.ReadPrice,
		&episode.Pricing.Currency,
		&episode.Supply.Max,
		&episode.Supply.Current,
		&episode.Supply.Burned,
		&episode.Rules.Enabled,
		&episode.Rules.StartTime,
		&episode.Rules.EndTime,
		&episode.Rules.MaxPerWallet,
		&episode.Rules.WhitelistOnly,
		&episode.Rules.Whitelist,
		&episode.Stats.TotalMinted,
		&episode.Stats.TotalReads,
		&episode.Stats.TotalEarnings,
		&episode.Stats.UniqueReaders,
		&episode.Stats.AverageRating,
		&episode.Stats.TotalRatings,
		&episode.Status,
		&episode.IsLive,
		&episode.IsFree,
		&episode.AccessType,
		&episode.PublishedAt,
		&episode.LastMintedAt,
		&episode.CreatedAt,
		&episode.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(pagesJSON, &episode.Pages); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal episode pages: %w", err)
	}

	return episode, nil
}

/*
FindByID retrieves an episode by its primary key, pages included.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Episode: The fully hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *episodeRepository) FindByID(context context.Context, id string) (*Episode, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		episodeColumns(""), schema.CoreEpisode.Table, schema.CoreEpisode.ID)

	episode, err := scanEpisode(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Episode")
		}
		return nil, fmt.Errorf("postgres: failed to find episode by id: %w", err)
	}

	return episode, nil
}

/*
ListByComic returns every episode of a comic ordered by episode number.

Description: Pages are replaced with an empty JSON array in the projection;
the roster view never needs page content and the column can be large.

Parameters:
  - context: context.Context
  - comicID: string

Returns:
  - []*Episode: Ordered roster
  - error: Execution errors
*/
func (repository *episodeRepository) ListByComic(context context.Context, comicID string) ([]*Episode, error) {
	t := schema.CoreEpisode
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, '[]'::jsonb, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC`,
		t.ID, t.ComicID, t.EpisodeNumber, t.Title, t.Description,
		t.CollectionTokenID, t.CoverHash, t.CoverURL, t.PageCount,
		t.MintPrice, t.ReadPrice, t.Currency, t.MaxSupply, t.CurrentSupply, t.Burned,
		t.MintEnabled, t.MintStart, t.MintEnd, t.MaxPerWallet, t.WhitelistOnly, t.Whitelist,
		t.TotalMinted, t.TotalReads, t.TotalEarnings, t.UniqueReaders, t.AverageRating, t.TotalRatings,
		t.Status, t.IsLive, t.IsFree, t.AccessType, t.PublishedAt, t.LastMintedAt, t.CreatedAt, t.UpdatedAt,
		t.Table,
		t.ComicID,
		t.EpisodeNumber,
	)

	rows, err := repository.pool.Query(context, query, comicID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}

	return episodes, rows.Err()
}

/*
Create persists a new draft episode.

Description: The unique (comicid, episodenumber) index backs the invariant
that no two episodes of one comic share a number; violations surface as a
validation error rather than a raw constraint message.

Parameters:
  - context: context.Context
  - episode: *Episode

Returns:
  - error: apperr.ValidationError on duplicate number, execution errors
*/
func (repository *episodeRepository) Create(context context.Context, episode *Episode) error {
	t := schema.CoreEpisode

	pagesJSON, err := json.Marshal(episode.Pages)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal episode pages: %w", err)
	}

	now := time.Now()
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = now
	}
	episode.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22,
			$23, $24, $25, $26, $27, $28
		)`,
		t.Table,
		t.ID, t.ComicID, t.EpisodeNumber, t.Title, t.Description,
		t.CollectionTokenID, t.CoverHash, t.CoverURL, t.Pages, t.PageCount,
		t.MintPrice, t.ReadPrice, t.Currency, t.MaxSupply, t.CurrentSupply, t.Burned,
		t.MintEnabled, t.MintStart, t.MintEnd, t.MaxPerWallet, t.WhitelistOnly, t.Whitelist,
		t.Status, t.IsLive, t.IsFree, t.AccessType, t.CreatedAt, t.UpdatedAt,
	)

	_, err = repository.pool.Exec(context, query,
		episode.ID,
		episode.ComicID,
		episode.EpisodeNumber,
		episode.Title,
		episode.Description,
		episode.CollectionTokenID,
		episode.CoverHash,
		episode.CoverURL,
		pagesJSON,
		episode.PageCount,
		episode.Pricing.MintPrice,
		episode.Pricing.ReadPrice,
		episode.Pricing.Currency,
		episode.Supply.Max,
		episode.Supply.Current,
		episode.Supply.Burned,
		episode.Rules.Enabled,
		episode.Rules.StartTime,
		episode.Rules.EndTime,
		episode.Rules.MaxPerWallet,
		episode.Rules.WhitelistOnly,
		episode.Rules.Whitelist,
		episode.Status,
		episode.IsLive,
		episode.IsFree,
		episode.AccessType,
		episode.CreatedAt,
		episode.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.ValidationError("Episode number already exists for this comic")
		}
		return fmt.Errorf("postgres: failed to create episode: %w", err)
	}

	return nil
}

/*
UpdateStatus transitions the lifecycle state in one statement.

Parameters:
  - context: context.Context
  - id: string
  - status: Status
  - isLive: bool
  - publishedAt: *time.Time (only stamped when non-nil)

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *episodeRepository) UpdateStatus(context context.Context, id string, status Status, isLive bool, publishedAt *time.Time) error {
	t := schema.CoreEpisode

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = COALESCE($4, %s), %s = NOW()
		WHERE %s = $1`,
		t.Table,
		t.Status, t.IsLive, t.PublishedAt, t.PublishedAt, t.UpdatedAt,
		t.ID,
	)

	result, err := repository.pool.Exec(context, query, id, status, isLive, publishedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to update episode status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Episode")
	}

	return nil
}

/*
UpdateRules overwrites the minting rules of an episode.

Parameters:
  - context: context.Context
  - id: string
  - rules: MintingRules

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *episodeRepository) UpdateRules(context context.Context, id string, rules MintingRules) error {
	t := schema.CoreEpisode

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1`,
		t.Table,
		t.MintEnabled, t.MintStart, t.MintEnd, t.MaxPerWallet, t.WhitelistOnly, t.Whitelist, t.UpdatedAt,
		t.ID,
	)

	whitelist := rules.Whitelist
	if whitelist == nil {
		whitelist = []string{}
	}

	result, err := repository.pool.Exec(context, query, id,
		rules.Enabled, rules.StartTime, rules.EndTime,
		rules.MaxPerWallet, rules.WhitelistOnly, whitelist,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update minting rules: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Episode")
	}

	return nil
}

/*
ReserveSupply performs the atomic supply gate.

Description: The cap check and the increment are one SQL statement. Under
concurrency, Postgres serialises the row update, so of two mints racing for
the last serial exactly one sees the guard hold.

Parameters:
  - context: context.Context
  - id: string
  - quantity: int

Returns:
  - bool: false when the cap would be exceeded
  - error: Execution errors
*/
func (repository *episodeRepository) ReserveSupply(context context.Context, id string, quantity int) (bool, error) {
	t := schema.CoreEpisode

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + $2, %s = NOW()
		WHERE %s = $1
		  AND (%s = 0 OR %s + %s + $2 <= %s)`,
		t.Table,
		t.CurrentSupply, t.CurrentSupply, t.UpdatedAt,
		t.ID,
		t.MaxSupply, t.CurrentSupply, t.Burned, t.MaxSupply,
	)

	result, err := repository.pool.Exec(context, query, id, quantity)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to reserve supply: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

/*
ReleaseSupply undoes a reservation after a failed ledger call.

Parameters:
  - context: context.Context
  - id: string
  - quantity: int

Returns:
  - error: Execution errors
*/
func (repository *episodeRepository) ReleaseSupply(context context.Context, id string, quantity int) error {
	t := schema.CoreEpisode

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = GREATEST(%s - $2, 0), %s = NOW()
		WHERE %s = $1`,
		t.Table,
		t.CurrentSupply, t.CurrentSupply, t.UpdatedAt,
		t.ID,
	)

	if _, err := repository.pool.Exec(context, query, id, quantity); err != nil {
		return fmt.Errorf("postgres: failed to release supply: %w", err)
	}

	return nil
}

/*
RecordMint appends mirror rows and bumps the mint counters transactionally.

Description: Uses a pgx.Batch for the mirror inserts to keep the round-trip
count flat regardless of quantity. Supply was already reserved; this only
records ledger truth and revenue.

Parameters:
  - context: context.Context
  - episodeID: string
  - records: []MintedNFT
  - earnings: float64

Returns:
  - error: Execution errors
*/
func (repository *episodeRepository) RecordMint(context context.Context, episodeID string, records []MintedNFT, earnings float64) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin mint transaction: %w", err)
	}
	defer transaction.Rollback(context)

	m := schema.CoreMintedNFT
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s, %s) DO NOTHING`,
		m.Table, m.ID, m.EpisodeID, m.SerialNumber, m.OwnerAccount, m.MintedAt, m.TransactionID,
		m.EpisodeID, m.SerialNumber,
	)

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(insertQuery,
			record.ID, record.EpisodeID, record.SerialNumber,
			record.OwnerAccount, record.MintedAt, record.TransactionID,
		)
	}

	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return fmt.Errorf("postgres: failed to append mirror rows: %w", err)
	}

	t := schema.CoreEpisode
	counterQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + $2, %s = %s + $3, %s = $4, %s = NOW()
		WHERE %s = $1`,
		t.Table,
		t.TotalMinted, t.TotalMinted, t.TotalEarnings, t.TotalEarnings, t.LastMintedAt, t.UpdatedAt,
		t.ID,
	)

	if _, err := transaction.Exec(context, counterQuery, episodeID, len(records), earnings, time.Now()); err != nil {
		return fmt.Errorf("postgres: failed to bump mint counters: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit mint transaction: %w", err)
	}

	return nil
}

/*
IncrementStat atomically adds delta to one whitelisted stats counter.

Parameters:
  - context: context.Context
  - id: string
  - stat: string (one of the Stat* identifiers)
  - delta: int

Returns:
  - error: apperr.ValidationError for unknown counters, execution errors
*/
func (repository *episodeRepository) IncrementStat(context context.Context, id string, stat string, delta int) error {
	t := schema.CoreEpisode

	var column string
	switch stat {
	case StatTotalReads:
		column = t.TotalReads
	case StatUniqueReaders:
		column = t.UniqueReaders
	case StatTotalRatings:
		column = t.TotalRatings
	default:
		return apperr.ValidationError(fmt.Sprintf("Unknown stat counter %q", stat))
	}

	query := fmt.Sprintf("UPDATE %s SET %s = %s + $1 WHERE %s = $2",
		t.Table, column, column, t.ID)

	if _, err := repository.pool.Exec(context, query, delta, id); err != nil {
		return fmt.Errorf("postgres: failed to increment %s: %w", stat, err)
	}

	return nil
}

/*
ListRecentlyMinted returns episodes whose last mint happened at or after the
given instant.

Description: Pages are replaced with an empty JSON array; reconciliation
only needs the collection token and the counters. Episodes without a ledger
collection are skipped.

Parameters:
  - context: context.Context
  - since: time.Time

Returns:
  - []*Episode: Matching episodes
  - error: Execution errors
*/
func (repository *episodeRepository) ListRecentlyMinted(context context.Context, since time.Time) ([]*Episode, error) {
	t := schema.CoreEpisode
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, '[]'::jsonb, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s >= $1 AND %s != ''`,
		t.ID, t.ComicID, t.EpisodeNumber, t.Title, t.Description,
		t.CollectionTokenID, t.CoverHash, t.CoverURL, t.PageCount,
		t.MintPrice, t.ReadPrice, t.Currency, t.MaxSupply, t.CurrentSupply, t.Burned,
		t.MintEnabled, t.MintStart, t.MintEnd, t.MaxPerWallet, t.WhitelistOnly, t.Whitelist,
		t.TotalMinted, t.TotalReads, t.TotalEarnings, t.UniqueReaders, t.AverageRating, t.TotalRatings,
		t.Status, t.IsLive, t.IsFree, t.AccessType, t.PublishedAt, t.LastMintedAt, t.CreatedAt, t.UpdatedAt,
		t.Table,
		t.LastMintedAt, t.CollectionTokenID,
	)

	rows, err := repository.pool.Query(context, query, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list recently minted episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}

	return episodes, rows.Err()
}

/*
RaiseSupply lifts the current supply counter to at least mintedCount.

Description: GREATEST keeps the correction upward only; reconciliation may
add serials the mirror missed but never shrinks a counter that is ahead of
a stale ledger read.

Parameters:
  - context: context.Context
  - id: string
  - mintedCount: int

Returns:
  - error: Execution errors
*/
func (repository *episodeRepository) RaiseSupply(context context.Context, id string, mintedCount int) error {
	t := schema.CoreEpisode

	query := fmt.Sprintf("UPDATE %s SET %s = GREATEST(%s, $1), %s = GREATEST(%s, $1) WHERE %s = $2",
		t.Table, t.CurrentSupply, t.CurrentSupply, t.TotalMinted, t.TotalMinted, t.ID)

	if _, err := repository.pool.Exec(context, query, mintedCount, id); err != nil {
		return fmt.Errorf("postgres: failed to raise supply: %w", err)
	}

	return nil
}

// # Mirror Repository

// mirrorRepository implements the [MirrorRepository] interface using pgx.
type mirrorRepository struct {
	pool *pgxpool.Pool
}

// NewMirrorRepository constructs a PostgreSQL backed mirror store.
func NewMirrorRepository(pool *pgxpool.Pool) MirrorRepository {
	return &mirrorRepository{pool: pool}
}

/*
OwnerAccounts returns the distinct owner accounts of an episode's serials.

Parameters:
  - context: context.Context
  - episodeID: string

Returns:
  - []string: Distinct account identifiers
  - error: Execution errors
*/
func (repository *mirrorRepository) OwnerAccounts(context context.Context, episodeID string) ([]string, error) {
	m := schema.CoreMintedNFT

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s = $1",
		m.OwnerAccount, m.Table, m.EpisodeID)

	rows, err := repository.pool.Query(context, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query mirror owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan mirror owner: %w", err)
		}
		owners = append(owners, owner)
	}

	return owners, rows.Err()
}

/*
CountByOwner counts serials of an episode held by one account.

Parameters:
  - context: context.Context
  - episodeID: string
  - accountID: string

Returns:
  - int: Held serial count
  - error: Execution errors
*/
func (repository *mirrorRepository) CountByOwner(context context.Context, episodeID, accountID string) (int, error) {
	m := schema.CoreMintedNFT

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2",
		m.Table, m.EpisodeID, m.OwnerAccount)

	var count int
	if err := repository.pool.QueryRow(context, query, episodeID, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: failed to count owner serials: %w", err)
	}

	return count, nil
}

/*
CollectionByOwner groups an account's mirror rows per episode.

Description: Joins the episode table for display metadata and aggregates
serial numbers into an ordered array in a single round-trip.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - []*OwnedCollection: One entry per episode
  - error: Execution errors
*/
func (repository *mirrorRepository) CollectionByOwner(context context.Context, accountID string) ([]*OwnedCollection, error) {
	m := schema.CoreMintedNFT
	t := schema.CoreEpisode

	query := fmt.Sprintf(`
		SELECT e.%s, e.%s, e.%s, e.%s, e.%s,
			array_agg(n.%s ORDER BY n.%s) AS serials,
			COUNT(*) AS quantity
		FROM %s n
		JOIN %s e ON e.%s = n.%s
		WHERE n.%s = $1
		GROUP BY e.%s, e.%s, e.%s, e.%s, e.%s
		ORDER BY MAX(n.%s) DESC`,
		t.ID, t.ComicID, t.Title, t.EpisodeNumber, t.CoverURL,
		m.SerialNumber, m.SerialNumber,
		m.Table,
		t.Table, t.ID, m.EpisodeID,
		m.OwnerAccount,
		t.ID, t.ComicID, t.Title, t.EpisodeNumber, t.CoverURL,
		m.MintedAt,
	)

	rows, err := repository.pool.Query(context, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query collection: %w", err)
	}
	defer rows.Close()

	var collection []*OwnedCollection
	for rows.Next() {
		entry := &OwnedCollection{}
		err := rows.Scan(
			&entry.EpisodeID,
			&entry.ComicID,
			&entry.EpisodeTitle,
			&entry.EpisodeNumber,
			&entry.CoverURL,
			&entry.SerialNumbers,
			&entry.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan collection entry: %w", err)
		}
		collection = append(collection, entry)
	}

	return collection, rows.Err()
}

/*
OwnsAnyOfComic reports whether an account holds any serial of a comic.

Parameters:
  - context: context.Context
  - comicID: string
  - accountID: string

Returns:
  - bool: true when at least one serial is held
  - error: Execution errors
*/
func (repository *mirrorRepository) OwnsAnyOfComic(context context.Context, comicID, accountID string) (bool, error) {
	m := schema.CoreMintedNFT
	t := schema.CoreEpisode

	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1
			FROM %s n
			JOIN %s e ON e.%s = n.%s
			WHERE e.%s = $1 AND n.%s = $2
		)`,
		m.Table,
		t.Table, t.ID, m.EpisodeID,
		t.ComicID, m.OwnerAccount,
	)

	var owns bool
	if err := repository.pool.QueryRow(context, query, comicID, accountID).Scan(&owns); err != nil {
		return false, fmt.Errorf("postgres: failed to check comic ownership: %w", err)
	}

	return owns, nil
}

/*
SerialOwner returns the account currently holding one serial.

Parameters:
  - context: context.Context
  - episodeID: string
  - serialNumber: int64

Returns:
  - string: Owner account identifier
  - error: apperr.NotFound or execution errors
*/
func (repository *mirrorRepository) SerialOwner(context context.Context, episodeID string, serialNumber int64) (string, error) {
	m := schema.CoreMintedNFT

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2",
		m.OwnerAccount, m.Table, m.EpisodeID, m.SerialNumber)

	var owner string
	if err := repository.pool.QueryRow(context, query, episodeID, serialNumber).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("Serial")
		}
		return "", fmt.Errorf("postgres: failed to resolve serial owner: %w", err)
	}

	return owner, nil
}

/*
UpdateSerialOwner moves a serial to a new owner account after a ledger
transfer.

Parameters:
  - context: context.Context
  - episodeID: string
  - serialNumber: int64
  - ownerAccount: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *mirrorRepository) UpdateSerialOwner(context context.Context, episodeID string, serialNumber int64, ownerAccount string) error {
	m := schema.CoreMintedNFT

	query := fmt.Sprintf("UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2",
		m.Table, m.OwnerAccount, m.EpisodeID, m.SerialNumber)

	result, err := repository.pool.Exec(context, query, episodeID, serialNumber, ownerAccount)
	if err != nil {
		return fmt.Errorf("postgres: failed to update serial owner: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Serial")
	}

	return nil
}

/*
AppendMissing inserts mirror rows the ledger knows about but the mirror does
not.

Description: ON CONFLICT DO NOTHING makes the append idempotent; rerunning
reconciliation over the same serials inserts nothing.

Parameters:
  - context: context.Context
  - episodeID: string
  - records: []MintedNFT

Returns:
  - int: Number of rows actually inserted
  - error: Execution errors
*/
func (repository *mirrorRepository) AppendMissing(context context.Context, episodeID string, records []MintedNFT) (int, error) {
	m := schema.CoreMintedNFT

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s, %s) DO NOTHING`,
		m.Table, m.ID, m.EpisodeID, m.SerialNumber, m.OwnerAccount, m.MintedAt, m.TransactionID,
		m.EpisodeID, m.SerialNumber,
	)

	inserted := 0
	for _, record := range records {
		result, err := repository.pool.Exec(context, query,
			record.ID, episodeID, record.SerialNumber, record.OwnerAccount, record.MintedAt, record.TransactionID)
		if err != nil {
			return inserted, fmt.Errorf("postgres: failed to append mirror row: %w", err)
		}
		inserted += int(result.RowsAffected())
	}

	return inserted, nil
}
