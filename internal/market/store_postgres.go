// Copyright (c) 2026 Mintara. All rights reserved.

/*
PostgreSQL implementation of the marketplace data access.

Races are settled in SQL: the one-active-listing-per-serial rule is a
partial unique index, buy claims are conditional single-statement updates,
and bid raises only land when they still beat the stored highest bid.
*/
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/database/schema"
	"github.com/mintara/mintara/internal/platform/dberr"
)

// # PostgreSQL Repository

// listingRepository implements the [ListingRepository] interface using pgx.
type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository constructs a PostgreSQL backed marketplace store.
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

// listingColumns is the SELECT list shared by the lookup queries.
func listingColumns(prefix string) string {
	cols := schema.MarketListing.Columns()
	list := make([]string, len(cols))
	for index, col := range cols {
		list[index] = prefix + col
	}
	return strings.Join(list, ", ")
}

// scanListing hydrates one row into a [Listing].
func scanListing(row pgx.Row, extra ...any) (*Listing, error) {
	listing := &Listing{}
	dest := []any{
		&listing.ID,
		&listing.EpisodeID,
		&listing.SerialNumber,
		&listing.SellerID,
		&listing.SellerAccount,
		&listing.Type,
		&listing.Price,
		&listing.Currency,
		&listing.Status,
		&listing.EndTime,
		&listing.MinBid,
		&listing.HighestBid,
		&listing.HighestBidder,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return listing, nil
}

/*
FindByID returns one listing.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Listing: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *listingRepository) FindByID(context context.Context, id string) (*Listing, error) {
	t := schema.MarketListing

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		listingColumns(""), t.Table, t.ID)

	listing, err := scanListing(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Listing")
		}
		return nil, fmt.Errorf("postgres: failed to find listing: %w", err)
	}

	return listing, nil
}

/*
List returns a filtered, paginated slice of listings and the total count.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Listing: Newest first
  - int: Total count matching the filter
  - error: Execution errors
*/
func (repository *listingRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Listing, int, error) {
	t := schema.MarketListing

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE 1=1`,
		listingColumns(""), t.Table,
	))

	if filter.EpisodeID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", t.EpisodeID, argID))
		args = append(args, filter.EpisodeID)
		argID++
	}

	if filter.SellerID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", t.SellerID, argID))
		args = append(args, filter.SellerID)
		argID++
	}

	if len(filter.Status) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = ANY($%d)", t.Status, argID))
		args = append(args, filter.Status)
		argID++
	}

	if filter.Type != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", t.Type, argID))
		args = append(args, filter.Type)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		t.CreatedAt, argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*Listing
	total := 0
	for rows.Next() {
		listing, err := scanListing(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	return listings, total, rows.Err()
}

/*
Create persists a new active listing.

Parameters:
  - context: context.Context
  - listing: *Listing

Returns:
  - error: apperr.Conflict when the serial already has an active listing,
    execution errors
*/
func (repository *listingRepository) Create(context context.Context, listing *Listing) error {
	t := schema.MarketListing

	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		t.Table,
		t.ID, t.EpisodeID, t.SerialNumber, t.SellerID, t.SellerAccount,
		t.Type, t.Price, t.Currency, t.Status, t.EndTime, t.MinBid,
		t.HighestBid, t.HighestBidder, t.CreatedAt, t.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		listing.ID, listing.EpisodeID, listing.SerialNumber, listing.SellerID,
		listing.SellerAccount, listing.Type, listing.Price, listing.Currency,
		listing.Status, listing.EndTime, listing.MinBid, listing.HighestBid,
		listing.HighestBidder, listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("This serial is already listed")
		}
		return fmt.Errorf("postgres: failed to create listing: %w", err)
	}

	return nil
}

/*
ClaimStatus atomically moves a listing from one status to another.

Parameters:
  - context: context.Context
  - id: string
  - from: ListingStatus
  - to: ListingStatus

Returns:
  - bool: false when the listing was not in the expected state
  - error: Execution errors
*/
func (repository *listingRepository) ClaimStatus(context context.Context, id string, from, to ListingStatus) (bool, error) {
	t := schema.MarketListing

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = NOW()
		WHERE %s = $1 AND %s = $2`,
		t.Table,
		t.Status, t.UpdatedAt,
		t.ID, t.Status,
	)

	result, err := repository.pool.Exec(context, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to claim listing status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

/*
RecordBid appends a bid and raises the listing's highest bid transactionally.

Description: The raise carries the full bid guard in its WHERE clause, so a
bid that no longer beats the stored highest, or that arrives after the
auction closed, is rolled back without trace.

Parameters:
  - context: context.Context
  - bid: *Bid

Returns:
  - bool: false when the bid did not win the raise
  - error: Execution errors
*/
func (repository *listingRepository) RecordBid(context context.Context, bid *Bid) (bool, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to begin bid transaction: %w", err)
	}
	defer transaction.Rollback(context)

	t := schema.MarketListing
	raiseQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1
		  AND %s = '%s'
		  AND %s < $2
		  AND (%s IS NULL OR %s > NOW())`,
		t.Table,
		t.HighestBid, t.HighestBidder, t.UpdatedAt,
		t.ID,
		t.Status, StatusActive,
		t.HighestBid,
		t.EndTime, t.EndTime,
	)

	result, err := transaction.Exec(context, raiseQuery, bid.ListingID, bid.Amount, bid.BidderAccount)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to raise highest bid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	b := schema.MarketBid
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.Table, b.ID, b.ListingID, b.BidderID, b.BidderAccount, b.Amount, b.PlacedAt,
	)

	_, err = transaction.Exec(context, insertQuery,
		bid.ID, bid.ListingID, bid.BidderID, bid.BidderAccount, bid.Amount, bid.PlacedAt)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to record bid: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return false, fmt.Errorf("postgres: failed to commit bid: %w", err)
	}

	return true, nil
}

/*
CreateTransaction appends one settled trade to the history.

Parameters:
  - context: context.Context
  - trade: *Transaction

Returns:
  - error: Execution errors
*/
func (repository *listingRepository) CreateTransaction(context context.Context, trade *Transaction) error {
	t := schema.MarketTransaction

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.Table,
		t.ID, t.ListingID, t.Type, t.BuyerAccount, t.SellerAccount,
		t.Amount, t.Currency, t.Status, t.ExecutedAt,
	)

	_, err := repository.pool.Exec(context, query,
		trade.ID, trade.ListingID, trade.Type, trade.BuyerAccount,
		trade.SellerAccount, trade.Amount, trade.Currency, trade.Status,
		trade.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to record trade: %w", err)
	}

	return nil
}

/*
TradeSummary aggregates the settled trades of an episode, or of the whole
marketplace when episodeID is empty.

Parameters:
  - context: context.Context
  - episodeID: string

Returns:
  - float64: Total settled volume
  - int: Number of settled trades
  - error: Execution errors
*/
func (repository *listingRepository) TradeSummary(context context.Context, episodeID string) (float64, int, error) {
	tx := schema.MarketTransaction
	l := schema.MarketListing

	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT COALESCE(SUM(tx.%s), 0), COUNT(*)
		FROM %s tx`,
		tx.Amount, tx.Table,
	))

	if episodeID != "" {
		queryBuilder.WriteString(fmt.Sprintf(`
		JOIN %s l ON l.%s = tx.%s
		WHERE tx.%s = '%s' AND l.%s = $1`,
			l.Table, l.ID, tx.ListingID,
			tx.Status, TradeCompleted, l.EpisodeID,
		))
		args = append(args, episodeID)
	} else {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE tx.%s = '%s'", tx.Status, TradeCompleted))
	}

	var volume float64
	var count int
	if err := repository.pool.QueryRow(context, queryBuilder.String(), args...).Scan(&volume, &count); err != nil {
		return 0, 0, fmt.Errorf("postgres: failed to summarize trades: %w", err)
	}

	return volume, count, nil
}

/*
Active returns every active listing of one episode, or of the whole
marketplace when episodeID is empty.

Parameters:
  - context: context.Context
  - episodeID: string (empty spans all episodes)

Returns:
  - []*Listing: Active listings, cheapest first
  - error: Execution errors
*/
func (repository *listingRepository) Active(context context.Context, episodeID string) ([]*Listing, error) {
	t := schema.MarketListing

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE ($1 = '' OR %s = $1) AND %s = '%s'
		ORDER BY %s ASC`,
		listingColumns(""), t.Table,
		t.EpisodeID, t.Status, StatusActive,
		t.Price,
	)

	rows, err := repository.pool.Query(context, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query active listings: %w", err)
	}
	defer rows.Close()

	var listings []*Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}
