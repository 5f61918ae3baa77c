// Copyright (c) 2026 Mintara. All rights reserved.

package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/market"
	"github.com/mintara/mintara/internal/platform/database/schema"
)

// # Aggregate Repository

// PostgresRepository implements [Repository] with cross-schema aggregates.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of [Repository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Snapshot computes the platform-wide summary from live data.

Description: One round trip; each aggregate is a scalar subquery so the
numbers are mutually consistent within a single statement snapshot.

Parameters:
  - context: context.Context

Returns:
  - *Platform: Freshly computed aggregates
  - error: Execution errors
*/
func (repository *PostgresRepository) Snapshot(context context.Context) (*Platform, error) {
	comics := schema.CoreComic
	trades := schema.MarketTransaction
	minted := schema.CoreMintedNFT

	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE %s != '%s'),
			(SELECT COUNT(*) FROM %s WHERE %s = '%s'),
			(SELECT COALESCE(SUM(%s), 0) FROM %s WHERE %s = '%s'),
			(SELECT COUNT(*) FROM %s WHERE %s = '%s'),
			(SELECT COUNT(DISTINCT %s) FROM %s),
			(SELECT COUNT(DISTINCT %s) FROM %s)`,
		comics.Table, comics.Status, comic.StatusDraft,
		comics.Table, comics.Status, comic.StatusPublished,
		trades.Amount, trades.Table, trades.Status, market.TradeCompleted,
		trades.Table, trades.Status, market.TradeCompleted,
		comics.CreatorID, comics.Table,
		minted.OwnerAccount, minted.Table,
	)

	snapshot := &Platform{}
	err := repository.pool.QueryRow(context, query).Scan(
		&snapshot.TotalComics,
		&snapshot.TotalPublished,
		&snapshot.TradedVolume,
		&snapshot.TotalSales,
		&snapshot.TotalCreators,
		&snapshot.TotalCollectors,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to compute platform snapshot: %w", err)
	}

	return snapshot, nil
}
