// Copyright (c) 2026 Mintara. All rights reserved.

package reader

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

// historyRepository implements the [HistoryRepository] interface using pgx.
type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository constructs a PostgreSQL backed history store.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

// historyColumns is the SELECT list shared by the lookup queries.
func historyColumns(prefix string) string {
	cols := schema.LibraryReadHistory.Columns()
	list := make([]string, len(cols))
	for index, col := range cols {
		list[index] = prefix + col
	}
	return strings.Join(list, ", ")
}

// scanHistory hydrates one row into a [ReadHistory].
func scanHistory(row pgx.Row, extra ...any) (*ReadHistory, error) {
	history := &ReadHistory{}
	dest := []any{
		&history.ID,
		&history.UserID,
		&history.ComicID,
		&history.EpisodeID,
		&history.CurrentPage,
		&history.TotalPages,
		&history.Percentage,
		&history.Completed,
		&history.AccessType,
		&history.LastAccessedAt,
		&history.CreatedAt,
		&history.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return history, nil
}

/*
FindByUserAndEpisode returns the user's progress record for one episode.

Parameters:
  - context: context.Context
  - userID: string
  - episodeID: string

Returns:
  - *ReadHistory: The progress record
  - error: apperr.NotFound or execution errors
*/
func (repository *historyRepository) FindByUserAndEpisode(context context.Context, userID, episodeID string) (*ReadHistory, error) {
	t := schema.LibraryReadHistory

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2",
		historyColumns(""), t.Table, t.UserID, t.EpisodeID)

	history, err := scanHistory(repository.pool.QueryRow(context, query, userID, episodeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reading progress")
		}
		return nil, fmt.Errorf("postgres: failed to find reading progress: %w", err)
	}

	return history, nil
}

/*
FindByUserAndComic returns the user's whole-comic progress record.

Description: Comic-level rows are the ones with a NULL episode reference;
the partial unique index on (userid, comicid) keeps them singular.

Parameters:
  - context: context.Context
  - userID: string
  - comicID: string

Returns:
  - *ReadHistory: The progress record
  - error: apperr.NotFound or execution errors
*/
func (repository *historyRepository) FindByUserAndComic(context context.Context, userID, comicID string) (*ReadHistory, error) {
	t := schema.LibraryReadHistory

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s IS NULL",
		historyColumns(""), t.Table, t.UserID, t.ComicID, t.EpisodeID)

	history, err := scanHistory(repository.pool.QueryRow(context, query, userID, comicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reading progress")
		}
		return nil, fmt.Errorf("postgres: failed to find reading progress: %w", err)
	}

	return history, nil
}

/*
Create persists a fresh progress record.

Description: The partial unique indexes on (userid, episodeid) and on
(userid, comicid) for episode-less rows turn a concurrent first read into a
conflict the service can recover from.

Parameters:
  - context: context.Context
  - history: *ReadHistory

Returns:
  - error: apperr.Conflict on a duplicate pair, execution errors
*/
func (repository *historyRepository) Create(context context.Context, history *ReadHistory) error {
	t := schema.LibraryReadHistory

	now := time.Now()
	history.LastAccessedAt = now
	history.CreatedAt = now
	history.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.Table,
		t.ID, t.UserID, t.ComicID, t.EpisodeID, t.CurrentPage, t.TotalPages,
		t.Percentage, t.Completed, t.AccessType, t.LastAccessedAt, t.CreatedAt, t.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		history.ID, history.UserID, history.ComicID, history.EpisodeID,
		history.CurrentPage, history.TotalPages, history.Percentage,
		history.Completed, history.AccessType, history.LastAccessedAt,
		history.CreatedAt, history.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Reading progress already exists")
		}
		return fmt.Errorf("postgres: failed to create reading progress: %w", err)
	}

	return nil
}

/*
UpdateProgress overwrites the page position and derived fields.

Parameters:
  - context: context.Context
  - id: string
  - currentPage: int
  - percentage: int
  - completed: bool

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *historyRepository) UpdateProgress(context context.Context, id string, currentPage, percentage int, completed bool) error {
	t := schema.LibraryReadHistory

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = NOW(), %s = NOW()
		WHERE %s = $1`,
		t.Table,
		t.CurrentPage, t.Percentage, t.Completed, t.LastAccessedAt, t.UpdatedAt,
		t.ID,
	)

	result, err := repository.pool.Exec(context, query, id, currentPage, percentage, completed)
	if err != nil {
		return fmt.Errorf("postgres: failed to update reading progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Reading progress")
	}

	return nil
}

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
  - error: Execution errors
*/
func (repository *historyRepository) ListByUser(context context.Context, userID string, limit, offset int) ([]*ReadHistory, int, error) {
	t := schema.LibraryReadHistory

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3`,
		historyColumns(""), t.Table, t.UserID, t.LastAccessedAt,
	)

	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list reading history: %w", err)
	}
	defer rows.Close()

	var entries []*ReadHistory
	total := 0
	for rows.Next() {
		entry, err := scanHistory(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan reading history: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}
