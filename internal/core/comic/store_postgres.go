// Copyright (c) 2026 Mintara. All rights reserved.

/*
PostgreSQL implementation of the catalogue's data access.

It leans on Postgres features the platform already depends on elsewhere:
  - JSON Aggregation: The episode roster is aggregated into a JSON array in
    the same round-trip as the comic row.
  - Window Functions: COUNT(*) OVER() returns the total result count without
    a second query.
  - GIN Arrays: Genre filtering uses the && overlap operator against a GIN
    indexed TEXT[] column.
*/
package comic

import (
	"context"
	"encoding/json"
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

// comicRepository implements the [ComicRepository] interface using pgx.
type comicRepository struct {
	pool *pgxpool.Pool
}

// NewComicRepository constructs a PostgreSQL backed comic store.
func NewComicRepository(pool *pgxpool.Pool) ComicRepository {
	return &comicRepository{pool: pool}
}

// rosterSubquery aggregates the comic's episodes into a JSON array, newest
// number last. Lives in SQL so the catalogue never imports the episode domain.
func rosterSubquery() string {
	c := schema.CoreComic
	e := schema.CoreEpisode

	return fmt.Sprintf(`COALESCE((
		SELECT json_agg(json_build_object(
			'id', e.%s,
			'episode_number', e.%s,
			'title', e.%s,
			'cover_url', e.%s,
			'status', e.%s,
			'is_free', e.%s,
			'mint_price', e.%s,
			'total_minted', e.%s
		) ORDER BY e.%s)
		FROM %s e
		WHERE e.%s = c.%s
	), '[]')`,
		e.ID, e.EpisodeNumber, e.Title, e.CoverURL, e.Status,
		e.IsFree, e.MintPrice, e.TotalMinted,
		e.EpisodeNumber,
		e.Table,
		e.ComicID, c.ID,
	)
}

// scanComic hydrates one row into a [Comic]. roster may be nil when the
// query projects no roster column.
func scanComic(row pgx.Row, withRoster bool, withTotal bool, total *int) (*Comic, error) {
	comic := &Comic{}
	var rosterJSON []byte

	dest := []any{
		&comic.ID,
		&comic.Title,
		&comic.Slug,
		&comic.Description,
		&comic.Series,
		&comic.Genres,
		&comic.CreatorID,
		&comic.RoyaltyPercentage,
		&comic.Status,
		&comic.PageCount,
		&comic.CoverHash,
		&comic.CoverURL,
		&comic.CbzURL,
		&comic.PdfURL,
		&comic.CreatedAt,
		&comic.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, total)
	}
	if withRoster {
		dest = append(dest, &rosterJSON)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if withRoster {
		if err := json.Unmarshal(rosterJSON, &comic.Episodes); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal episode roster: %w", err)
		}
	}

	return comic, nil
}

// comicColumns is the base SELECT list, aliased to c.
func comicColumns() string {
	cols := schema.CoreComic.Columns()
	list := make([]string, len(cols))
	for index, col := range cols {
		list[index] = "c." + col
	}
	return strings.Join(list, ", ")
}

/*
FindByID retrieves a comic by primary key with its full episode roster.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Comic: Hydrated aggregate
  - error: apperr.NotFound or execution errors
*/
func (repository *comicRepository) FindByID(context context.Context, id string) (*Comic, error) {
	return repository.findBy(context, schema.CoreComic.ID, id)
}

/*
FindBySlug retrieves a comic by its unique slug with its full episode roster.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Comic: Hydrated aggregate
  - error: apperr.NotFound or execution errors
*/
func (repository *comicRepository) FindBySlug(context context.Context, slug string) (*Comic, error) {
	return repository.findBy(context, schema.CoreComic.Slug, slug)
}

// findBy runs the detail query keyed on one column.
func (repository *comicRepository) findBy(context context.Context, column, value string) (*Comic, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM %s c
		WHERE c.%s = $1`,
		comicColumns(), rosterSubquery(),
		schema.CoreComic.Table,
		column,
	)

	comic, err := scanComic(repository.pool.QueryRow(context, query, value), true, false, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Comic")
		}
		return nil, fmt.Errorf("postgres: failed to find comic: %w", err)
	}

	return comic, nil
}

/*
List returns a filtered, paginated slice of comics and the total count.

Description: Builds the WHERE clause dynamically from the filter. Search uses
ILIKE over title and series; genre filtering uses the && array overlap
operator against the GIN index.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Comic: Matching comics, roster omitted
  - int: Total count matching the filter
  - error: Execution errors
*/
func (repository *comicRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Comic, int, error) {
	c := schema.CoreComic

	// Query build initialization
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s c
		WHERE 1=1`,
		comicColumns(), c.Table,
	))

	// Apply Filters (Dynamic WHERE clause construction)
	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (c.%s ILIKE $%d OR c.%s ILIKE $%d)",
			c.Title, argID, c.Series, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	if len(filter.Genres) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s && $%d", c.Genres, argID))
		args = append(args, filter.Genres)
		argID++
	}

	if len(filter.Status) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s = ANY($%d)", c.Status, argID))
		args = append(args, filter.Status)
		argID++
	} else {
		// Discovery defaults to published only.
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s = '%s'", c.Status, StatusPublished))
	}

	if filter.CreatorID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s = $%d", c.CreatorID, argID))
		args = append(args, filter.CreatorID)
		argID++
	}

	// Sorting (whitelisted columns only)
	sortColumn := c.CreatedAt
	switch filter.Sort {
	case "title":
		sortColumn = c.Title
	case "updated":
		sortColumn = c.UpdatedAt
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortDir, "asc") {
		direction = "ASC"
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY c.%s %s", sortColumn, direction))

	// Pagination
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list comics: %w", err)
	}
	defer rows.Close()

	var comics []*Comic
	total := 0
	for rows.Next() {
		comic, err := scanComic(rows, false, true, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan comic: %w", err)
		}
		comics = append(comics, comic)
	}

	return comics, total, rows.Err()
}

/*
Create persists a new comic.

Parameters:
  - context: context.Context
  - comic: *Comic

Returns:
  - error: apperr.Conflict on a duplicate slug, execution errors
*/
func (repository *comicRepository) Create(context context.Context, comic *Comic) error {
	c := schema.CoreComic

	now := time.Now()
	comic.CreatedAt = now
	comic.UpdatedAt = now

	genres := comic.Genres
	if genres == nil {
		genres = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s, %s, %s, %s
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15, $16
		)`,
		c.Table,
		c.ID, c.Title, c.Slug, c.Description, c.Series, c.Genres, c.CreatorID, c.RoyaltyPercentage,
		c.Status, c.PageCount, c.CoverHash, c.CoverURL, c.CbzURL, c.PdfURL, c.CreatedAt, c.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		comic.ID, comic.Title, comic.Slug, comic.Description, comic.Series,
		genres, comic.CreatorID, comic.RoyaltyPercentage,
		comic.Status, comic.PageCount, comic.CoverHash, comic.CoverURL,
		comic.CbzURL, comic.PdfURL, comic.CreatedAt, comic.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("A comic with this title already exists")
		}
		return fmt.Errorf("postgres: failed to create comic: %w", err)
	}

	return nil
}

/*
Update overwrites the mutable metadata of a comic.

Parameters:
  - context: context.Context
  - comic: *Comic

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *comicRepository) Update(context context.Context, comic *Comic) error {
	c := schema.CoreComic

	genres := comic.Genres
	if genres == nil {
		genres = []string{}
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
			%s = $7, %s = $8, %s = NOW()
		WHERE %s = $1`,
		c.Table,
		c.Title, c.Description, c.Series, c.Genres, c.RoyaltyPercentage,
		c.CoverHash, c.CoverURL, c.UpdatedAt,
		c.ID,
	)

	result, err := repository.pool.Exec(context, query,
		comic.ID, comic.Title, comic.Description, comic.Series, genres,
		comic.RoyaltyPercentage, comic.CoverHash, comic.CoverURL,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update comic: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Comic")
	}

	return nil
}

/*
UpdateStatus moves the comic to the target publication state.

Parameters:
  - context: context.Context
  - id: string
  - status: Status

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *comicRepository) UpdateStatus(context context.Context, id string, status Status) error {
	c := schema.CoreComic

	query := fmt.Sprintf("UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1",
		c.Table, c.Status, c.UpdatedAt, c.ID)

	result, err := repository.pool.Exec(context, query, id, status)
	if err != nil {
		return fmt.Errorf("postgres: failed to update comic status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Comic")
	}

	return nil
}

/*
UpdateDownloads records the gated download bundle URLs. Empty values leave
the corresponding column untouched.

Parameters:
  - context: context.Context
  - id: string
  - cbzURL: string
  - pdfURL: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *comicRepository) UpdateDownloads(context context.Context, id, cbzURL, pdfURL string) error {
	c := schema.CoreComic

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = COALESCE(NULLIF($2, ''), %s),
			%s = COALESCE(NULLIF($3, ''), %s),
			%s = NOW()
		WHERE %s = $1`,
		c.Table,
		c.CbzURL, c.CbzURL,
		c.PdfURL, c.PdfURL,
		c.UpdatedAt,
		c.ID,
	)

	result, err := repository.pool.Exec(context, query, id, cbzURL, pdfURL)
	if err != nil {
		return fmt.Errorf("postgres: failed to update comic downloads: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Comic")
	}

	return nil
}
