// Copyright (c) 2026 Mintara. All rights reserved.

package comic_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/content"
	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/platform/apperr"
)

// # Test Doubles

type fakeComicRepo struct {
	bySlug  map[string]*comic.Comic
	byID    map[string]*comic.Comic
	updated *comic.Comic
	status  comic.Status
}

func newFakeComicRepo() *fakeComicRepo {
	return &fakeComicRepo{bySlug: map[string]*comic.Comic{}, byID: map[string]*comic.Comic{}}
}

func (repo *fakeComicRepo) FindByID(_ context.Context, id string) (*comic.Comic, error) {
	if found, ok := repo.byID[id]; ok {
		clone := *found
		return &clone, nil
	}
	return nil, apperr.NotFound("Comic")
}

func (repo *fakeComicRepo) FindBySlug(_ context.Context, slug string) (*comic.Comic, error) {
	if found, ok := repo.bySlug[slug]; ok {
		clone := *found
		return &clone, nil
	}
	return nil, apperr.NotFound("Comic")
}

func (repo *fakeComicRepo) List(context.Context, comic.Filter, int, int) ([]*comic.Comic, int, error) {
	return nil, 0, nil
}

func (repo *fakeComicRepo) Create(_ context.Context, created *comic.Comic) error {
	if _, exists := repo.bySlug[created.Slug]; exists {
		return apperr.Conflict("A comic with this title already exists")
	}
	repo.byID[created.ID] = created
	repo.bySlug[created.Slug] = created
	return nil
}

func (repo *fakeComicRepo) Update(_ context.Context, updated *comic.Comic) error {
	repo.updated = updated
	return nil
}

func (repo *fakeComicRepo) UpdateStatus(_ context.Context, id string, status comic.Status) error {
	repo.status = status
	if found, ok := repo.byID[id]; ok {
		found.Status = status
	}
	return nil
}

func (repo *fakeComicRepo) UpdateDownloads(context.Context, string, string, string) error {
	return nil
}

type fakeStore struct{ uploads int }

func (store *fakeStore) Upload(_ context.Context, filename string, _ io.Reader) (*content.Ref, error) {
	store.uploads++
	return &content.Ref{Hash: "hash-" + filename, URL: "https://cdn.test/" + filename}, nil
}

type fakeWallets struct{ accounts map[string]string }

func (resolver *fakeWallets) WalletAccount(_ context.Context, userID string) (string, error) {
	return resolver.accounts[userID], nil
}

// # Fixture

const creatorID = "creator-1"

func newTestService(repo *fakeComicRepo) (*comic.Service, *fakeStore) {
	store := &fakeStore{}
	wallets := &fakeWallets{accounts: map[string]string{creatorID: "0.0.100"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return comic.NewService(repo, store, wallets, logger), store
}

// # Creation

/*
TestService_CreateComic covers validation, the wallet requirement, and slug
derivation.
*/
func TestService_CreateComic(t *testing.T) {
	t.Run("success_with_slug", func(t *testing.T) {
		repo := newFakeComicRepo()
		service, _ := newTestService(repo)

		created, err := service.CreateComic(context.Background(), comic.CreateComicInput{
			CreatorID:         creatorID,
			Title:             "Neon Ronin: Afterglow",
			Genres:            []string{"cyberpunk", "action"},
			RoyaltyPercentage: 7.5,
		})

		require.NoError(t, err)
		assert.Equal(t, "neon-ronin-afterglow", created.Slug)
		assert.Equal(t, comic.StatusDraft, created.Status)
		assert.Equal(t, creatorID, created.CreatorID)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("requires_linked_wallet", func(t *testing.T) {
		repo := newFakeComicRepo()
		store := &fakeStore{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := comic.NewService(repo, store, &fakeWallets{}, logger)

		_, err := service.CreateComic(context.Background(), comic.CreateComicInput{
			CreatorID: creatorID,
			Title:     "Walletless",
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("royalty_out_of_range", func(t *testing.T) {
		repo := newFakeComicRepo()
		service, _ := newTestService(repo)

		_, err := service.CreateComic(context.Background(), comic.CreateComicInput{
			CreatorID:         creatorID,
			Title:             "Greedy",
			RoyaltyPercentage: 51,
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("duplicate_slug_conflicts", func(t *testing.T) {
		repo := newFakeComicRepo()
		service, _ := newTestService(repo)

		_, err := service.CreateComic(context.Background(), comic.CreateComicInput{
			CreatorID: creatorID, Title: "Twice Told",
		})
		require.NoError(t, err)

		_, err = service.CreateComic(context.Background(), comic.CreateComicInput{
			CreatorID: creatorID, Title: "Twice Told",
		})
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})
}

// # Discovery

/*
TestService_GetComic dispatches between UUID and slug lookups.
*/
func TestService_GetComic(t *testing.T) {
	repo := newFakeComicRepo()
	service, _ := newTestService(repo)

	created, err := service.CreateComic(context.Background(), comic.CreateComicInput{
		CreatorID: creatorID,
		Title:     "Slug Hunter",
	})
	require.NoError(t, err)

	byID, err := service.GetComic(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	bySlug, err := service.GetComic(context.Background(), "slug-hunter")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = service.GetComic(context.Background(), "missing-slug")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

// # Management

/*
TestService_StatusTransitions walks the draft -> published -> archived path
and rejects everything else.
*/
func TestService_StatusTransitions(t *testing.T) {
	repo := newFakeComicRepo()
	service, _ := newTestService(repo)

	created, err := service.CreateComic(context.Background(), comic.CreateComicInput{
		CreatorID: creatorID,
		Title:     "Lifecycle",
	})
	require.NoError(t, err)

	// Archive before publish is a conflict.
	err = service.ArchiveComic(context.Background(), created.ID, creatorID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	require.NoError(t, service.PublishComic(context.Background(), created.ID, creatorID))
	assert.Equal(t, comic.StatusPublished, repo.status)

	// Publishing twice is a conflict.
	err = service.PublishComic(context.Background(), created.ID, creatorID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	require.NoError(t, service.ArchiveComic(context.Background(), created.ID, creatorID))
	assert.Equal(t, comic.StatusArchived, repo.status)
}

/*
TestService_Ownership hides foreign comics behind a 404.
*/
func TestService_Ownership(t *testing.T) {
	repo := newFakeComicRepo()
	service, _ := newTestService(repo)

	created, err := service.CreateComic(context.Background(), comic.CreateComicInput{
		CreatorID: creatorID,
		Title:     "Mine Alone",
	})
	require.NoError(t, err)

	err = service.PublishComic(context.Background(), created.ID, "intruder")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	_, err = service.UpdateComic(context.Background(), created.ID, "intruder", comic.UpdateComicInput{Title: "Stolen"})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestService_AttachDownloads requires at least one bundle and uploads both
when supplied.
*/
func TestService_AttachDownloads(t *testing.T) {
	repo := newFakeComicRepo()
	service, store := newTestService(repo)

	created, err := service.CreateComic(context.Background(), comic.CreateComicInput{
		CreatorID: creatorID,
		Title:     "Bundled",
	})
	require.NoError(t, err)

	err = service.AttachDownloads(context.Background(), created.ID, creatorID, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	uploadsBefore := store.uploads
	err = service.AttachDownloads(context.Background(), created.ID, creatorID,
		&comic.Upload{Filename: "bundle.cbz", Reader: nilReader{}},
		&comic.Upload{Filename: "bundle.pdf", Reader: nilReader{}},
	)
	require.NoError(t, err)
	assert.Equal(t, uploadsBefore+2, store.uploads)
}

type nilReader struct{}

func (nilReader) Read([]byte) (int, error) { return 0, io.EOF }
