// Copyright (c) 2026 Mintara. All rights reserved.

package reader_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/reader"
)

// # Test Doubles

type fakeHistoryRepo struct {
	records map[string]*reader.ReadHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{records: map[string]*reader.ReadHistory{}}
}

func (repo *fakeHistoryRepo) episodeKey(userID, episodeID string) string {
	return userID + "/episode/" + episodeID
}

func (repo *fakeHistoryRepo) comicKey(userID, comicID string) string {
	return userID + "/comic/" + comicID
}

func (repo *fakeHistoryRepo) FindByUserAndEpisode(_ context.Context, userID, episodeID string) (*reader.ReadHistory, error) {
	if found, ok := repo.records[repo.episodeKey(userID, episodeID)]; ok {
		clone := *found
		return &clone, nil
	}
	return nil, apperr.NotFound("Reading progress")
}

func (repo *fakeHistoryRepo) FindByUserAndComic(_ context.Context, userID, comicID string) (*reader.ReadHistory, error) {
	if found, ok := repo.records[repo.comicKey(userID, comicID)]; ok {
		clone := *found
		return &clone, nil
	}
	return nil, apperr.NotFound("Reading progress")
}

func (repo *fakeHistoryRepo) Create(_ context.Context, history *reader.ReadHistory) error {
	key := repo.comicKey(history.UserID, history.ComicID)
	if history.EpisodeID != nil {
		key = repo.episodeKey(history.UserID, *history.EpisodeID)
	}
	if _, exists := repo.records[key]; exists {
		return apperr.Conflict("Reading progress already exists")
	}
	repo.records[key] = history
	return nil
}

func (repo *fakeHistoryRepo) UpdateProgress(_ context.Context, id string, currentPage, percentage int, completed bool) error {
	for _, record := range repo.records {
		if record.ID == id {
			record.CurrentPage = currentPage
			record.Percentage = percentage
			record.Completed = completed
			return nil
		}
	}
	return apperr.NotFound("Reading progress")
}

func (repo *fakeHistoryRepo) ListByUser(context.Context, string, int, int) ([]*reader.ReadHistory, int, error) {
	return nil, 0, nil
}

type fakeEpisodes struct{ episode *episode.Episode }

func (directory *fakeEpisodes) GetEpisode(context.Context, string) (*episode.Episode, error) {
	if directory.episode == nil {
		return nil, apperr.NotFound("Episode")
	}
	return directory.episode, nil
}

type fakeRegistrar struct{ calls int }

func (registrar *fakeRegistrar) RegisterFirstRead(context.Context, string) error {
	registrar.calls++
	return nil
}

type fakeComics struct{ comic *comic.Comic }

func (directory *fakeComics) GetComic(context.Context, string) (*comic.Comic, error) {
	if directory.comic == nil {
		return nil, apperr.NotFound("Comic")
	}
	return directory.comic, nil
}

type fakeOwnership struct{ owns bool }

func (checker *fakeOwnership) OwnsAnyOfComic(context.Context, string, string) (bool, error) {
	return checker.owns, nil
}

type fakeWallets struct{ account string }

func (resolver *fakeWallets) WalletAccount(context.Context, string) (string, error) {
	return resolver.account, nil
}

// # Fixture

const (
	testUserID    = "user-1"
	testEpisodeID = "ep-1"
)

func fixtureEpisode(pageCount int) *episode.Episode {
	return &episode.Episode{
		ID:         testEpisodeID,
		ComicID:    "comic-1",
		PageCount:  pageCount,
		AccessType: episode.AccessNFTHolders,
	}
}

func newTestService(repo *fakeHistoryRepo, episodes *fakeEpisodes, registrar *fakeRegistrar, ownership *fakeOwnership, comics *fakeComics, wallets *fakeWallets) *reader.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return reader.NewService(repo, episodes, registrar, comics, ownership, wallets, logger)
}

// # Progress Arithmetic

/*
TestComputeProgress pins the percentage rounding and the completion rule.
*/
func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name           string
		currentPage    int
		totalPages     int
		wantPercentage int
		wantCompleted  bool
	}{
		{"halfway", 5, 10, 50, false},
		{"final_page_completes", 10, 10, 100, true},
		{"first_page", 1, 10, 10, false},
		{"rounds_to_nearest", 1, 3, 33, false},
		{"rounds_up", 2, 3, 67, false},
		{"zero_total_is_inert", 4, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percentage, completed := reader.ComputeProgress(tt.currentPage, tt.totalPages)
			assert.Equal(t, tt.wantPercentage, percentage)
			assert.Equal(t, tt.wantCompleted, completed)
		})
	}
}

// # Tracking

/*
TestService_GetOrCreate creates a record on first access and registers the
unique read exactly once.
*/
func TestService_GetOrCreate(t *testing.T) {
	repo := newFakeHistoryRepo()
	registrar := &fakeRegistrar{}
	service := newTestService(repo, &fakeEpisodes{episode: fixtureEpisode(10)}, registrar,
		&fakeOwnership{}, &fakeComics{}, &fakeWallets{})

	first, err := service.GetOrCreate(context.Background(), testUserID, testEpisodeID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentPage)
	assert.Equal(t, 10, first.TotalPages)
	assert.Equal(t, 10, first.Percentage)
	assert.False(t, first.Completed)
	assert.Equal(t, 1, registrar.calls)

	second, err := service.GetOrCreate(context.Background(), testUserID, testEpisodeID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, registrar.calls)
}

/*
TestService_UpdateProgress covers derivation and range rejection.
*/
func TestService_UpdateProgress(t *testing.T) {
	repo := newFakeHistoryRepo()
	service := newTestService(repo, &fakeEpisodes{episode: fixtureEpisode(10)}, &fakeRegistrar{},
		&fakeOwnership{}, &fakeComics{}, &fakeWallets{})

	t.Run("midway", func(t *testing.T) {
		history, err := service.UpdateProgress(context.Background(), testUserID, testEpisodeID, 5)
		require.NoError(t, err)
		assert.Equal(t, 50, history.Percentage)
		assert.False(t, history.Completed)
	})

	t.Run("final_page_completes", func(t *testing.T) {
		history, err := service.UpdateProgress(context.Background(), testUserID, testEpisodeID, 10)
		require.NoError(t, err)
		assert.Equal(t, 100, history.Percentage)
		assert.True(t, history.Completed)
	})

	t.Run("out_of_range_rejected", func(t *testing.T) {
		for _, page := range []int{0, -3, 11} {
			_, err := service.UpdateProgress(context.Background(), testUserID, testEpisodeID, page)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		}

		// The stored position survives the rejection.
		history, err := service.GetOrCreate(context.Background(), testUserID, testEpisodeID)
		require.NoError(t, err)
		assert.Equal(t, 10, history.CurrentPage)
	})
}

/*
TestService_ComicProgress covers whole-comic tracking: records are created
without an episode reference, page moves derive percentage the same way, and
unique-reader registration stays an episode concern.
*/
func TestService_ComicProgress(t *testing.T) {
	repo := newFakeHistoryRepo()
	registrar := &fakeRegistrar{}
	service := newTestService(repo, &fakeEpisodes{}, registrar,
		&fakeOwnership{}, &fakeComics{comic: &comic.Comic{ID: "comic-1", PageCount: 40}}, &fakeWallets{})

	first, err := service.GetOrCreateForComic(context.Background(), testUserID, "comic-1")
	require.NoError(t, err)
	assert.Nil(t, first.EpisodeID)
	assert.Equal(t, "comic-1", first.ComicID)
	assert.Equal(t, 1, first.CurrentPage)
	assert.Equal(t, 40, first.TotalPages)
	assert.Equal(t, 0, registrar.calls)

	second, err := service.GetOrCreateForComic(context.Background(), testUserID, "comic-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	t.Run("update_derives_progress", func(t *testing.T) {
		history, err := service.UpdateComicProgress(context.Background(), testUserID, "comic-1", 20)
		require.NoError(t, err)
		assert.Equal(t, 50, history.Percentage)
		assert.False(t, history.Completed)

		history, err = service.UpdateComicProgress(context.Background(), testUserID, "comic-1", 40)
		require.NoError(t, err)
		assert.True(t, history.Completed)
	})

	t.Run("out_of_range_rejected", func(t *testing.T) {
		_, err := service.UpdateComicProgress(context.Background(), testUserID, "comic-1", 41)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_comic", func(t *testing.T) {
		missing := newTestService(newFakeHistoryRepo(), &fakeEpisodes{}, &fakeRegistrar{},
			&fakeOwnership{}, &fakeComics{}, &fakeWallets{})

		_, err := missing.GetOrCreateForComic(context.Background(), testUserID, "comic-1")
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("independent_of_episode_records", func(t *testing.T) {
		withEpisodes := newTestService(repo, &fakeEpisodes{episode: fixtureEpisode(10)}, registrar,
			&fakeOwnership{}, &fakeComics{comic: &comic.Comic{ID: "comic-1", PageCount: 40}}, &fakeWallets{})

		episodeRecord, err := withEpisodes.GetOrCreate(context.Background(), testUserID, testEpisodeID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, episodeRecord.ID)

		comicRecord, err := withEpisodes.GetOrCreateForComic(context.Background(), testUserID, "comic-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, comicRecord.ID)
	})
}

// # Downloads

/*
TestService_DownloadBundle covers the ownership gate and bundle lookup.
*/
func TestService_DownloadBundle(t *testing.T) {
	bundled := &comic.Comic{
		ID:     "comic-1",
		CbzURL: "https://cdn.test/bundle.cbz",
	}

	t.Run("owner_gets_url", func(t *testing.T) {
		service := newTestService(newFakeHistoryRepo(), &fakeEpisodes{}, &fakeRegistrar{},
			&fakeOwnership{owns: true}, &fakeComics{comic: bundled}, &fakeWallets{account: "0.0.100"})

		download, err := service.DownloadBundle(context.Background(), testUserID, "comic-1", reader.FormatCBZ)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/bundle.cbz", download.URL)
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		service := newTestService(newFakeHistoryRepo(), &fakeEpisodes{}, &fakeRegistrar{},
			&fakeOwnership{owns: false}, &fakeComics{comic: bundled}, &fakeWallets{account: "0.0.100"})

		_, err := service.DownloadBundle(context.Background(), testUserID, "comic-1", reader.FormatCBZ)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("missing_bundle_is_not_found", func(t *testing.T) {
		service := newTestService(newFakeHistoryRepo(), &fakeEpisodes{}, &fakeRegistrar{},
			&fakeOwnership{owns: true}, &fakeComics{comic: bundled}, &fakeWallets{account: "0.0.100"})

		_, err := service.DownloadBundle(context.Background(), testUserID, "comic-1", reader.FormatPDF)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("wallet_required", func(t *testing.T) {
		service := newTestService(newFakeHistoryRepo(), &fakeEpisodes{}, &fakeRegistrar{},
			&fakeOwnership{owns: true}, &fakeComics{comic: bundled}, &fakeWallets{})

		_, err := service.DownloadBundle(context.Background(), testUserID, "comic-1", reader.FormatCBZ)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_format_rejected", func(t *testing.T) {
		service := newTestService(newFakeHistoryRepo(), &fakeEpisodes{}, &fakeRegistrar{},
			&fakeOwnership{owns: true}, &fakeComics{comic: bundled}, &fakeWallets{account: "0.0.100"})

		_, err := service.DownloadBundle(context.Background(), testUserID, "comic-1", "epub")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}
