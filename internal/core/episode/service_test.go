// Copyright (c) 2026 Mintara. All rights reserved.

package episode_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/content"
	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/internal/platform/apperr"
)

// # Test Doubles

type fakeEpisodeRepo struct {
	episode       *episode.Episode
	reserveResult bool
	reserveCalls  int
	releaseCalls  int
	recorded      []episode.MintedNFT
	earnings      float64
	statBumps     map[string]int
}

func (repo *fakeEpisodeRepo) FindByID(_ context.Context, id string) (*episode.Episode, error) {
	if repo.episode == nil || repo.episode.ID != id {
		return nil, apperr.NotFound("Episode")
	}
	clone := *repo.episode
	return &clone, nil
}

func (repo *fakeEpisodeRepo) ListByComic(context.Context, string) ([]*episode.Episode, error) {
	return []*episode.Episode{repo.episode}, nil
}

func (repo *fakeEpisodeRepo) Create(_ context.Context, created *episode.Episode) error {
	repo.episode = created
	return nil
}

func (repo *fakeEpisodeRepo) UpdateStatus(_ context.Context, _ string, status episode.Status, isLive bool, publishedAt *time.Time) error {
	repo.episode.Status = status
	repo.episode.IsLive = isLive
	if publishedAt != nil {
		repo.episode.PublishedAt = publishedAt
	}
	return nil
}

func (repo *fakeEpisodeRepo) UpdateRules(_ context.Context, _ string, rules episode.MintingRules) error {
	repo.episode.Rules = rules
	return nil
}

func (repo *fakeEpisodeRepo) ReserveSupply(_ context.Context, _ string, quantity int) (bool, error) {
	repo.reserveCalls++
	if repo.reserveResult {
		repo.episode.Supply.Current += quantity
	}
	return repo.reserveResult, nil
}

func (repo *fakeEpisodeRepo) ReleaseSupply(_ context.Context, _ string, quantity int) error {
	repo.releaseCalls++
	repo.episode.Supply.Current -= quantity
	return nil
}

func (repo *fakeEpisodeRepo) RecordMint(_ context.Context, _ string, records []episode.MintedNFT, earnings float64) error {
	repo.recorded = append(repo.recorded, records...)
	repo.earnings += earnings
	return nil
}

func (repo *fakeEpisodeRepo) IncrementStat(_ context.Context, _ string, stat string, delta int) error {
	if repo.statBumps == nil {
		repo.statBumps = map[string]int{}
	}
	repo.statBumps[stat] += delta
	return nil
}

func (repo *fakeEpisodeRepo) ListRecentlyMinted(context.Context, time.Time) ([]*episode.Episode, error) {
	return nil, nil
}

func (repo *fakeEpisodeRepo) RaiseSupply(context.Context, string, int) error {
	return nil
}

type fakeMirrorRepo struct {
	owners    []string
	heldCount int
}

func (repo *fakeMirrorRepo) OwnerAccounts(context.Context, string) ([]string, error) {
	return repo.owners, nil
}

func (repo *fakeMirrorRepo) CountByOwner(context.Context, string, string) (int, error) {
	return repo.heldCount, nil
}

func (repo *fakeMirrorRepo) CollectionByOwner(context.Context, string) ([]*episode.OwnedCollection, error) {
	return nil, nil
}

func (repo *fakeMirrorRepo) OwnsAnyOfComic(context.Context, string, string) (bool, error) {
	return len(repo.owners) > 0, nil
}

func (repo *fakeMirrorRepo) SerialOwner(context.Context, string, int64) (string, error) {
	return "", apperr.NotFound("Serial")
}

func (repo *fakeMirrorRepo) UpdateSerialOwner(context.Context, string, int64, string) error {
	return nil
}

func (repo *fakeMirrorRepo) AppendMissing(context.Context, string, []episode.MintedNFT) (int, error) {
	return 0, nil
}

type fakeComics struct {
	comic *comic.Comic
}

func (directory *fakeComics) GetComic(context.Context, string) (*comic.Comic, error) {
	if directory.comic == nil {
		return nil, apperr.NotFound("Comic")
	}
	return directory.comic, nil
}

type fakeLedger struct {
	mintErr   error
	mintCalls int
	serials   []int64
}

func (fake *fakeLedger) CreateCollection(context.Context, ledger.CreateCollectionInput) (string, error) {
	return "0.0.5005", nil
}

func (fake *fakeLedger) Mint(_ context.Context, input ledger.MintInput) (*ledger.MintResult, error) {
	fake.mintCalls++
	if fake.mintErr != nil {
		return nil, fake.mintErr
	}
	serials := fake.serials
	if serials == nil {
		serials = make([]int64, input.Quantity)
		for index := range serials {
			serials[index] = int64(index + 1)
		}
	}
	return &ledger.MintResult{
		SerialNumbers: serials,
		TransactionID: "0.0.9@1700000000.000000001",
		ConsensusAt:   time.Now(),
	}, nil
}

type fakeContentStore struct{}

func (fakeContentStore) Upload(_ context.Context, filename string, _ io.Reader) (*content.Ref, error) {
	return &content.Ref{Hash: "hash-" + filename, URL: "https://cdn.test/" + filename}, nil
}

type fakeWallets struct {
	accounts map[string]string
}

func (resolver *fakeWallets) WalletAccount(_ context.Context, userID string) (string, error) {
	return resolver.accounts[userID], nil
}

// # Fixture

const (
	testEpisodeID = "ep-1"
	testUserID    = "user-1"
	testAccount   = "0.0.100"
)

func publishedEpisode() *episode.Episode {
	return &episode.Episode{
		ID:                testEpisodeID,
		ComicID:           "comic-1",
		EpisodeNumber:     1,
		Title:             "Dawn of the Ledger",
		CollectionTokenID: "0.0.5005",
		Pages: []episode.Page{
			{Index: 1}, {Index: 2}, {Index: 3}, {Index: 4}, {Index: 5},
		},
		PageCount:  5,
		Pricing:    episode.Pricing{MintPrice: 12.5, Currency: episode.CurrencyHBAR},
		Supply:     episode.Supply{Max: 100, Current: 10},
		Rules:      episode.MintingRules{Enabled: true},
		Status:     episode.StatusPublished,
		IsLive:     true,
		AccessType: episode.AccessNFTHolders,
	}
}

func newTestService(repo *fakeEpisodeRepo, mirror *fakeMirrorRepo, tokenLedger *fakeLedger, wallets *fakeWallets) *episode.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	comics := &fakeComics{comic: &comic.Comic{ID: "comic-1", CreatorID: testUserID, Title: "Dawn"}}
	return episode.NewService(repo, mirror, comics, tokenLedger, fakeContentStore{}, wallets, episode.DenyAllPayments{}, logger)
}

func linkedWallets() *fakeWallets {
	return &fakeWallets{accounts: map[string]string{testUserID: testAccount}}
}

// # Minting

/*
TestService_Mint_RuleRejections verifies that every rule gate rejects before
the ledger is contacted and without touching supply.
*/
func TestService_Mint_RuleRejections(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		mutate    func(target *episode.Episode)
		heldCount int
		wantCode  string
	}{
		{
			name:     "minting_disabled",
			mutate:   func(target *episode.Episode) { target.Rules.Enabled = false },
			wantCode: "MINTING_DISABLED",
		},
		{
			name:     "not_published",
			mutate:   func(target *episode.Episode) { target.Status = episode.StatusPaused },
			wantCode: "MINTING_DISABLED",
		},
		{
			name:     "window_not_started",
			mutate:   func(target *episode.Episode) { target.Rules.StartTime = &future },
			wantCode: "MINT_WINDOW_CLOSED",
		},
		{
			name:     "window_ended",
			mutate:   func(target *episode.Episode) { target.Rules.EndTime = &past },
			wantCode: "MINT_WINDOW_CLOSED",
		},
		{
			name: "not_whitelisted",
			mutate: func(target *episode.Episode) {
				target.Rules.WhitelistOnly = true
				target.Rules.Whitelist = []string{"0.0.777"}
			},
			wantCode: "NOT_WHITELISTED",
		},
		{
			name: "wallet_cap_exceeded",
			mutate: func(target *episode.Episode) {
				target.Rules.MaxPerWallet = 2
			},
			heldCount: 2,
			wantCode:  "SUPPLY_EXCEEDED",
		},
		{
			name: "no_supply_headroom",
			mutate: func(target *episode.Episode) {
				target.Supply = episode.Supply{Max: 10, Current: 8, Burned: 2}
			},
			wantCode: "SUPPLY_EXCEEDED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := publishedEpisode()
			tt.mutate(target)

			repo := &fakeEpisodeRepo{episode: target, reserveResult: true}
			mirror := &fakeMirrorRepo{heldCount: tt.heldCount}
			tokenLedger := &fakeLedger{}
			service := newTestService(repo, mirror, tokenLedger, linkedWallets())

			_, err := service.Mint(context.Background(), testEpisodeID, testUserID, 1)

			require.Error(t, err)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)

			// A rejected mint never reaches the ledger or the supply gate.
			assert.Zero(t, tokenLedger.mintCalls)
			assert.Zero(t, repo.reserveCalls)
			assert.Empty(t, repo.recorded)
		})
	}
}

/*
TestService_Mint_QuantityBounds rejects out-of-range quantities upfront.
*/
func TestService_Mint_QuantityBounds(t *testing.T) {
	repo := &fakeEpisodeRepo{episode: publishedEpisode(), reserveResult: true}
	service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

	for _, quantity := range []int{0, -1, 11} {
		_, err := service.Mint(context.Background(), testEpisodeID, testUserID, quantity)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	}
}

/*
TestService_Mint_RequiresLinkedWallet rejects users without a wallet.
*/
func TestService_Mint_RequiresLinkedWallet(t *testing.T) {
	repo := &fakeEpisodeRepo{episode: publishedEpisode(), reserveResult: true}
	service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, &fakeWallets{})

	_, err := service.Mint(context.Background(), testEpisodeID, testUserID, 1)

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

/*
TestService_Mint_SupplyReservationLoss covers two mints racing for the last
serials: the conditional reservation fails and the mint is rejected.
*/
func TestService_Mint_SupplyReservationLoss(t *testing.T) {
	repo := &fakeEpisodeRepo{episode: publishedEpisode(), reserveResult: false}
	tokenLedger := &fakeLedger{}
	service := newTestService(repo, &fakeMirrorRepo{}, tokenLedger, linkedWallets())

	_, err := service.Mint(context.Background(), testEpisodeID, testUserID, 1)

	require.Error(t, err)
	assert.Equal(t, "SUPPLY_EXCEEDED", apperr.As(err).Code)
	assert.Equal(t, 1, repo.reserveCalls)
	assert.Zero(t, tokenLedger.mintCalls)
}

/*
TestService_Mint_LedgerFailureReleasesReservation verifies the compensating
release after a failed ledger call. No mirror row may appear.
*/
func TestService_Mint_LedgerFailureReleasesReservation(t *testing.T) {
	repo := &fakeEpisodeRepo{episode: publishedEpisode(), reserveResult: true}
	tokenLedger := &fakeLedger{mintErr: apperr.LedgerError(assert.AnError)}
	service := newTestService(repo, &fakeMirrorRepo{}, tokenLedger, linkedWallets())

	_, err := service.Mint(context.Background(), testEpisodeID, testUserID, 2)

	require.Error(t, err)
	assert.Equal(t, "LEDGER_ERROR", apperr.As(err).Code)
	assert.Equal(t, 1, repo.reserveCalls)
	assert.Equal(t, 1, repo.releaseCalls)
	assert.Empty(t, repo.recorded)
}

/*
TestService_Mint_Success checks the happy path end to end: serials become
mirror rows owned by the caller's account, and earnings accrue.
*/
func TestService_Mint_Success(t *testing.T) {
	repo := &fakeEpisodeRepo{episode: publishedEpisode(), reserveResult: true}
	tokenLedger := &fakeLedger{serials: []int64{11, 12}}
	service := newTestService(repo, &fakeMirrorRepo{}, tokenLedger, linkedWallets())

	records, err := service.Mint(context.Background(), testEpisodeID, testUserID, 2)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(11), records[0].SerialNumber)
	assert.Equal(t, int64(12), records[1].SerialNumber)
	for _, record := range records {
		assert.Equal(t, testAccount, record.OwnerAccount)
		assert.Equal(t, testEpisodeID, record.EpisodeID)
		assert.NotEmpty(t, record.TransactionID)
	}
	assert.Len(t, repo.recorded, 2)
	assert.InDelta(t, 25.0, repo.earnings, 0.001)
}

// # Reading

/*
TestService_Read_AccessOutcomes exercises the gated read across access types
and caller identities.
*/
func TestService_Read_AccessOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(target *episode.Episode)
		owners     []string
		userID     string
		wantAccess episode.AccessLevel
		wantPages  int
		wantCode   string
	}{
		{
			name:       "free_episode_anonymous_full_access",
			mutate:     func(target *episode.Episode) { target.AccessType = episode.AccessFree },
			userID:     "",
			wantAccess: episode.AccessGranted,
			wantPages:  5,
		},
		{
			name:       "public_episode_preview_only",
			mutate:     func(target *episode.Episode) { target.AccessType = episode.AccessPublic },
			userID:     testUserID,
			wantAccess: episode.AccessPreview,
			wantPages:  episode.PreviewPageCount,
		},
		{
			name:       "holder_reads_everything",
			mutate:     func(*episode.Episode) {},
			owners:     []string{testAccount},
			userID:     testUserID,
			wantAccess: episode.AccessGranted,
			wantPages:  5,
		},
		{
			name:     "non_holder_denied",
			mutate:   func(*episode.Episode) {},
			owners:   []string{"0.0.999"},
			userID:   testUserID,
			wantCode: "FORBIDDEN",
		},
		{
			name:     "paid_episode_denied_without_payment",
			mutate:   func(target *episode.Episode) { target.AccessType = episode.AccessPaid },
			userID:   testUserID,
			wantCode: "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := publishedEpisode()
			tt.mutate(target)

			repo := &fakeEpisodeRepo{episode: target}
			mirror := &fakeMirrorRepo{owners: tt.owners}
			service := newTestService(repo, mirror, &fakeLedger{}, linkedWallets())

			result, err := service.Read(context.Background(), testEpisodeID, tt.userID)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperr.As(err).Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, result.Access)
			assert.Len(t, result.Pages, tt.wantPages)
			assert.Equal(t, 1, repo.statBumps[episode.StatTotalReads])
		})
	}
}

/*
TestService_Read_UnpublishedIsInvisible hides drafts and paused episodes from
readers entirely.
*/
func TestService_Read_UnpublishedIsInvisible(t *testing.T) {
	for _, status := range []episode.Status{episode.StatusDraft, episode.StatusPaused, episode.StatusArchived} {
		target := publishedEpisode()
		target.Status = status
		target.IsLive = false

		repo := &fakeEpisodeRepo{episode: target}
		service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

		_, err := service.Read(context.Background(), testEpisodeID, testUserID)

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	}
}

// # Lifecycle

/*
TestService_Publish covers publication preconditions and rule activation.
*/
func TestService_Publish(t *testing.T) {
	t.Run("from_draft_activates_rules", func(t *testing.T) {
		target := publishedEpisode()
		target.Status = episode.StatusDraft
		target.IsLive = false
		target.Rules = episode.MintingRules{}

		repo := &fakeEpisodeRepo{episode: target}
		service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

		published, err := service.Publish(context.Background(), testEpisodeID, testUserID, episode.PublishInput{
			MaxPerWallet: 3,
		})

		require.NoError(t, err)
		assert.Equal(t, episode.StatusPublished, published.Status)
		assert.True(t, published.IsLive)
		assert.True(t, published.Rules.Enabled)
		assert.Equal(t, 3, published.Rules.MaxPerWallet)
		require.NotNil(t, published.PublishedAt)
	})

	t.Run("republish_is_conflict", func(t *testing.T) {
		repo := &fakeEpisodeRepo{episode: publishedEpisode()}
		service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

		_, err := service.Publish(context.Background(), testEpisodeID, testUserID, episode.PublishInput{})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("inverted_window_rejected", func(t *testing.T) {
		target := publishedEpisode()
		target.Status = episode.StatusDraft

		start := time.Now().Add(2 * time.Hour)
		end := time.Now().Add(time.Hour)

		repo := &fakeEpisodeRepo{episode: target}
		service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

		_, err := service.Publish(context.Background(), testEpisodeID, testUserID, episode.PublishInput{
			StartTime: &start,
			EndTime:   &end,
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("foreign_episode_looks_missing", func(t *testing.T) {
		repo := &fakeEpisodeRepo{episode: publishedEpisode()}
		service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

		_, err := service.Publish(context.Background(), testEpisodeID, "someone-else", episode.PublishInput{})

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

/*
TestService_Archive_IsTerminal blocks every transition out of archived.
*/
func TestService_Archive_IsTerminal(t *testing.T) {
	target := publishedEpisode()
	target.Status = episode.StatusArchived
	target.IsLive = false

	repo := &fakeEpisodeRepo{episode: target}
	service := newTestService(repo, &fakeMirrorRepo{}, &fakeLedger{}, linkedWallets())

	_, err := service.Publish(context.Background(), testEpisodeID, testUserID, episode.PublishInput{})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	err = service.Pause(context.Background(), testEpisodeID, testUserID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}
