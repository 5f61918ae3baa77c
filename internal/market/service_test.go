// Copyright (c) 2026 Mintara. All rights reserved.

package market_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/internal/market"
	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/pkg/pointer"
)

// # Test Doubles

type fakeListingRepo struct {
	listings     map[string]*market.Listing
	transactions []*market.Transaction
	bids         []*market.Bid

	createErr error
	bidDenied bool

	tradedVolume float64
	totalSales   int
}

func newFakeListingRepo(listings ...*market.Listing) *fakeListingRepo {
	repo := &fakeListingRepo{listings: map[string]*market.Listing{}}
	for _, listing := range listings {
		repo.listings[listing.ID] = listing
	}
	return repo
}

func (repo *fakeListingRepo) FindByID(_ context.Context, id string) (*market.Listing, error) {
	listing, ok := repo.listings[id]
	if !ok {
		return nil, apperr.NotFound("Listing")
	}
	clone := *listing
	return &clone, nil
}

func (repo *fakeListingRepo) List(_ context.Context, filter market.Filter, _, _ int) ([]*market.Listing, int, error) {
	var matched []*market.Listing
	for _, listing := range repo.listings {
		if filter.SellerID != "" && listing.SellerID != filter.SellerID {
			continue
		}
		matched = append(matched, listing)
	}
	return matched, len(matched), nil
}

func (repo *fakeListingRepo) Create(_ context.Context, listing *market.Listing) error {
	if repo.createErr != nil {
		return repo.createErr
	}
	repo.listings[listing.ID] = listing
	return nil
}

func (repo *fakeListingRepo) ClaimStatus(_ context.Context, id string, from, to market.ListingStatus) (bool, error) {
	listing, ok := repo.listings[id]
	if !ok || listing.Status != from {
		return false, nil
	}
	listing.Status = to
	return true, nil
}

func (repo *fakeListingRepo) RecordBid(_ context.Context, bid *market.Bid) (bool, error) {
	if repo.bidDenied {
		return false, nil
	}
	listing := repo.listings[bid.ListingID]
	listing.HighestBid = bid.Amount
	listing.HighestBidder = bid.BidderAccount
	repo.bids = append(repo.bids, bid)
	return true, nil
}

func (repo *fakeListingRepo) CreateTransaction(_ context.Context, transaction *market.Transaction) error {
	repo.transactions = append(repo.transactions, transaction)
	return nil
}

func (repo *fakeListingRepo) TradeSummary(context.Context, string) (float64, int, error) {
	return repo.tradedVolume, repo.totalSales, nil
}

func (repo *fakeListingRepo) Active(_ context.Context, episodeID string) ([]*market.Listing, error) {
	var active []*market.Listing
	for _, listing := range repo.listings {
		if listing.Status != market.StatusActive {
			continue
		}
		if episodeID == "" || listing.EpisodeID == episodeID {
			active = append(active, listing)
		}
	}
	return active, nil
}

type fakeEpisodes struct {
	episode *episode.Episode
}

func (directory *fakeEpisodes) GetEpisode(_ context.Context, id string) (*episode.Episode, error) {
	if directory.episode == nil || directory.episode.ID != id {
		return nil, apperr.NotFound("Episode")
	}
	return directory.episode, nil
}

type fakeSerials struct {
	owners  map[string]string
	updates []string
}

func serialKey(episodeID string, serialNumber int64) string {
	return fmt.Sprintf("%s#%d", episodeID, serialNumber)
}

func (registry *fakeSerials) SerialOwner(_ context.Context, episodeID string, serialNumber int64) (string, error) {
	owner, ok := registry.owners[serialKey(episodeID, serialNumber)]
	if !ok {
		return "", apperr.NotFound("Serial")
	}
	return owner, nil
}

func (registry *fakeSerials) UpdateSerialOwner(_ context.Context, episodeID string, serialNumber int64, ownerAccount string) error {
	registry.owners[serialKey(episodeID, serialNumber)] = ownerAccount
	registry.updates = append(registry.updates, serialKey(episodeID, serialNumber)+"->"+ownerAccount)
	return nil
}

type fakeLedger struct {
	transferErr error
	transfers   []ledger.TransferInput
}

func (client *fakeLedger) Transfer(_ context.Context, input ledger.TransferInput) (string, error) {
	if client.transferErr != nil {
		return "", client.transferErr
	}
	client.transfers = append(client.transfers, input)
	return "0.0.2@1756600000.000000001", nil
}

type fakeWallets struct {
	accounts map[string]string
}

func (resolver *fakeWallets) WalletAccount(_ context.Context, userID string) (string, error) {
	return resolver.accounts[userID], nil
}

// # Fixtures

const (
	sellerID      = "seller-1"
	sellerAccount = "0.0.100"
	buyerID       = "buyer-1"
	buyerAccount  = "0.0.200"
	episodeID     = "ep-1"
)

type harness struct {
	service *market.Service
	repo    *fakeListingRepo
	serials *fakeSerials
	ledger  *fakeLedger
}

func newHarness(listings ...*market.Listing) *harness {
	repo := newFakeListingRepo(listings...)
	serials := &fakeSerials{owners: map[string]string{
		serialKey(episodeID, 7): sellerAccount,
	}}
	tokenLedger := &fakeLedger{}

	service := market.NewService(
		repo,
		&fakeEpisodes{episode: &episode.Episode{ID: episodeID, CollectionTokenID: "0.0.5005"}},
		serials,
		tokenLedger,
		&fakeWallets{accounts: map[string]string{
			sellerID: sellerAccount,
			buyerID:  buyerAccount,
		}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return &harness{service: service, repo: repo, serials: serials, ledger: tokenLedger}
}

func fixedListing() *market.Listing {
	return &market.Listing{
		ID:            "listing-1",
		EpisodeID:     episodeID,
		SerialNumber:  7,
		SellerID:      sellerID,
		SellerAccount: sellerAccount,
		Type:          market.TypeFixed,
		Price:         25,
		Currency:      "HBAR",
		Status:        market.StatusActive,
	}
}

func endedAuction(highestBid float64, highestBidder string) *market.Listing {
	return &market.Listing{
		ID:            "auction-1",
		EpisodeID:     episodeID,
		SerialNumber:  7,
		SellerID:      sellerID,
		SellerAccount: sellerAccount,
		Type:          market.TypeAuction,
		Currency:      "HBAR",
		Status:        market.StatusActive,
		EndTime:       pointer.To(time.Now().Add(-time.Hour)),
		MinBid:        10,
		HighestBid:    highestBid,
		HighestBidder: highestBidder,
	}
}

func openAuction() *market.Listing {
	listing := endedAuction(0, "")
	listing.EndTime = pointer.To(time.Now().Add(time.Hour))
	return listing
}

// # Listing Creation

/*
TestCreateListing verifies that a serial owner can list, that the listing
defaults to a fixed-price HBAR sale, and that ownership is checked against
the minted-NFT mirror.
*/
func TestCreateListing(t *testing.T) {
	t.Run("owner lists at a fixed price", func(t *testing.T) {
		h := newHarness()

		listing, err := h.service.CreateListing(context.Background(), sellerID, market.CreateListingInput{
			EpisodeID:    episodeID,
			SerialNumber: 7,
			Price:        25,
		})

		require.NoError(t, err)
		assert.Equal(t, market.TypeFixed, listing.Type)
		assert.Equal(t, "HBAR", listing.Currency)
		assert.Equal(t, market.StatusActive, listing.Status)
		assert.Equal(t, sellerAccount, listing.SellerAccount)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		h := newHarness()

		_, err := h.service.CreateListing(context.Background(), buyerID, market.CreateListingInput{
			EpisodeID:    episodeID,
			SerialNumber: 7,
			Price:        25,
		})

		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})

	t.Run("unlinked wallet is rejected", func(t *testing.T) {
		h := newHarness()

		_, err := h.service.CreateListing(context.Background(), "wallet-less", market.CreateListingInput{
			EpisodeID:    episodeID,
			SerialNumber: 7,
			Price:        25,
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("duplicate listing conflicts", func(t *testing.T) {
		h := newHarness()
		h.repo.createErr = apperr.Conflict("This serial is already listed")

		_, err := h.service.CreateListing(context.Background(), sellerID, market.CreateListingInput{
			EpisodeID:    episodeID,
			SerialNumber: 7,
			Price:        25,
		})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})
}

/*
TestCreateListing_Validation verifies the per-type input gates before any
ownership lookup runs.
*/
func TestCreateListing_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input market.CreateListingInput
	}{
		{
			name:  "unknown listing type",
			input: market.CreateListingInput{EpisodeID: episodeID, SerialNumber: 7, Type: "raffle", Price: 25},
		},
		{
			name:  "missing serial number",
			input: market.CreateListingInput{EpisodeID: episodeID, Price: 25},
		},
		{
			name:  "fixed price must be positive",
			input: market.CreateListingInput{EpisodeID: episodeID, SerialNumber: 7, Price: 0},
		},
		{
			name:  "auction without end time",
			input: market.CreateListingInput{EpisodeID: episodeID, SerialNumber: 7, Type: market.TypeAuction, MinBid: 10},
		},
		{
			name:  "auction ending in the past",
			input: market.CreateListingInput{EpisodeID: episodeID, SerialNumber: 7, Type: market.TypeAuction, MinBid: 10, EndTime: pointer.To(time.Now().Add(-time.Minute))},
		},
		{
			name:  "auction without a minimum bid",
			input: market.CreateListingInput{EpisodeID: episodeID, SerialNumber: 7, Type: market.TypeAuction},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()

			_, err := h.service.CreateListing(context.Background(), sellerID, tt.input)

			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		})
	}
}

// # Fixed-Price Purchase

/*
TestBuy_Success verifies the full settlement path: claim, ledger transfer,
mirror move, and trade record.
*/
func TestBuy_Success(t *testing.T) {
	h := newHarness(fixedListing())

	transaction, err := h.service.Buy(context.Background(), buyerID, "listing-1")

	require.NoError(t, err)
	assert.Equal(t, market.TradeSale, transaction.Type)
	assert.Equal(t, buyerAccount, transaction.BuyerAccount)
	assert.Equal(t, sellerAccount, transaction.SellerAccount)
	assert.Equal(t, 25.0, transaction.Amount)
	assert.Equal(t, market.TradeCompleted, transaction.Status)

	assert.Equal(t, market.StatusSold, h.repo.listings["listing-1"].Status)

	require.Len(t, h.ledger.transfers, 1)
	assert.Equal(t, "0.0.5005", h.ledger.transfers[0].TokenID)
	assert.Equal(t, int64(7), h.ledger.transfers[0].SerialNumber)
	assert.Equal(t, sellerAccount, h.ledger.transfers[0].FromAccount)
	assert.Equal(t, buyerAccount, h.ledger.transfers[0].ToAccount)

	assert.Equal(t, buyerAccount, h.serials.owners[serialKey(episodeID, 7)])
}

/*
TestBuy_Gates verifies the pre-settlement rejections: auctions cannot be
bought directly and sellers cannot buy from themselves.
*/
func TestBuy_Gates(t *testing.T) {
	t.Run("auction is not directly purchasable", func(t *testing.T) {
		h := newHarness(openAuction())

		_, err := h.service.Buy(context.Background(), buyerID, "auction-1")

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("seller cannot buy own listing", func(t *testing.T) {
		h := newHarness(fixedListing())

		_, err := h.service.Buy(context.Background(), sellerID, "listing-1")

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestBuy_ClaimRace verifies that a listing already settled by a racing buyer
conflicts without touching the ledger.
*/
func TestBuy_ClaimRace(t *testing.T) {
	sold := fixedListing()
	sold.Status = market.StatusSold
	h := newHarness(sold)

	_, err := h.service.Buy(context.Background(), buyerID, "listing-1")

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	assert.Empty(t, h.ledger.transfers)
	assert.Empty(t, h.repo.transactions)
}

/*
TestBuy_LedgerFailureReleasesClaim verifies that a failed transfer returns
the claimed listing to active so it stays purchasable.
*/
func TestBuy_LedgerFailureReleasesClaim(t *testing.T) {
	h := newHarness(fixedListing())
	h.ledger.transferErr = apperr.LedgerError(errors.New("ledger service unreachable"))

	_, err := h.service.Buy(context.Background(), buyerID, "listing-1")

	require.Error(t, err)
	assert.Equal(t, "LEDGER_ERROR", apperr.As(err).Code)
	assert.Equal(t, market.StatusActive, h.repo.listings["listing-1"].Status)
	assert.Empty(t, h.repo.transactions)
	assert.Equal(t, sellerAccount, h.serials.owners[serialKey(episodeID, 7)])
}

// # Auctions

/*
TestPlaceBid verifies the bid acceptance gates and the recorded bid on
success.
*/
func TestPlaceBid(t *testing.T) {
	t.Run("valid bid is recorded", func(t *testing.T) {
		h := newHarness(openAuction())

		bid, err := h.service.PlaceBid(context.Background(), buyerID, "auction-1", 12)

		require.NoError(t, err)
		assert.Equal(t, buyerAccount, bid.BidderAccount)
		assert.Equal(t, 12.0, bid.Amount)
		assert.Equal(t, 12.0, h.repo.listings["auction-1"].HighestBid)
		assert.Equal(t, buyerAccount, h.repo.listings["auction-1"].HighestBidder)
	})

	t.Run("bid below minimum is rejected", func(t *testing.T) {
		h := newHarness(openAuction())

		_, err := h.service.PlaceBid(context.Background(), buyerID, "auction-1", 5)

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("bid must beat the current highest", func(t *testing.T) {
		auction := openAuction()
		auction.HighestBid = 20
		h := newHarness(auction)

		_, err := h.service.PlaceBid(context.Background(), buyerID, "auction-1", 20)

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("seller cannot bid on own auction", func(t *testing.T) {
		h := newHarness(openAuction())

		_, err := h.service.PlaceBid(context.Background(), sellerID, "auction-1", 12)

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("ended auction rejects bids", func(t *testing.T) {
		h := newHarness(endedAuction(0, ""))

		_, err := h.service.PlaceBid(context.Background(), buyerID, "auction-1", 12)

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("losing a concurrent raise conflicts", func(t *testing.T) {
		h := newHarness(openAuction())
		h.repo.bidDenied = true

		_, err := h.service.PlaceBid(context.Background(), buyerID, "auction-1", 12)

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
		assert.Empty(t, h.repo.bids)
	})
}

/*
TestCompleteAuction verifies auction settlement: only the seller after the
end time, with the highest bidder winning and bidless auctions expiring.
*/
func TestCompleteAuction(t *testing.T) {
	t.Run("settles with the highest bidder", func(t *testing.T) {
		h := newHarness(endedAuction(40, buyerAccount))

		transaction, err := h.service.CompleteAuction(context.Background(), sellerID, "auction-1")

		require.NoError(t, err)
		require.NotNil(t, transaction)
		assert.Equal(t, market.TradeAuctionSale, transaction.Type)
		assert.Equal(t, 40.0, transaction.Amount)
		assert.Equal(t, buyerAccount, transaction.BuyerAccount)
		assert.Equal(t, market.StatusSold, h.repo.listings["auction-1"].Status)
		assert.Equal(t, buyerAccount, h.serials.owners[serialKey(episodeID, 7)])
	})

	t.Run("no bids expires the auction", func(t *testing.T) {
		h := newHarness(endedAuction(0, ""))

		transaction, err := h.service.CompleteAuction(context.Background(), sellerID, "auction-1")

		require.NoError(t, err)
		assert.Nil(t, transaction)
		assert.Equal(t, market.StatusExpired, h.repo.listings["auction-1"].Status)
		assert.Empty(t, h.ledger.transfers)
	})

	t.Run("open auction cannot be completed", func(t *testing.T) {
		h := newHarness(openAuction())

		_, err := h.service.CompleteAuction(context.Background(), sellerID, "auction-1")

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("only the seller may settle", func(t *testing.T) {
		h := newHarness(endedAuction(40, buyerAccount))

		_, err := h.service.CompleteAuction(context.Background(), buyerID, "auction-1")

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

// # Cancellation

/*
TestCancelListing verifies withdrawal: the seller cancels once, cancelling
twice conflicts, and strangers see no listing at all.
*/
func TestCancelListing(t *testing.T) {
	h := newHarness(fixedListing())

	require.NoError(t, h.service.CancelListing(context.Background(), sellerID, "listing-1"))
	assert.Equal(t, market.StatusCancelled, h.repo.listings["listing-1"].Status)

	err := h.service.CancelListing(context.Background(), sellerID, "listing-1")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	err = h.service.CancelListing(context.Background(), buyerID, "listing-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestMarketplaceStats verifies the marketplace-wide summary: active listings
across every episode contribute, auctions are counted separately, and the
global floor is the cheapest positive asking price.
*/
func TestMarketplaceStats(t *testing.T) {
	otherEpisode := fixedListing()
	otherEpisode.ID = "listing-2"
	otherEpisode.EpisodeID = "ep-2"
	otherEpisode.Price = 5

	cancelled := fixedListing()
	cancelled.ID = "listing-3"
	cancelled.Status = market.StatusCancelled

	h := newHarness(fixedListing(), openAuction(), otherEpisode, cancelled)
	h.repo.tradedVolume = 99.5
	h.repo.totalSales = 4

	stats, err := h.service.MarketplaceStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.ActiveListings)
	assert.Equal(t, 1, stats.ActiveAuctions)
	assert.Equal(t, 5.0, stats.FloorPrice)
	assert.Equal(t, 30.0, stats.ListedVolume)
	assert.Equal(t, 99.5, stats.TradedVolume)
	assert.Equal(t, 4, stats.TotalSales)
}
