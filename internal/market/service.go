// Copyright (c) 2026 Mintara. All rights reserved.

package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/validate"
	"github.com/mintara/mintara/pkg/uuid"
)

// # Collaborator Contracts

// TokenLedger is the slice of the external ledger client this service needs.
type TokenLedger interface {
	Transfer(context context.Context, input ledger.TransferInput) (string, error)
}

// EpisodeDirectory resolves episodes for collection token lookups.
type EpisodeDirectory interface {
	GetEpisode(context context.Context, id string) (*episode.Episode, error)
}

// SerialRegistry is the slice of the minted-NFT mirror the marketplace
// needs: resolving and moving serial ownership.
type SerialRegistry interface {
	SerialOwner(context context.Context, episodeID string, serialNumber int64) (string, error)
	UpdateSerialOwner(context context.Context, episodeID string, serialNumber int64, ownerAccount string) error
}

// WalletResolver maps a platform user to their linked ledger account.
type WalletResolver interface {
	WalletAccount(context context.Context, userID string) (string, error)
}

// # Service Layer

// Service orchestrates listings, bids, and ledger-settled trades.
type Service struct {
	repository  ListingRepository
	episodes    EpisodeDirectory
	serials     SerialRegistry
	tokenLedger TokenLedger
	wallets     WalletResolver
	logger      *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(
	repository ListingRepository,
	episodes EpisodeDirectory,
	serials SerialRegistry,
	tokenLedger TokenLedger,
	wallets WalletResolver,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:  repository,
		episodes:    episodes,
		serials:     serials,
		tokenLedger: tokenLedger,
		wallets:     wallets,
		logger:      logger,
	}
}

// # Listing Creation

// CreateListingInput carries everything needed to list a serial.
type CreateListingInput struct {
	EpisodeID    string
	SerialNumber int64
	Type         ListingType
	Price        float64
	Currency     string

	// Auction fields, ignored for fixed-price listings.
	MinBid  float64
	EndTime *time.Time
}

/*
CreateListing lists one owned serial for sale.

Description: The caller must hold the serial in their linked wallet per the
minted-NFT mirror. A serial can carry at most one active listing; the
database enforces this even under concurrent creation.

Parameters:
  - context: context.Context
  - userID: string
  - input: CreateListingInput

Returns:
  - *Listing: The active listing
  - error: Validation, ownership, or persistence errors
*/
func (service *Service) CreateListing(context context.Context, userID string, input CreateListingInput) (*Listing, error) {
	if input.Type == "" {
		input.Type = TypeFixed
	}
	if input.Currency == "" {
		input.Currency = string(episode.CurrencyHBAR)
	}

	validator := &validate.Validator{}
	validator.Custom("type", !input.Type.IsValid(), "Unknown listing type")
	validator.Custom("serial_number", input.SerialNumber < 1, "Serial number is required")

	if input.Type == TypeFixed {
		validator.Custom("price", input.Price <= 0, "Price must be positive")
	} else {
		validator.Custom("min_bid", input.MinBid <= 0, "Minimum bid must be positive")
		validator.Custom("end_time", input.EndTime == nil, "Auctions need an end time")
		if input.EndTime != nil {
			validator.Custom("end_time", !input.EndTime.After(time.Now()), "Auction end must be in the future")
		}
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	accountID, err := service.requireWallet(context, userID)
	if err != nil {
		return nil, err
	}

	// Ownership per the mirror; the ledger stays authoritative but a stale
	// mirror only ever blocks, never leaks, a listing.
	owner, err := service.serials.SerialOwner(context, input.EpisodeID, input.SerialNumber)
	if err != nil {
		return nil, err
	}
	if owner != accountID {
		return nil, apperr.Forbidden("You do not own this serial")
	}

	listing := &Listing{
		ID:            uuid.New(),
		EpisodeID:     input.EpisodeID,
		SerialNumber:  input.SerialNumber,
		SellerID:      userID,
		SellerAccount: accountID,
		Type:          input.Type,
		Price:         input.Price,
		Currency:      input.Currency,
		Status:        StatusActive,
		EndTime:       input.EndTime,
		MinBid:        input.MinBid,
	}

	if err := service.repository.Create(context, listing); err != nil {
		return nil, err
	}

	service.logger.Info("listing_created",
		slog.String("listing_id", listing.ID),
		slog.String("episode_id", listing.EpisodeID),
		slog.Int64("serial_number", listing.SerialNumber),
		slog.String("type", string(listing.Type)),
	)

	return listing, nil
}

// # Discovery

/*
GetListing returns one listing.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Listing: Hydrated entity
  - error: apperr.NotFound
*/
func (service *Service) GetListing(context context.Context, id string) (*Listing, error) {
	return service.repository.FindByID(context, id)
}

/*
ListListings returns the filtered marketplace view.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Listing: Matching listings
  - int: Total count
  - error: Repository failures
*/
func (service *Service) ListListings(context context.Context, filter Filter, limit, offset int) ([]*Listing, int, error) {
	return service.repository.List(context, filter, limit, offset)
}

/*
MyListings lists the caller's own listings across all statuses.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int
  - offset: int

Returns:
  - []*Listing: The caller's listings
  - int: Total count
  - error: Repository failures
*/
func (service *Service) MyListings(context context.Context, userID string, limit, offset int) ([]*Listing, int, error) {
	return service.repository.List(context, Filter{SellerID: userID}, limit, offset)
}

/*
EpisodeStats summarizes market activity for one episode collection.

Parameters:
  - context: context.Context
  - episodeID: string

Returns:
  - *Stats: Floor price, listed and traded volume
  - error: Repository failures
*/
func (service *Service) EpisodeStats(context context.Context, episodeID string) (*Stats, error) {
	return service.summarize(context, episodeID)
}

/*
MarketplaceStats summarizes market activity across every collection: active
listing and auction counts, listed volume, the global floor price, and the
settled trade volume.

Parameters:
  - context: context.Context

Returns:
  - *Stats: Marketplace-wide summary
  - error: Repository failures
*/
func (service *Service) MarketplaceStats(context context.Context) (*Stats, error) {
	return service.summarize(context, "")
}

// summarize aggregates one episode's market, or the whole marketplace when
// episodeID is empty.
func (service *Service) summarize(context context.Context, episodeID string) (*Stats, error) {
	active, err := service.repository.Active(context, episodeID)
	if err != nil {
		return nil, err
	}

	tradedVolume, totalSales, err := service.repository.TradeSummary(context, episodeID)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(active, tradedVolume, totalSales)
	return &stats, nil
}

// # Trading

/*
Buy settles a fixed-price listing through the ledger.

Description: The listing is claimed atomically before the ledger transfer;
of two racing buyers exactly one proceeds. A failed transfer releases the
claim. After settlement the mirror follows the new owner and the trade is
recorded.

Parameters:
  - context: context.Context
  - userID: string (the buyer)
  - listingID: string

Returns:
  - *Transaction: The settled trade
  - error: apperr.Conflict when the listing is gone, apperr.LedgerError on
    transfer failure
*/
func (service *Service) Buy(context context.Context, userID, listingID string) (*Transaction, error) {
	buyerAccount, err := service.requireWallet(context, userID)
	if err != nil {
		return nil, err
	}

	listing, err := service.repository.FindByID(context, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Type != TypeFixed {
		return nil, apperr.ValidationError("Auctions settle through bids, not direct purchase")
	}
	if listing.SellerID == userID {
		return nil, apperr.ValidationError("You cannot buy your own listing")
	}

	return service.settle(context, listing, buyerAccount, listing.Price, TradeSale)
}

/*
PlaceBid records a bid on an open auction.

Description: The bid must meet the minimum and beat the current highest.
The raise is conditional in the database, so two concurrent bids of the
same amount cannot both win.

Parameters:
  - context: context.Context
  - userID: string
  - listingID: string
  - amount: float64

Returns:
  - *Bid: The recorded bid
  - error: Validation errors, apperr.Conflict when outbid mid-flight
*/
func (service *Service) PlaceBid(context context.Context, userID, listingID string, amount float64) (*Bid, error) {
	bidderAccount, err := service.requireWallet(context, userID)
	if err != nil {
		return nil, err
	}

	listing, err := service.repository.FindByID(context, listingID)
	if err != nil {
		return nil, err
	}

	if !listing.IsAuctionOpen(time.Now()) {
		return nil, apperr.Conflict("This auction is not accepting bids")
	}
	if listing.SellerID == userID {
		return nil, apperr.ValidationError("You cannot bid on your own auction")
	}
	if amount < listing.MinBid {
		return nil, apperr.ValidationError("Bid is below the minimum")
	}
	if amount <= listing.HighestBid {
		return nil, apperr.ValidationError("Bid must beat the current highest")
	}

	bid := &Bid{
		ID:            uuid.New(),
		ListingID:     listingID,
		BidderID:      userID,
		BidderAccount: bidderAccount,
		Amount:        amount,
		PlacedAt:      time.Now(),
	}

	accepted, err := service.repository.RecordBid(context, bid)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperr.Conflict("A higher bid arrived first")
	}

	service.logger.Info("bid_placed",
		slog.String("listing_id", listingID),
		slog.String("bidder_account", bidderAccount),
		slog.Float64("amount", amount),
	)

	return bid, nil
}

/*
CompleteAuction settles an ended auction with its highest bidder.

Description: Only the seller may settle. An auction that ended without bids
expires instead of selling.

Parameters:
  - context: context.Context
  - userID: string (must be the seller)
  - listingID: string

Returns:
  - *Transaction: The settled trade, nil when the auction expired
  - error: apperr.Conflict while the auction is still open
*/
func (service *Service) CompleteAuction(context context.Context, userID, listingID string) (*Transaction, error) {
	listing, err := service.repository.FindByID(context, listingID)
	if err != nil {
		return nil, err
	}

	if listing.SellerID != userID {
		return nil, apperr.NotFound("Listing")
	}
	if listing.Type != TypeAuction {
		return nil, apperr.ValidationError("Only auctions can be completed")
	}
	if listing.IsAuctionOpen(time.Now()) {
		return nil, apperr.Conflict("The auction has not ended yet")
	}
	if listing.Status != StatusActive {
		return nil, apperr.Conflict("The auction is already settled")
	}

	// No bids: the auction expires and the serial stays with the seller.
	if listing.HighestBidder == "" {
		claimed, err := service.repository.ClaimStatus(context, listingID, StatusActive, StatusExpired)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, apperr.Conflict("The auction is already settled")
		}
		return nil, nil
	}

	return service.settle(context, listing, listing.HighestBidder, listing.HighestBid, TradeAuctionSale)
}

/*
CancelListing withdraws an active listing.

Parameters:
  - context: context.Context
  - userID: string (must be the seller)
  - listingID: string

Returns:
  - error: apperr.Conflict when the listing is no longer active
*/
func (service *Service) CancelListing(context context.Context, userID, listingID string) error {
	listing, err := service.repository.FindByID(context, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != userID {
		return apperr.NotFound("Listing")
	}

	claimed, err := service.repository.ClaimStatus(context, listingID, StatusActive, StatusCancelled)
	if err != nil {
		return err
	}
	if !claimed {
		return apperr.Conflict("The listing is no longer active")
	}

	service.logger.Info("listing_cancelled", slog.String("listing_id", listingID))
	return nil
}

// # Internal Helpers

// settle claims the listing, transfers the serial on the ledger, moves the
// mirror, and records the trade.
func (service *Service) settle(context context.Context, listing *Listing, buyerAccount string, amount float64, tradeType string) (*Transaction, error) {
	claimed, err := service.repository.ClaimStatus(context, listing.ID, StatusActive, StatusSold)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.Conflict("The listing is no longer available")
	}

	target, err := service.episodes.GetEpisode(context, listing.EpisodeID)
	if err != nil {
		service.releaseClaim(context, listing.ID)
		return nil, err
	}

	transferID, err := service.tokenLedger.Transfer(context, ledger.TransferInput{
		TokenID:      target.CollectionTokenID,
		SerialNumber: listing.SerialNumber,
		FromAccount:  listing.SellerAccount,
		ToAccount:    buyerAccount,
	})
	if err != nil {
		service.releaseClaim(context, listing.ID)
		return nil, err
	}

	// Ledger truth moved; follow it in the mirror so access gating and
	// future listings see the new owner right away.
	if err := service.serials.UpdateSerialOwner(context, listing.EpisodeID, listing.SerialNumber, buyerAccount); err != nil {
		service.logger.Error("mirror_owner_update_failed",
			slog.String("listing_id", listing.ID),
			slog.String("transfer_id", transferID),
			slog.Any("error", err),
		)
	}

	transaction := &Transaction{
		ID:            uuid.New(),
		ListingID:     listing.ID,
		Type:          tradeType,
		BuyerAccount:  buyerAccount,
		SellerAccount: listing.SellerAccount,
		Amount:        amount,
		Currency:      listing.Currency,
		Status:        TradeCompleted,
		ExecutedAt:    time.Now(),
	}

	if err := service.repository.CreateTransaction(context, transaction); err != nil {
		service.logger.Error("trade_record_failed",
			slog.String("listing_id", listing.ID),
			slog.String("transfer_id", transferID),
			slog.Any("error", err),
		)
		return nil, apperr.Internal(err)
	}

	service.logger.Info("trade_settled",
		slog.String("listing_id", listing.ID),
		slog.String("type", tradeType),
		slog.Float64("amount", amount),
		slog.String("transfer_id", transferID),
	)

	return transaction, nil
}

// releaseClaim returns a claimed listing to active after a failed settlement.
func (service *Service) releaseClaim(context context.Context, listingID string) {
	if _, err := service.repository.ClaimStatus(context, listingID, StatusSold, StatusActive); err != nil {
		service.logger.Error("listing_claim_release_failed",
			slog.String("listing_id", listingID),
			slog.Any("error", err),
		)
	}
}

// requireWallet resolves the caller's linked account or fails with a 400.
func (service *Service) requireWallet(context context.Context, userID string) (string, error) {
	accountID, err := service.wallets.WalletAccount(context, userID)
	if err != nil {
		return "", err
	}
	if accountID == "" {
		return "", apperr.ValidationError("Wallet not connected. Link a wallet first.")
	}
	return accountID, nil
}
