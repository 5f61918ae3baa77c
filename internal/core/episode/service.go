// Copyright (c) 2026 Mintara. All rights reserved.

package episode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mintara/mintara/internal/content"
	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/constants"
	"github.com/mintara/mintara/internal/platform/validate"
	"github.com/mintara/mintara/pkg/uuid"
)

// # Collaborator Contracts

// TokenLedger is the slice of the external ledger client this service needs.
type TokenLedger interface {
	CreateCollection(context context.Context, input ledger.CreateCollectionInput) (string, error)
	Mint(context context.Context, input ledger.MintInput) (*ledger.MintResult, error)
}

// ContentStore is the slice of the content store client this service needs.
type ContentStore interface {
	Upload(context context.Context, filename string, reader io.Reader) (*content.Ref, error)
}

// ComicDirectory resolves comics for ownership and roster checks.
type ComicDirectory interface {
	GetComic(context context.Context, identifier string) (*comic.Comic, error)
}

// WalletResolver maps a platform user to their linked ledger account.
// It returns the empty string when no wallet is linked.
type WalletResolver interface {
	WalletAccount(context context.Context, userID string) (string, error)
}

// PaymentVerifier confirms a pay-per-read payment for an episode.
// Payment processing itself is an external collaborator.
type PaymentVerifier interface {
	VerifyReadPayment(context context.Context, episodeID, accountID string) (bool, error)
}

// DenyAllPayments is the default [PaymentVerifier] until a payment provider
// is integrated. Paid episodes stay locked for everyone.
type DenyAllPayments struct{}

// VerifyReadPayment always reports no payment.
func (DenyAllPayments) VerifyReadPayment(context.Context, string, string) (bool, error) {
	return false, nil
}

// # Service Layer

// Service orchestrates the episode lifecycle: creation, publication,
// minting, and access-gated reading.
type Service struct {
	episodeRepo EpisodeRepository
	mirrorRepo  MirrorRepository
	comics      ComicDirectory
	tokenLedger TokenLedger
	store       ContentStore
	wallets     WalletResolver
	payments    PaymentVerifier
	logger      *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(
	episodeRepo EpisodeRepository,
	mirrorRepo MirrorRepository,
	comics ComicDirectory,
	tokenLedger TokenLedger,
	store ContentStore,
	wallets WalletResolver,
	payments PaymentVerifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		episodeRepo: episodeRepo,
		mirrorRepo:  mirrorRepo,
		comics:      comics,
		tokenLedger: tokenLedger,
		store:       store,
		wallets:     wallets,
		payments:    payments,
		logger:      logger,
	}
}

// # Creation

// Upload is one inbound file for episode content.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// CreateEpisodeInput carries everything needed to create a draft episode.
type CreateEpisodeInput struct {
	ComicID       string
	CreatorID     string
	Title         string
	Description   string
	EpisodeNumber int
	MintPrice     float64
	ReadPrice     float64
	Currency      Currency
	MaxSupply     int
	AccessType    AccessType
	IsFree        bool
	Cover         *Upload
	Pages         []Upload
}

/*
CreateEpisode creates a new episode in draft state.

Description: Validates input and ownership, uploads cover and pages to the
content store, provisions the NFT collection token on the ledger (exactly
once; the token ID is immutable afterwards), and persists the draft.

Parameters:
  - context: context.Context
  - input: CreateEpisodeInput

Returns:
  - *Episode: The persisted draft
  - error: Validation, ownership, upload, ledger, or persistence errors
*/
func (service *Service) CreateEpisode(context context.Context, input CreateEpisodeInput) (*Episode, error) {

	// Business attribute validation
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 300)
	validator.Range(FieldEpisodeNumber, input.EpisodeNumber, 1, 100000)
	validator.Range(FieldMaxSupply, input.MaxSupply, 0, 1000000)

	if input.Currency == "" {
		input.Currency = CurrencyHBAR
	}
	if !input.Currency.IsValid() {
		validator.OneOf(FieldCurrency, string(input.Currency), string(CurrencyHBAR), string(CurrencyUSDT))
	}

	if input.AccessType == "" {
		input.AccessType = AccessNFTHolders
	}
	if !input.AccessType.IsValid() {
		validator.OneOf(FieldAccessType, string(input.AccessType),
			string(AccessFree), string(AccessPublic), string(AccessNFTHolders), string(AccessPaid))
	}

	// Required content: cover plus at least one page
	validator.Custom(FieldCover, input.Cover == nil, "Cover image is required")
	validator.Custom(FieldPages, len(input.Pages) == 0, "At least one page is required")
	validator.Custom(FieldPages, len(input.Pages) > constants.MaxEpisodePages,
		fmt.Sprintf("At most %d pages are allowed", constants.MaxEpisodePages))

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Ownership gate: a missing comic and a foreign comic are indistinguishable
	// to the caller.
	owned, err := service.comics.GetComic(context, input.ComicID)
	if err != nil {
		return nil, err
	}
	if owned.CreatorID != input.CreatorID {
		return nil, apperr.NotFound("Comic")
	}

	// Content uploads
	coverRef, err := service.store.Upload(context, input.Cover.Filename, input.Cover.Reader)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(input.Pages))
	for index, upload := range input.Pages {
		pageRef, err := service.store.Upload(context, upload.Filename, upload.Reader)
		if err != nil {
			return nil, err
		}
		pages = append(pages, Page{Index: index + 1, Hash: pageRef.Hash, URL: pageRef.URL})
	}

	// Collection token provisioning
	tokenID, err := service.tokenLedger.CreateCollection(context, ledger.CreateCollectionInput{
		Name:           fmt.Sprintf("%s #%d", owned.Title, input.EpisodeNumber),
		Symbol:         collectionSymbol(owned.Title),
		Memo:           input.Title,
		MaxSupply:      input.MaxSupply,
		RoyaltyPercent: owned.RoyaltyPercentage,
	})
	if err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:                uuid.New(),
		ComicID:           input.ComicID,
		EpisodeNumber:     input.EpisodeNumber,
		Title:             input.Title,
		Description:       input.Description,
		CollectionTokenID: tokenID,
		CoverHash:         coverRef.Hash,
		CoverURL:          coverRef.URL,
		Pages:             pages,
		PageCount:         len(pages),
		Pricing: Pricing{
			MintPrice: input.MintPrice,
			ReadPrice: input.ReadPrice,
			Currency:  input.Currency,
		},
		Supply:     Supply{Max: input.MaxSupply},
		Status:     StatusDraft,
		IsFree:     input.IsFree,
		AccessType: input.AccessType,
	}

	if err := service.episodeRepo.Create(context, episode); err != nil {
		return nil, err
	}

	service.logger.Info("episode_created",
		slog.String("episode_id", episode.ID),
		slog.String("comic_id", episode.ComicID),
		slog.Int("episode_number", episode.EpisodeNumber),
		slog.String("collection_token_id", tokenID),
	)

	return episode, nil
}

// # Lookups

/*
GetEpisode fetches a single episode by ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Episode: The hydrated entity
  - error: apperr.NotFound if no match is found
*/
func (service *Service) GetEpisode(context context.Context, id string) (*Episode, error) {
	return service.episodeRepo.FindByID(context, id)
}

/*
ListByComic returns the episode roster of a comic ordered by number.

Parameters:
  - context: context.Context
  - comicID: string

Returns:
  - []*Episode: Ordered roster, pages omitted
  - error: Repository failures
*/
func (service *Service) ListByComic(context context.Context, comicID string) ([]*Episode, error) {
	return service.episodeRepo.ListByComic(context, comicID)
}

// # Lifecycle Transitions

// PublishInput carries the minting rules activated on publication.
type PublishInput struct {
	StartTime     *time.Time
	EndTime       *time.Time
	MaxPerWallet  int
	WhitelistOnly bool
	Whitelist     []string
}

/*
Publish takes an episode live and activates its minting rules.

Description: Allowed only from draft, ready, or paused. Re-publishing a live
episode is rejected with a conflict; rule changes on a live episode must go
through an explicit pause first.

Parameters:
  - context: context.Context
  - episodeID: string
  - creatorID: string (must own the parent comic)
  - input: PublishInput

Returns:
  - *Episode: The published episode
  - error: apperr.Conflict on a forbidden transition, ownership or
    persistence errors
*/
func (service *Service) Publish(context context.Context, episodeID, creatorID string, input PublishInput) (*Episode, error) {
	episode, err := service.ownedEpisode(context, episodeID, creatorID)
	if err != nil {
		return nil, err
	}

	switch episode.Status {
	case StatusDraft, StatusReady, StatusPaused:
		// allowed
	default:
		return nil, apperr.Conflict(
			fmt.Sprintf("Episode cannot be published from status %q", episode.Status))
	}

	if input.EndTime != nil && input.StartTime != nil && input.EndTime.Before(*input.StartTime) {
		return nil, apperr.ValidationError("Mint window end must be after its start")
	}

	rules := MintingRules{
		Enabled:       true,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		MaxPerWallet:  input.MaxPerWallet,
		WhitelistOnly: input.WhitelistOnly,
		Whitelist:     input.Whitelist,
	}

	if err := service.episodeRepo.UpdateRules(context, episodeID, rules); err != nil {
		return nil, err
	}

	publishedAt := time.Now()
	if err := service.episodeRepo.UpdateStatus(context, episodeID, StatusPublished, true, &publishedAt); err != nil {
		return nil, err
	}

	service.logger.Info("episode_published",
		slog.String("episode_id", episodeID),
		slog.Bool("whitelist_only", rules.WhitelistOnly),
	)

	episode.Status = StatusPublished
	episode.IsLive = true
	episode.Rules = rules
	episode.PublishedAt = &publishedAt
	return episode, nil
}

/*
Pause takes a published episode offline without archiving it.

Parameters:
  - context: context.Context
  - episodeID: string
  - creatorID: string

Returns:
  - error: apperr.Conflict unless the episode is published
*/
func (service *Service) Pause(context context.Context, episodeID, creatorID string) error {
	return service.transition(context, episodeID, creatorID, StatusPaused, false)
}

/*
Archive retires an episode permanently. Archived is terminal.

Parameters:
  - context: context.Context
  - episodeID: string
  - creatorID: string

Returns:
  - error: apperr.Conflict unless the episode is published or paused
*/
func (service *Service) Archive(context context.Context, episodeID, creatorID string) error {
	return service.transition(context, episodeID, creatorID, StatusArchived, false)
}

// MarkReady moves a draft or processing episode to ready.
func (service *Service) MarkReady(context context.Context, episodeID, creatorID string) error {
	return service.transition(context, episodeID, creatorID, StatusReady, false)
}

// transition applies one state-machine step after an ownership check.
func (service *Service) transition(context context.Context, episodeID, creatorID string, target Status, isLive bool) error {
	episode, err := service.ownedEpisode(context, episodeID, creatorID)
	if err != nil {
		return err
	}

	if !episode.Status.CanTransitionTo(target) {
		return apperr.Conflict(
			fmt.Sprintf("Episode cannot move from status %q to %q", episode.Status, target))
	}

	if err := service.episodeRepo.UpdateStatus(context, episodeID, target, isLive, nil); err != nil {
		return err
	}

	service.logger.Info("episode_status_changed",
		slog.String("episode_id", episodeID),
		slog.String("from", string(episode.Status)),
		slog.String("to", string(target)),
	)

	return nil
}

// # Minting

/*
Mint mints quantity serials of an episode to the caller's linked wallet.

Description: All rule checks run strictly before the ledger call. Supply is
reserved with an atomic conditional increment so two concurrent mints can
never pass the cap together. If the ledger rejects the mint, the reservation
is released and no mirror row is written. If recording the mirror rows fails
after a successful ledger call, the reconciliation job repairs the mirror
from ledger truth.

Parameters:
  - context: context.Context
  - episodeID: string
  - userID: string (must have a linked wallet)
  - quantity: int (1..constants.MaxMintQuantity)

Returns:
  - []MintedNFT: The appended mirror rows
  - error: The minting error taxonomy (disabled, window, whitelist, supply),
    apperr.LedgerError, or persistence errors
*/
func (service *Service) Mint(context context.Context, episodeID, userID string, quantity int) ([]MintedNFT, error) {
	if quantity < 1 || quantity > constants.MaxMintQuantity {
		return nil, apperr.ValidationError(
			fmt.Sprintf("Quantity must be between 1 and %d", constants.MaxMintQuantity))
	}

	accountID, err := service.requireWallet(context, userID)
	if err != nil {
		return nil, err
	}

	episode, err := service.episodeRepo.FindByID(context, episodeID)
	if err != nil {
		return nil, err
	}

	if err := service.checkMintRules(context, episode, accountID, quantity); err != nil {
		return nil, err
	}

	// Authoritative supply reservation. The quick headroom check above is
	// only a fast path; this conditional update is the real gate.
	reserved, err := service.episodeRepo.ReserveSupply(context, episodeID, quantity)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, apperr.SupplyExceeded("Not enough supply left for this mint")
	}

	result, err := service.tokenLedger.Mint(context, ledger.MintInput{
		TokenID:      episode.CollectionTokenID,
		ToAccount:    accountID,
		Quantity:     quantity,
		MetadataHash: episode.CoverHash,
	})
	if err != nil {
		if releaseErr := service.episodeRepo.ReleaseSupply(context, episodeID, quantity); releaseErr != nil {
			service.logger.Error("mint_reservation_release_failed",
				slog.String("episode_id", episodeID),
				slog.Any("error", releaseErr),
			)
		}
		return nil, err
	}

	mintedAt := result.ConsensusAt
	if mintedAt.IsZero() {
		mintedAt = time.Now()
	}

	records := make([]MintedNFT, 0, len(result.SerialNumbers))
	for _, serial := range result.SerialNumbers {
		records = append(records, MintedNFT{
			ID:            uuid.New(),
			EpisodeID:     episodeID,
			SerialNumber:  serial,
			OwnerAccount:  accountID,
			MintedAt:      mintedAt,
			TransactionID: result.TransactionID,
		})
	}

	earnings := episode.Pricing.MintPrice * float64(quantity)
	if err := service.episodeRepo.RecordMint(context, episodeID, records, earnings); err != nil {
		// Ledger truth is ahead of the mirror now. The reconcile job will
		// append the missing rows; surface the failure for observability.
		service.logger.Error("mint_mirror_append_failed",
			slog.String("episode_id", episodeID),
			slog.String("transaction_id", result.TransactionID),
			slog.Any("error", err),
		)
		return nil, apperr.Internal(err)
	}

	service.logger.Info("episode_minted",
		slog.String("episode_id", episodeID),
		slog.String("account_id", accountID),
		slog.Int("quantity", quantity),
		slog.String("transaction_id", result.TransactionID),
	)

	return records, nil
}

// checkMintRules enforces the pre-ledger mint gates in their required order.
func (service *Service) checkMintRules(context context.Context, episode *Episode, accountID string, quantity int) error {
	if episode.Status != StatusPublished || !episode.Rules.Enabled {
		return apperr.MintingDisabled("Minting is not enabled for this episode")
	}

	now := time.Now()
	if episode.Rules.StartTime != nil && now.Before(*episode.Rules.StartTime) {
		return apperr.MintWindowClosed("Minting has not started yet")
	}
	if episode.Rules.EndTime != nil && now.After(*episode.Rules.EndTime) {
		return apperr.MintWindowClosed("Minting has ended")
	}

	if episode.Rules.WhitelistOnly && !episode.Rules.IsWhitelisted(accountID) {
		return apperr.NotWhitelisted(accountID)
	}

	if episode.Rules.MaxPerWallet > 0 {
		held, err := service.mirrorRepo.CountByOwner(context, episode.ID, accountID)
		if err != nil {
			return err
		}
		if held+quantity > episode.Rules.MaxPerWallet {
			return apperr.SupplyExceeded(
				fmt.Sprintf("Wallet cap of %d would be exceeded", episode.Rules.MaxPerWallet))
		}
	}

	if !episode.HasSupplyHeadroom(quantity) {
		return apperr.SupplyExceeded("Not enough supply left for this mint")
	}

	return nil
}

// # Reading

// ReadProgress is the reader-facing progress snapshot returned with content.
type ReadProgress struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	Percentage  int  `json:"percentage"`
	Completed   bool `json:"completed"`
}

// ReadResult is the payload of an access-checked read.
type ReadResult struct {
	EpisodeID  string      `json:"episode_id"`
	Title      string      `json:"title"`
	Access     AccessLevel `json:"access"`
	Pages      []Page      `json:"pages"`
	PageCount  int         `json:"page_count"`
	AccessType AccessType  `json:"access_type"`
}

/*
Read performs an access-checked read of an episode's pages.

Description: Resolves the caller's wallet (absence is fine; gating then sees
an empty account), evaluates [CanAccess] against the minted-NFT mirror, and
returns either the full page set or the preview slice. Bumps the read
counter atomically.

Parameters:
  - context: context.Context
  - episodeID: string
  - userID: string

Returns:
  - *ReadResult: Pages and the granted access level
  - error: apperr.Forbidden when access is denied, apperr.NotFound when the
    episode is not readable
*/
func (service *Service) Read(context context.Context, episodeID, userID string) (*ReadResult, error) {
	episode, err := service.episodeRepo.FindByID(context, episodeID)
	if err != nil {
		return nil, err
	}

	if episode.Status != StatusPublished || !episode.IsLive {
		return nil, apperr.NotFound("Episode")
	}

	accountID, err := service.wallets.WalletAccount(context, userID)
	if err != nil {
		return nil, err
	}

	owners, err := service.mirrorRepo.OwnerAccounts(context, episodeID)
	if err != nil {
		return nil, err
	}

	paymentVerified := false
	if episode.AccessType == AccessPaid && accountID != "" {
		paymentVerified, err = service.payments.VerifyReadPayment(context, episodeID, accountID)
		if err != nil {
			return nil, err
		}
	}

	level := CanAccess(episode, owners, accountID, paymentVerified)
	if level == AccessDenied {
		return nil, apperr.Forbidden("You need to own this episode's NFT to read it")
	}

	pages := episode.Pages
	if level == AccessPreview {
		pages = episode.PreviewPages()
	}

	if err := service.episodeRepo.IncrementStat(context, episodeID, StatTotalReads, 1); err != nil {
		service.logger.Warn("read_counter_increment_failed",
			slog.String("episode_id", episodeID),
			slog.Any("error", err),
		)
	}

	return &ReadResult{
		EpisodeID:  episode.ID,
		Title:      episode.Title,
		Access:     level,
		Pages:      pages,
		PageCount:  episode.PageCount,
		AccessType: episode.AccessType,
	}, nil
}

// RegisterFirstRead bumps the unique-reader counter. Called by the reading
// tracker when it creates a progress record for the first time.
func (service *Service) RegisterFirstRead(context context.Context, episodeID string) error {
	return service.episodeRepo.IncrementStat(context, episodeID, StatUniqueReaders, 1)
}

// # Collection

/*
MyCollection lists the caller's owned serials grouped per episode.

Parameters:
  - context: context.Context
  - userID: string (must have a linked wallet)

Returns:
  - []*OwnedCollection: One entry per episode with held serials
  - error: apperr.ValidationError when no wallet is linked
*/
func (service *Service) MyCollection(context context.Context, userID string) ([]*OwnedCollection, error) {
	accountID, err := service.requireWallet(context, userID)
	if err != nil {
		return nil, err
	}
	return service.mirrorRepo.CollectionByOwner(context, accountID)
}

// # Internal Helpers

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

// ownedEpisode loads an episode and verifies the caller owns its comic.
func (service *Service) ownedEpisode(context context.Context, episodeID, creatorID string) (*Episode, error) {
	episode, err := service.episodeRepo.FindByID(context, episodeID)
	if err != nil {
		return nil, err
	}

	parent, err := service.comics.GetComic(context, episode.ComicID)
	if err != nil {
		return nil, err
	}
	if parent.CreatorID != creatorID {
		return nil, apperr.NotFound("Episode")
	}

	return episode, nil
}

// collectionSymbol derives a short uppercase ticker from a comic title.
func collectionSymbol(title string) string {
	symbol := make([]rune, 0, 6)
	for _, r := range title {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			symbol = append(symbol, r)
		}
		if r >= 'a' && r <= 'z' {
			symbol = append(symbol, r-'a'+'A')
		}
		if len(symbol) == 6 {
			break
		}
	}
	if len(symbol) == 0 {
		return "MNTR"
	}
	return string(symbol)
}
