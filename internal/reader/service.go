// Copyright (c) 2026 Mintara. All rights reserved.

package reader

import (
	"context"
	"log/slog"

	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/pkg/uuid"
)

// # Collaborator Contracts

// EpisodeDirectory resolves episodes for progress bookkeeping.
type EpisodeDirectory interface {
	GetEpisode(context context.Context, id string) (*episode.Episode, error)
}

// FirstReadRegistrar is notified exactly once per (user, episode) pair so
// the episode's unique-reader counter stays accurate.
type FirstReadRegistrar interface {
	RegisterFirstRead(context context.Context, episodeID string) error
}

// ComicDirectory resolves comics for download gating.
type ComicDirectory interface {
	GetComic(context context.Context, identifier string) (*comic.Comic, error)
}

// OwnershipChecker answers whether an account holds any serial of a comic.
type OwnershipChecker interface {
	OwnsAnyOfComic(context context.Context, comicID, accountID string) (bool, error)
}

// WalletResolver maps a platform user to their linked ledger account.
type WalletResolver interface {
	WalletAccount(context context.Context, userID string) (string, error)
}

// # Service Layer

// Service tracks reading progress and serves gated downloads.
type Service struct {
	repository HistoryRepository
	episodes   EpisodeDirectory
	registrar  FirstReadRegistrar
	comics     ComicDirectory
	ownership  OwnershipChecker
	wallets    WalletResolver
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(
	repository HistoryRepository,
	episodes EpisodeDirectory,
	registrar FirstReadRegistrar,
	comics ComicDirectory,
	ownership OwnershipChecker,
	wallets WalletResolver,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository: repository,
		episodes:   episodes,
		registrar:  registrar,
		comics:     comics,
		ownership:  ownership,
		wallets:    wallets,
		logger:     logger,
	}
}

// # Progress Tracking

/*
GetOrCreate returns the user's progress record for an episode, creating it
on first access.

Description: A fresh record starts at page 1 and snapshots the episode's
page count and access type. Creation also registers the unique read with
the episode domain.

Parameters:
  - context: context.Context
  - userID: string
  - episodeID: string

Returns:
  - *ReadHistory: The progress record
  - error: apperr.NotFound for unknown episodes, persistence failures
*/
func (service *Service) GetOrCreate(context context.Context, userID, episodeID string) (*ReadHistory, error) {
	existing, err := service.repository.FindByUserAndEpisode(context, userID, episodeID)
	if err == nil {
		return existing, nil
	}
	if apperr.As(err) == nil || apperr.As(err).Code != "NOT_FOUND" {
		return nil, err
	}

	target, err := service.episodes.GetEpisode(context, episodeID)
	if err != nil {
		return nil, err
	}

	percentage, completed := ComputeProgress(1, target.PageCount)
	history := &ReadHistory{
		ID:          uuid.New(),
		UserID:      userID,
		ComicID:     target.ComicID,
		EpisodeID:   &episodeID,
		CurrentPage: 1,
		TotalPages:  target.PageCount,
		Percentage:  percentage,
		Completed:   completed,
		AccessType:  string(target.AccessType),
	}

	if err := service.repository.Create(context, history); err != nil {
		// A concurrent first read may have created the record already.
		if ae := apperr.As(err); ae != nil && ae.Code == "CONFLICT" {
			return service.repository.FindByUserAndEpisode(context, userID, episodeID)
		}
		return nil, err
	}

	if err := service.registrar.RegisterFirstRead(context, episodeID); err != nil {
		service.logger.Warn("unique_reader_count_failed",
			slog.String("episode_id", episodeID),
			slog.Any("error", err),
		)
	}

	return history, nil
}

/*
UpdateProgress moves the user's page position within an episode.

Description: Positions outside [1, totalPages] are rejected without touching
the record. Percentage and the completed flag are derived, never supplied by
the client.

Parameters:
  - context: context.Context
  - userID: string
  - episodeID: string
  - currentPage: int

Returns:
  - *ReadHistory: The updated record
  - error: apperr.ValidationError for out-of-range pages
*/
func (service *Service) UpdateProgress(context context.Context, userID, episodeID string, currentPage int) (*ReadHistory, error) {
	history, err := service.GetOrCreate(context, userID, episodeID)
	if err != nil {
		return nil, err
	}

	if currentPage < 1 || currentPage > history.TotalPages {
		return nil, apperr.ValidationError("Page position is out of range")
	}

	percentage, completed := ComputeProgress(currentPage, history.TotalPages)

	if err := service.repository.UpdateProgress(context, history.ID, currentPage, percentage, completed); err != nil {
		return nil, err
	}

	history.CurrentPage = currentPage
	history.Percentage = percentage
	history.Completed = completed
	return history, nil
}

/*
GetOrCreateForComic returns the user's whole-comic progress record, creating
it on first access.

Description: Comic-level records carry a nil episode reference and snapshot
the comic's total page count. They track linear reading of the complete
work, independent of any per-episode record, and do not feed the episode
unique-reader counters.

Parameters:
  - context: context.Context
  - userID: string
  - comicID: string (UUID or slug)

Returns:
  - *ReadHistory: The progress record
  - error: apperr.NotFound for unknown comics, persistence failures
*/
func (service *Service) GetOrCreateForComic(context context.Context, userID, comicID string) (*ReadHistory, error) {
	// The identifier may be a slug, so resolve the comic before the lookup.
	target, err := service.comics.GetComic(context, comicID)
	if err != nil {
		return nil, err
	}

	existing, err := service.repository.FindByUserAndComic(context, userID, target.ID)
	if err == nil {
		return existing, nil
	}
	if apperr.As(err) == nil || apperr.As(err).Code != "NOT_FOUND" {
		return nil, err
	}

	percentage, completed := ComputeProgress(1, target.PageCount)
	history := &ReadHistory{
		ID:          uuid.New(),
		UserID:      userID,
		ComicID:     target.ID,
		CurrentPage: 1,
		TotalPages:  target.PageCount,
		Percentage:  percentage,
		Completed:   completed,
	}

	if err := service.repository.Create(context, history); err != nil {
		// A concurrent first open may have created the record already.
		if ae := apperr.As(err); ae != nil && ae.Code == "CONFLICT" {
			return service.repository.FindByUserAndComic(context, userID, target.ID)
		}
		return nil, err
	}

	return history, nil
}

/*
UpdateComicProgress moves the user's page position within a whole comic.

Description: Shares the derivation and range rules of the per-episode path.

Parameters:
  - context: context.Context
  - userID: string
  - comicID: string (UUID or slug)
  - currentPage: int

Returns:
  - *ReadHistory: The updated record
  - error: apperr.ValidationError for out-of-range pages
*/
func (service *Service) UpdateComicProgress(context context.Context, userID, comicID string, currentPage int) (*ReadHistory, error) {
	history, err := service.GetOrCreateForComic(context, userID, comicID)
	if err != nil {
		return nil, err
	}

	if currentPage < 1 || currentPage > history.TotalPages {
		return nil, apperr.ValidationError("Page position is out of range")
	}

	percentage, completed := ComputeProgress(currentPage, history.TotalPages)

	if err := service.repository.UpdateProgress(context, history.ID, currentPage, percentage, completed); err != nil {
		return nil, err
	}

	history.CurrentPage = currentPage
	history.Percentage = percentage
	history.Completed = completed
	return history, nil
}

/*
History returns the user's reading history ordered by recency.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int
  - offset: int

Returns:
  - []*ReadHistory: Most recently accessed first
  - int: Total record count
  - error: Repository failures
*/
func (service *Service) History(context context.Context, userID string, limit, offset int) ([]*ReadHistory, int, error) {
	return service.repository.ListByUser(context, userID, limit, offset)
}

// # Gated Downloads

/*
DownloadBundle resolves an ownership-gated download URL for a comic.

Description: The caller must hold at least one serial of any episode of the
comic in their linked wallet. A comic without the requested rendition is
reported as missing, not forbidden.

Parameters:
  - context: context.Context
  - userID: string
  - comicID: string
  - format: DownloadFormat (cbz, pdf)

Returns:
  - *Download: The granted bundle URL
  - error: apperr.Forbidden without ownership, apperr.NotFound for missing
    bundles
*/
func (service *Service) DownloadBundle(context context.Context, userID, comicID string, format DownloadFormat) (*Download, error) {
	if !format.IsValid() {
		return nil, apperr.ValidationError("Unknown download format")
	}

	target, err := service.comics.GetComic(context, comicID)
	if err != nil {
		return nil, err
	}

	url := target.CbzURL
	if format == FormatPDF {
		url = target.PdfURL
	}
	if url == "" {
		return nil, apperr.NotFound("Download bundle")
	}

	accountID, err := service.wallets.WalletAccount(context, userID)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return nil, apperr.ValidationError("Wallet not connected. Link a wallet first.")
	}

	owns, err := service.ownership.OwnsAnyOfComic(context, target.ID, accountID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, apperr.Forbidden("Downloads require owning an NFT from this comic")
	}

	service.logger.Info("bundle_downloaded",
		slog.String("comic_id", target.ID),
		slog.String("account_id", accountID),
		slog.String("format", string(format)),
	)

	return &Download{ComicID: target.ID, Format: format, URL: url}, nil
}
