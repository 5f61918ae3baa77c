// Copyright (c) 2026 Mintara. All rights reserved.

package comic

import (
	"context"
	"io"
	"log/slog"

	googleuuid "github.com/google/uuid"

	"github.com/mintara/mintara/internal/content"
	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/validate"
	"github.com/mintara/mintara/pkg/slug"
	"github.com/mintara/mintara/pkg/uuid"
)

// # Collaborator Contracts

// ContentStore is the slice of the content store client this service needs.
type ContentStore interface {
	Upload(context context.Context, filename string, reader io.Reader) (*content.Ref, error)
}

// WalletResolver maps a platform user to their linked ledger account.
// It returns the empty string when no wallet is linked.
type WalletResolver interface {
	WalletAccount(context context.Context, userID string) (string, error)
}

// # Service Layer

// Service orchestrates catalogue management and discovery.
type Service struct {
	repository ComicRepository
	store      ContentStore
	wallets    WalletResolver
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(repository ComicRepository, store ContentStore, wallets WalletResolver, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		store:      store,
		wallets:    wallets,
		logger:     logger,
	}
}

// # Creation

// Upload is one inbound file for comic assets.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// CreateComicInput carries everything needed to register a new comic.
type CreateComicInput struct {
	CreatorID         string
	Title             string
	Description       string
	Series            string
	Genres            []string
	RoyaltyPercentage float64
	Cover             *Upload
}

/*
CreateComic registers a new comic series for a creator.

Description: Creators must have a linked wallet before they can own comics,
since royalties settle to that account. The slug is derived from the title
and must be unique across the catalogue.

Parameters:
  - context: context.Context
  - input: CreateComicInput

Returns:
  - *Comic: The persisted draft comic
  - error: Validation errors, apperr.Conflict on a duplicate slug
*/
func (service *Service) CreateComic(context context.Context, input CreateComicInput) (*Comic, error) {

	// Business attribute validation
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 300)
	validator.MaxLen(FieldDescription, input.Description, 5000)
	validator.Custom(FieldRoyalty, input.RoyaltyPercentage < 0 || input.RoyaltyPercentage > 50,
		"Royalty percentage must be between 0 and 50")
	validator.Custom(FieldGenres, len(input.Genres) > 10, "At most 10 genres are allowed")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Royalties settle to the creator's wallet; require one upfront.
	accountID, err := service.wallets.WalletAccount(context, input.CreatorID)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return nil, apperr.ValidationError("Wallet not connected. Link a wallet first.")
	}

	comic := &Comic{
		ID:                uuid.New(),
		Title:             input.Title,
		Slug:              slug.From(input.Title),
		Description:       input.Description,
		Series:            input.Series,
		Genres:            input.Genres,
		CreatorID:         input.CreatorID,
		RoyaltyPercentage: input.RoyaltyPercentage,
		Status:            StatusDraft,
	}

	if input.Cover != nil {
		coverRef, err := service.store.Upload(context, input.Cover.Filename, input.Cover.Reader)
		if err != nil {
			return nil, err
		}
		comic.CoverHash = coverRef.Hash
		comic.CoverURL = coverRef.URL
	}

	if err := service.repository.Create(context, comic); err != nil {
		return nil, err
	}

	service.logger.Info("comic_created",
		slog.String("comic_id", comic.ID),
		slog.String("creator_id", comic.CreatorID),
		slog.String("slug", comic.Slug),
	)

	return comic, nil
}

// # Discovery

/*
GetComic retrieves a comic by UUID or slug, episode roster included.

Parameters:
  - context: context.Context
  - identifier: string (UUID or slug; UUID lookups take precedence)

Returns:
  - *Comic: Hydrated aggregate
  - error: apperr.NotFound if no match is found
*/
func (service *Service) GetComic(context context.Context, identifier string) (*Comic, error) {
	if _, err := googleuuid.Parse(identifier); err == nil {
		return service.repository.FindByID(context, identifier)
	}
	return service.repository.FindBySlug(context, identifier)
}

/*
ListComics returns the filtered, paginated discovery listing.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Comic: Matching comics
  - int: Total count matching the filter
  - error: Repository failures
*/
func (service *Service) ListComics(context context.Context, filter Filter, limit, offset int) ([]*Comic, int, error) {
	return service.repository.List(context, filter, limit, offset)
}

/*
MyComics lists every comic owned by the creator regardless of status.

Parameters:
  - context: context.Context
  - creatorID: string
  - limit: int
  - offset: int

Returns:
  - []*Comic: The creator's comics
  - int: Total count
  - error: Repository failures
*/
func (service *Service) MyComics(context context.Context, creatorID string, limit, offset int) ([]*Comic, int, error) {
	filter := Filter{
		CreatorID: creatorID,
		Status:    []Status{StatusDraft, StatusPublished, StatusArchived},
		Sort:      "updated",
	}
	return service.repository.List(context, filter, limit, offset)
}

// # Management

// UpdateComicInput carries the mutable metadata fields.
type UpdateComicInput struct {
	Title             string
	Description       string
	Series            string
	Genres            []string
	RoyaltyPercentage float64
	Cover             *Upload
}

/*
UpdateComic overwrites the mutable metadata of an owned comic.

Description: The slug stays stable once created; retitling does not break
published links. Royalty changes only affect collections created afterwards.

Parameters:
  - context: context.Context
  - comicID: string
  - creatorID: string (must own the comic)
  - input: UpdateComicInput

Returns:
  - *Comic: The updated comic
  - error: Validation, ownership, or persistence errors
*/
func (service *Service) UpdateComic(context context.Context, comicID, creatorID string, input UpdateComicInput) (*Comic, error) {
	comic, err := service.ownedComic(context, comicID, creatorID)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 300)
	validator.Custom(FieldRoyalty, input.RoyaltyPercentage < 0 || input.RoyaltyPercentage > 50,
		"Royalty percentage must be between 0 and 50")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	comic.Title = input.Title
	comic.Description = input.Description
	comic.Series = input.Series
	comic.Genres = input.Genres
	comic.RoyaltyPercentage = input.RoyaltyPercentage

	if input.Cover != nil {
		coverRef, err := service.store.Upload(context, input.Cover.Filename, input.Cover.Reader)
		if err != nil {
			return nil, err
		}
		comic.CoverHash = coverRef.Hash
		comic.CoverURL = coverRef.URL
	}

	if err := service.repository.Update(context, comic); err != nil {
		return nil, err
	}

	return comic, nil
}

/*
PublishComic lists a draft comic in discovery.

Parameters:
  - context: context.Context
  - comicID: string
  - creatorID: string

Returns:
  - error: apperr.Conflict unless the comic is a draft
*/
func (service *Service) PublishComic(context context.Context, comicID, creatorID string) error {
	return service.setStatus(context, comicID, creatorID, StatusDraft, StatusPublished)
}

/*
ArchiveComic retires a published comic. Existing NFTs keep working; the
comic just leaves discovery.

Parameters:
  - context: context.Context
  - comicID: string
  - creatorID: string

Returns:
  - error: apperr.Conflict unless the comic is published
*/
func (service *Service) ArchiveComic(context context.Context, comicID, creatorID string) error {
	return service.setStatus(context, comicID, creatorID, StatusPublished, StatusArchived)
}

// setStatus applies one ownership-checked status change.
func (service *Service) setStatus(context context.Context, comicID, creatorID string, from, to Status) error {
	comic, err := service.ownedComic(context, comicID, creatorID)
	if err != nil {
		return err
	}

	if comic.Status != from {
		return apperr.Conflict("Comic cannot change status from " + string(comic.Status))
	}

	if err := service.repository.UpdateStatus(context, comicID, to); err != nil {
		return err
	}

	service.logger.Info("comic_status_changed",
		slog.String("comic_id", comicID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	return nil
}

/*
AttachDownloads uploads the ownership-gated download bundles.

Parameters:
  - context: context.Context
  - comicID: string
  - creatorID: string
  - cbz: *Upload (optional CBZ archive)
  - pdf: *Upload (optional PDF rendition)

Returns:
  - error: Validation, ownership, upload, or persistence errors
*/
func (service *Service) AttachDownloads(context context.Context, comicID, creatorID string, cbz, pdf *Upload) error {
	if cbz == nil && pdf == nil {
		return apperr.ValidationError("At least one download bundle is required")
	}

	if _, err := service.ownedComic(context, comicID, creatorID); err != nil {
		return err
	}

	cbzURL, pdfURL := "", ""
	if cbz != nil {
		ref, err := service.store.Upload(context, cbz.Filename, cbz.Reader)
		if err != nil {
			return err
		}
		cbzURL = ref.URL
	}
	if pdf != nil {
		ref, err := service.store.Upload(context, pdf.Filename, pdf.Reader)
		if err != nil {
			return err
		}
		pdfURL = ref.URL
	}

	return service.repository.UpdateDownloads(context, comicID, cbzURL, pdfURL)
}

// # Internal Helpers

// ownedComic loads a comic and verifies ownership. A missing comic and a
// foreign comic are indistinguishable to the caller.
func (service *Service) ownedComic(context context.Context, comicID, creatorID string) (*Comic, error) {
	comic, err := service.repository.FindByID(context, comicID)
	if err != nil {
		return nil, err
	}
	if comic.CreatorID != creatorID {
		return nil, apperr.NotFound("Comic")
	}
	return comic, nil
}
