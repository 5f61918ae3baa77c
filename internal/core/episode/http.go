// Copyright (c) 2026 Mintara. All rights reserved.

/*
HTTP interface of the episode domain.

# Routing Strategy

  - Public (v1): Episode detail and roster browsing.
  - Authenticated (v1): Minting, reading, and the personal collection.
  - Creator (v1): Episode creation and lifecycle transitions.

The handler translates between the web/JSON layer and the internal domain
[Service]. Episode creation is a multipart upload since it carries the cover
and the page images alongside the metadata fields.
*/
package episode

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mintara/mintara/internal/platform/middleware"
	requestutil "github.com/mintara/mintara/internal/platform/request"
	"github.com/mintara/mintara/internal/platform/respond"
	"github.com/mintara/mintara/internal/platform/sec"
	"github.com/mintara/mintara/pkg/convert"
)

// maxUploadBytes caps the in-memory portion of a multipart episode upload.
const maxUploadBytes = 64 << 20

// # Handler Implementation

// Handler implements the HTTP layer for episode lifecycle, minting, and
// reading.
type Handler struct {
	service *Service
}

// NewHandler constructs a new episode [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the /episodes subtree.
//
// # Routing Strategy
//
//   - Detail (Public): Anyone can inspect a published episode.
//   - Reading & Minting (Authenticated): Gating happens in the service.
//   - Lifecycle (Creator): Requires [sec.RoleCreator].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Detail
	router.Get("/{id}", handler.getEpisode)
	router.Get("/{id}/read", handler.readEpisode)

	// ## Minting (Authenticated)
	router.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.RequireAuth)

		authenticated.Post("/{id}/mint", handler.mintEpisode)
	})

	// ## Lifecycle (Creator Protected)
	router.Group(func(creator chi.Router) {
		creator.Use(middleware.RequireRole(sec.RoleCreator))

		creator.Post("/{id}/ready", handler.markReady)
		creator.Post("/{id}/publish", handler.publishEpisode)
		creator.Post("/{id}/pause", handler.pauseEpisode)
		creator.Post("/{id}/archive", handler.archiveEpisode)
	})

	return router
}

// ComicEpisodeRoutes returns the router for the /comics/{comicID}/episodes
// subtree: the roster and episode creation.
func (handler *Handler) ComicEpisodeRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listEpisodes)

	router.Group(func(creator chi.Router) {
		creator.Use(middleware.RequireRole(sec.RoleCreator))

		creator.Post("/", handler.createEpisode)
	})

	return router
}

// CollectionRoutes returns the router for the caller's owned-NFT collection.
func (handler *Handler) CollectionRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)
	router.Get("/", handler.myCollection)

	return router
}

// # Lookup Endpoints

/*
GET /api/v1/episodes/{id}.

Description: Retrieves the full episode record including supply, pricing,
minting rules, and stats. Page content is gated behind the read endpoint.

Request:
  - id: string (UUID)

Response:
  - 200: Episode: Success
  - 404: 404: ErrNotFound: Episode not found
*/
func (handler *Handler) getEpisode(writer http.ResponseWriter, request *http.Request) {
	episodeID := requestutil.ID(request, "id")

	episode, err := handler.service.GetEpisode(request.Context(), episodeID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Page URLs are access gated; the detail view never leaks them.
	episode.Pages = nil

	respond.OK(writer, episode)
}

/*
GET /api/v1/comics/{comicID}/episodes.

Description: Lists the comic's episodes ordered by episode number, pages
omitted.

Request:
  - comicID: string (UUID)

Response:
  - 200: []Episode: Ordered roster
*/
func (handler *Handler) listEpisodes(writer http.ResponseWriter, request *http.Request) {
	comicID := requestutil.ID(request, "comicID")

	episodes, err := handler.service.ListByComic(request.Context(), comicID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, episodes)
}

// # Creation Endpoint

/*
POST /api/v1/comics/{comicID}/episodes.

Description: Creates a new draft episode from a multipart upload. Provisions
the NFT collection token on the ledger during creation; the token ID is
immutable afterwards.

Request (multipart/form-data):
  - title: string
  - description: string
  - episode_number: int
  - mint_price: float
  - read_price: float
  - currency: string (HBAR, USDT)
  - max_supply: int (0 = unbounded)
  - access_type: string (free, public, nft-holders, paid)
  - is_free: bool
  - cover: file (single image)
  - pages: file (repeated, ordered)

Response:
  - 201: Episode: Created draft
  - 400: 400: Validation: Invalid input or duplicate episode number
  - 404: 404: ErrNotFound: Comic not found or not owned by the caller
  - 502: 502: ErrLedger/ErrStorage: Upstream collaborator failure
*/
func (handler *Handler) createEpisode(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer request.MultipartForm.RemoveAll()

	input := CreateEpisodeInput{
		ComicID:       requestutil.ID(request, "comicID"),
		CreatorID:     userID,
		Title:         request.FormValue("title"),
		Description:   request.FormValue("description"),
		EpisodeNumber: convert.ToInt(request.FormValue("episode_number")),
		MintPrice:     convert.ToFloat64(request.FormValue("mint_price")),
		ReadPrice:     convert.ToFloat64(request.FormValue("read_price")),
		Currency:      Currency(request.FormValue("currency")),
		MaxSupply:     convert.ToInt(request.FormValue("max_supply")),
		AccessType:    AccessType(request.FormValue("access_type")),
		IsFree:        convert.ToBool(request.FormValue("is_free")),
	}

	coverUpload, coverClose, err := openSingleFile(request.MultipartForm, "cover")
	if err == nil && coverUpload != nil {
		defer coverClose()
		input.Cover = coverUpload
	}

	pageHeaders := request.MultipartForm.File["pages"]
	for _, header := range pageHeaders {
		file, openErr := header.Open()
		if openErr != nil {
			respond.Error(writer, request, openErr)
			return
		}
		defer file.Close()
		input.Pages = append(input.Pages, Upload{Filename: header.Filename, Reader: file})
	}

	episode, err := handler.service.CreateEpisode(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, episode)
}

// openSingleFile opens the first uploaded file under the given form key.
func openSingleFile(form *multipart.Form, key string) (*Upload, func() error, error) {
	headers := form.File[key]
	if len(headers) == 0 {
		return nil, nil, nil
	}

	file, err := headers[0].Open()
	if err != nil {
		return nil, nil, err
	}

	return &Upload{Filename: headers[0].Filename, Reader: file}, file.Close, nil
}

// # Lifecycle Endpoints

// publishRequest defines the inbound JSON schema for publication.
type publishRequest struct {
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	MaxPerWallet  int        `json:"max_per_wallet"`
	WhitelistOnly bool       `json:"whitelist_only"`
	Whitelist     []string   `json:"whitelist"`
}

/*
POST /api/v1/episodes/{id}/publish.

Description: Takes the episode live and activates its minting rules. Allowed
from draft, ready, or paused; re-publishing a live episode is a conflict.

Request:
  - id: string (UUID)
  - body: publishRequest

Response:
  - 200: Episode: The published episode
  - 400: 400: Validation: Inverted mint window
  - 404: 404: ErrNotFound: Episode not found or not owned
  - 409: 409: ErrConflict: Forbidden state transition
*/
func (handler *Handler) publishEpisode(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input publishRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	episode, err := handler.service.Publish(request.Context(), requestutil.ID(request, "id"), userID, PublishInput{
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		MaxPerWallet:  input.MaxPerWallet,
		WhitelistOnly: input.WhitelistOnly,
		Whitelist:     input.Whitelist,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, episode)
}

/*
POST /api/v1/episodes/{id}/ready.

Description: Marks a draft or processing episode as ready for publication.

Response:
  - 204: No Content: Success
  - 409: 409: ErrConflict: Forbidden state transition
*/
func (handler *Handler) markReady(writer http.ResponseWriter, request *http.Request) {
	handler.lifecycle(writer, request, handler.service.MarkReady)
}

/*
POST /api/v1/episodes/{id}/pause.

Description: Takes a published episode offline without archiving it.

Response:
  - 204: No Content: Success
  - 409: 409: ErrConflict: Forbidden state transition
*/
func (handler *Handler) pauseEpisode(writer http.ResponseWriter, request *http.Request) {
	handler.lifecycle(writer, request, handler.service.Pause)
}

/*
POST /api/v1/episodes/{id}/archive.

Description: Retires the episode permanently. Archived is terminal.

Response:
  - 204: No Content: Success
  - 409: 409: ErrConflict: Forbidden state transition
*/
func (handler *Handler) archiveEpisode(writer http.ResponseWriter, request *http.Request) {
	handler.lifecycle(writer, request, handler.service.Archive)
}

// lifecycle runs one ownership-checked state transition endpoint.
func (handler *Handler) lifecycle(
	writer http.ResponseWriter,
	request *http.Request,
	step func(ctx context.Context, episodeID, creatorID string) error,
) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := step(request.Context(), requestutil.ID(request, "id"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Minting Endpoint

// mintRequest defines the inbound JSON schema for a mint.
type mintRequest struct {
	Quantity int `json:"quantity"`
}

/*
POST /api/v1/episodes/{id}/mint.

Description: Mints the requested quantity of serials to the caller's linked
wallet. All rule checks run before the ledger is contacted; a rejected mint
never changes supply or the mirror.

Request:
  - id: string (UUID)
  - body: mintRequest

Response:
  - 201: []MintedNFT: The freshly minted serials
  - 400: 400: Validation: Bad quantity or no linked wallet
  - 403: 403: ErrNotWhitelisted: Caller not on the whitelist
  - 409: 409: ErrMintingDisabled/ErrMintWindowClosed/ErrSupplyExceeded
  - 502: 502: ErrLedger: The ledger rejected or failed the mint
*/
func (handler *Handler) mintEpisode(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input mintRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	records, err := handler.service.Mint(request.Context(), requestutil.ID(request, "id"), userID, input.Quantity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, records)
}

// # Reading Endpoint

/*
GET /api/v1/episodes/{id}/read.

Description: Performs an access-checked read. Anonymous callers are treated
as wallet-less; they still get free episodes in full and public episodes as
previews.

Request:
  - id: string (UUID)

Response:
  - 200: ReadResult: Pages and the granted access level
  - 403: 403: ErrForbidden: Access denied by the gating rules
  - 404: 404: ErrNotFound: Episode not readable
*/
func (handler *Handler) readEpisode(writer http.ResponseWriter, request *http.Request) {

	// Anonymous reads are allowed; gating sees an empty account.
	userID := ""
	if claims := requestutil.Claims(request); claims != nil {
		userID = claims.UserID
	}

	result, err := handler.service.Read(request.Context(), requestutil.ID(request, "id"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// # Collection Endpoint

/*
GET /api/v1/users/me/collection.

Description: Lists the caller's owned serials grouped per episode.

Response:
  - 200: []OwnedCollection: One entry per episode
  - 400: 400: Validation: No wallet linked
*/
func (handler *Handler) myCollection(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	collection, err := handler.service.MyCollection(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, collection)
}
