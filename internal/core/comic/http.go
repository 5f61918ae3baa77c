// Copyright (c) 2026 Mintara. All rights reserved.

/*
HTTP interface for catalogue discovery and management.

# Routing Strategy

  - Public (v1): Discovery endpoints accessible to all visitors (GET /comics).
  - Creator (v1): Mutative endpoints requiring [sec.RoleCreator].

The handler translates between the web/JSON layer and the internal domain
[Service].
*/
package comic

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mintara/mintara/internal/platform/middleware"
	requestutil "github.com/mintara/mintara/internal/platform/request"
	"github.com/mintara/mintara/internal/platform/respond"
	"github.com/mintara/mintara/internal/platform/sec"
	"github.com/mintara/mintara/pkg/convert"
	"github.com/mintara/mintara/pkg/pagination"
	"github.com/mintara/mintara/pkg/query"
)

// maxAssetBytes caps the in-memory portion of cover and bundle uploads.
const maxAssetBytes = 128 << 20

// # Handler Implementation

// Handler implements the HTTP layer for catalogue management and discovery.
type Handler struct {
	service *Service
}

// NewHandler constructs a new comic [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the catalogue endpoints.
//
// # Routing Strategy
//
//   - Discovery (Public): Accessible by all visitors for browsing.
//   - Management (Creator): Requires [sec.RoleCreator] for mutations.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery Endpoints
	router.Get("/", handler.listComics)
	router.Get("/{identifier}", handler.getComic)

	// ## Catalogue Management (Creator Protected)
	router.Group(func(creator chi.Router) {
		creator.Use(middleware.RequireRole(sec.RoleCreator))

		creator.Post("/", handler.createComic)
		creator.Patch("/{id}", handler.updateComic)
		creator.Post("/{id}/publish", handler.publishComic)
		creator.Post("/{id}/archive", handler.archiveComic)
		creator.Post("/{id}/downloads", handler.attachDownloads)
	})

	return router
}

// MyComicsRoutes returns the router for the creator's own catalogue view.
func (handler *Handler) MyComicsRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleCreator))
	router.Get("/", handler.myComics)

	return router
}

// # Discovery Endpoints

/*
GET /api/v1/comics.

Description: Retrieves a paginated discovery listing. Unfiltered requests
return published comics only.

Request:
  - q: string (Title and series search)
  - genres: string (Comma-separated genre list, matched by overlap)
  - status: []string (draft, published, archived)
  - sort: string (created, title, updated)
  - dir: string (asc, desc)
  - limit: int
  - page: int

Response:
  - 200: []Comic: Paginated list of comics
*/
func (handler *Handler) listComics(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		Query:   queryParams.Get("q"),
		Genres:  query.StringSlice(queryParams.Get("genres")),
		Status:  parseStatusSlice(queryParams["status"]),
		Sort:    queryParams.Get("sort"),
		SortDir: queryParams.Get("dir"),
	}

	comics, total, err := handler.service.ListComics(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, comics, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/comics/{identifier}.

Description: Retrieves a comic by UUID or unique slug, episode roster
included. UUID lookups take precedence.

Request:
  - identifier: string (UUID or slug)

Response:
  - 200: Comic: Success
  - 404: 404: ErrNotFound: Comic not found
*/
func (handler *Handler) getComic(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.ID(request, "identifier")

	comic, err := handler.service.GetComic(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comic)
}

/*
GET /api/v1/users/me/comics.

Description: Lists the caller's own comics regardless of status.

Response:
  - 200: []Comic: Paginated list
*/
func (handler *Handler) myComics(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	comics, total, err := handler.service.MyComics(request.Context(), userID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, comics, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// # Mutation Endpoints

/*
POST /api/v1/comics.

Description: Registers a new comic series from a multipart upload. The cover
image is optional at creation time.

Request (multipart/form-data):
  - title: string
  - description: string
  - series: string
  - genres: string (comma-separated)
  - royalty_percentage: float (0..50)
  - cover: file (optional image)

Response:
  - 201: Comic: Created draft comic
  - 400: 400: Validation: Invalid input or no linked wallet
  - 409: 409: ErrConflict: Duplicate title slug
*/
func (handler *Handler) createComic(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(maxAssetBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer request.MultipartForm.RemoveAll()

	input := CreateComicInput{
		CreatorID:         userID,
		Title:             request.FormValue("title"),
		Description:       request.FormValue("description"),
		Series:            request.FormValue("series"),
		Genres:            query.StringSlice(request.FormValue("genres")),
		RoyaltyPercentage: convert.ToFloat64(request.FormValue("royalty_percentage")),
	}

	if cover, closeCover := formFile(request, "cover"); cover != nil {
		defer closeCover()
		input.Cover = cover
	}

	comic, err := handler.service.CreateComic(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, comic)
}

// updateComicRequest defines the inbound JSON schema for metadata updates.
type updateComicRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Series            string   `json:"series"`
	Genres            []string `json:"genres"`
	RoyaltyPercentage float64  `json:"royalty_percentage"`
}

/*
PATCH /api/v1/comics/{id}.

Description: Overwrites the mutable metadata of an owned comic. The slug is
never regenerated.

Request:
  - id: string (UUID)
  - body: updateComicRequest

Response:
  - 200: Comic: Updated comic
  - 400: 400: Validation: Invalid input
  - 404: 404: ErrNotFound: Comic not found or not owned
*/
func (handler *Handler) updateComic(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateComicRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comic, err := handler.service.UpdateComic(request.Context(), requestutil.ID(request, "id"), userID, UpdateComicInput{
		Title:             input.Title,
		Description:       input.Description,
		Series:            input.Series,
		Genres:            input.Genres,
		RoyaltyPercentage: input.RoyaltyPercentage,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comic)
}

/*
POST /api/v1/comics/{id}/publish.

Description: Lists a draft comic in discovery.

Response:
  - 204: No Content: Success
  - 409: 409: ErrConflict: Comic is not a draft
*/
func (handler *Handler) publishComic(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PublishComic(request.Context(), requestutil.ID(request, "id"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/comics/{id}/archive.

Description: Retires a published comic from discovery.

Response:
  - 204: No Content: Success
  - 409: 409: ErrConflict: Comic is not published
*/
func (handler *Handler) archiveComic(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ArchiveComic(request.Context(), requestutil.ID(request, "id"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/comics/{id}/downloads.

Description: Uploads the ownership-gated download bundles. Either file may
be supplied independently.

Request (multipart/form-data):
  - cbz: file (optional CBZ archive)
  - pdf: file (optional PDF rendition)

Response:
  - 204: No Content: Success
  - 400: 400: Validation: No bundle supplied
  - 404: 404: ErrNotFound: Comic not found or not owned
*/
func (handler *Handler) attachDownloads(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(maxAssetBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer request.MultipartForm.RemoveAll()

	cbz, closeCbz := formFile(request, "cbz")
	if cbz != nil {
		defer closeCbz()
	}
	pdf, closePdf := formFile(request, "pdf")
	if pdf != nil {
		defer closePdf()
	}

	comicID := requestutil.ID(request, "id")
	if err := handler.service.AttachDownloads(request.Context(), comicID, userID, cbz, pdf); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Helpers

// formFile opens the first uploaded file under the given form key. Returns
// nil when the key is absent or unreadable.
func formFile(request *http.Request, key string) (*Upload, func() error) {
	if request.MultipartForm == nil {
		return nil, nil
	}
	headers := request.MultipartForm.File[key]
	if len(headers) == 0 {
		return nil, nil
	}

	file, err := headers[0].Open()
	if err != nil {
		return nil, nil
	}

	return &Upload{Filename: headers[0].Filename, Reader: file}, file.Close
}

// parseStatusSlice converts raw query values into valid [Status] values.
func parseStatusSlice(values []string) []Status {
	var result []Status
	for _, value := range values {
		status := Status(value)
		if status.IsValid() {
			result = append(result, status)
		}
	}
	return result
}
