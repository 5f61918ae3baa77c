// Copyright (c) 2026 Mintara. All rights reserved.

/*
HTTP interface for progress tracking and gated downloads.

All endpoints require authentication: anonymous visitors can read free
content but never accumulate history.
*/
package reader

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mintara/mintara/internal/platform/middleware"
	requestutil "github.com/mintara/mintara/internal/platform/request"
	"github.com/mintara/mintara/internal/platform/respond"
	"github.com/mintara/mintara/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for reading history and downloads.
type Handler struct {
	service *Service
}

// NewHandler constructs a new reader [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HistoryRoutes returns the router for the caller's reading history.
func (handler *Handler) HistoryRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)
	router.Get("/", handler.listHistory)

	return router
}

// progressRequest defines the inbound JSON schema for a progress update.
type progressRequest struct {
	CurrentPage int `json:"current_page"`
}

/*
PUT /api/v1/episodes/{id}/progress.

Description: Moves the caller's page position within an episode. The record
is created on first contact; percentage and completion are derived server
side.

Request:
  - id: string (UUID)
  - body: progressRequest

Response:
  - 200: ReadHistory: The updated record
  - 400: 400: Validation: Page position out of range
  - 404: 404: ErrNotFound: Unknown episode
*/
func (handler *Handler) UpdateProgress(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input progressRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.service.UpdateProgress(request.Context(), userID, requestutil.ID(request, "id"), input.CurrentPage)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, history)
}

/*
GET /api/v1/episodes/{id}/progress.

Description: Returns the caller's progress record for an episode, creating
it on first access.

Response:
  - 200: ReadHistory: The progress record
  - 404: 404: ErrNotFound: Unknown episode
*/
func (handler *Handler) GetProgress(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.service.GetOrCreate(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, history)
}

/*
GET /api/v1/comics/{id}/progress.

Description: Returns the caller's whole-comic progress record, creating it
on first access. The record carries no episode reference.

Response:
  - 200: ReadHistory: The progress record
  - 404: 404: ErrNotFound: Unknown comic
*/
func (handler *Handler) GetComicProgress(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.service.GetOrCreateForComic(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, history)
}

/*
PUT /api/v1/comics/{id}/progress.

Description: Moves the caller's page position within a whole comic.

Request:
  - id: string (UUID or slug)
  - body: progressRequest

Response:
  - 200: ReadHistory: The updated record
  - 400: 400: Validation: Page position out of range
  - 404: 404: ErrNotFound: Unknown comic
*/
func (handler *Handler) UpdateComicProgress(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input progressRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.service.UpdateComicProgress(request.Context(), userID, requestutil.ID(request, "id"), input.CurrentPage)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, history)
}

/*
GET /api/v1/users/me/history.

Description: Lists the caller's reading history, most recent first.

Response:
  - 200: []ReadHistory: Paginated history
*/
func (handler *Handler) listHistory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	entries, total, err := handler.service.History(request.Context(), userID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/comics/{id}/download/{format}.

Description: Resolves an ownership-gated download URL for a whole-comic
bundle. Requires holding at least one serial from the comic.

Request:
  - id: string (UUID or slug)
  - format: string (cbz, pdf)

Response:
  - 200: Download: The granted bundle URL
  - 403: 403: ErrForbidden: Caller owns no serial of this comic
  - 404: 404: ErrNotFound: Comic or bundle missing
*/
func (handler *Handler) DownloadBundle(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	download, err := handler.service.DownloadBundle(
		request.Context(),
		userID,
		requestutil.ID(request, "id"),
		DownloadFormat(requestutil.Param(request, "format")),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, download)
}
