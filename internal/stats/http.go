// Copyright (c) 2026 Mintara. All rights reserved.

package stats

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mintara/mintara/internal/platform/respond"
)

// Handler implements the HTTP layer for platform statistics.
type Handler struct {
	service *Service
}

// NewHandler constructs a new stats [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the /stats subtree.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.platform)
	return router
}

/*
GET /api/v1/stats.

Description: Public platform-wide summary for the landing surface. Cached,
at most [SnapshotTTL] stale.

Response:
  - 200: Platform: Aggregates
*/
func (handler *Handler) platform(writer http.ResponseWriter, request *http.Request) {
	snapshot, err := handler.service.Platform(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, snapshot)
}
