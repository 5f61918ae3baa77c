// Copyright (c) 2026 Mintara. All rights reserved.

/*
HTTP interface of the marketplace.

# Routing Strategy

  - Public (v1): Browsing listings and per-episode market statistics.
  - Authenticated (v1): Listing, bidding, buying, and settlement.
*/
package market

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mintara/mintara/internal/platform/middleware"
	requestutil "github.com/mintara/mintara/internal/platform/request"
	"github.com/mintara/mintara/internal/platform/respond"
	"github.com/mintara/mintara/pkg/pagination"
	"github.com/mintara/mintara/pkg/slice"
)

// # Handler Implementation

// Handler implements the HTTP layer for the marketplace.
type Handler struct {
	service *Service
}

// NewHandler constructs a new market [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the /market subtree.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Browsing
	router.Get("/listings", handler.listListings)
	router.Get("/listings/{id}", handler.getListing)
	router.Get("/episodes/{id}/stats", handler.episodeStats)

	// ## Trading (Authenticated)
	router.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.RequireAuth)

		authenticated.Post("/listings", handler.createListing)
		authenticated.Delete("/listings/{id}", handler.cancelListing)
		authenticated.Post("/listings/{id}/buy", handler.buyListing)
		authenticated.Post("/listings/{id}/bids", handler.placeBid)
		authenticated.Post("/listings/{id}/complete", handler.completeAuction)
		authenticated.Get("/me/listings", handler.myListings)
	})

	return router
}

// # Browsing Endpoints

/*
GET /api/v1/market/listings.

Description: Browses marketplace listings. Unfiltered requests return
active listings only.

Request:
  - episode: string (UUID filter)
  - status: []string (active, sold, cancelled, expired)
  - type: string (fixed, auction)
  - limit: int
  - page: int

Response:
  - 200: []Listing: Paginated listings
*/
func (handler *Handler) listListings(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		EpisodeID: queryParams.Get("episode"),
		Type:      ListingType(queryParams.Get("type")),
	}
	filter.Status = slice.Filter(
		slice.Map(queryParams["status"], func(value string) ListingStatus { return ListingStatus(value) }),
		ListingStatus.IsValid,
	)
	if len(filter.Status) == 0 {
		filter.Status = []ListingStatus{StatusActive}
	}
	if !filter.Type.IsValid() {
		filter.Type = ""
	}

	listings, total, err := handler.service.ListListings(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, listings, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/market/listings/{id}.

Response:
  - 200: Listing: Success
  - 404: 404: ErrNotFound: Listing not found
*/
func (handler *Handler) getListing(writer http.ResponseWriter, request *http.Request) {
	listing, err := handler.service.GetListing(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, listing)
}

/*
GET /api/v1/market/episodes/{id}/stats.

Description: Summarizes market activity for one episode collection: floor
price, listed volume, and settled trade volume.

Response:
  - 200: Stats: Market summary
*/
func (handler *Handler) episodeStats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.EpisodeStats(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}

/*
GET /api/v1/stats/marketplace.

Description: Summarizes activity across the whole marketplace: active
listings and auctions, listed volume, global floor price, and settled trade
volume. Exported because it is mounted under the platform stats subtree,
outside this handler's own routes.

Response:
  - 200: Stats: Marketplace-wide summary
*/
func (handler *Handler) MarketplaceStats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.MarketplaceStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}

/*
GET /api/v1/market/me/listings.

Description: Lists the caller's own listings across all statuses.

Response:
  - 200: []Listing: Paginated listings
*/
func (handler *Handler) myListings(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	listings, total, err := handler.service.MyListings(request.Context(), userID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, listings, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// # Trading Endpoints

// createListingRequest defines the inbound JSON schema for listing a serial.
type createListingRequest struct {
	EpisodeID    string     `json:"episode_id"`
	SerialNumber int64      `json:"serial_number"`
	Type         string     `json:"type"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	MinBid       float64    `json:"min_bid"`
	EndTime      *time.Time `json:"end_time"`
}

/*
POST /api/v1/market/listings.

Description: Lists an owned serial for sale, fixed price or auction.

Request (Body):
  - createListingRequest: JSON object

Response:
  - 201: Listing: The active listing
  - 400: 400: Validation: Invalid input or no linked wallet
  - 403: 403: ErrForbidden: Caller does not own the serial
  - 409: 409: ErrConflict: Serial already listed
*/
func (handler *Handler) createListing(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createListingRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	listing, err := handler.service.CreateListing(request.Context(), userID, CreateListingInput{
		EpisodeID:    input.EpisodeID,
		SerialNumber: input.SerialNumber,
		Type:         ListingType(input.Type),
		Price:        input.Price,
		Currency:     input.Currency,
		MinBid:       input.MinBid,
		EndTime:      input.EndTime,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, listing)
}

/*
POST /api/v1/market/listings/{id}/buy.

Description: Settles a fixed-price listing through the ledger.

Response:
  - 200: Transaction: The settled trade
  - 409: 409: ErrConflict: Listing no longer available
  - 502: 502: ErrLedger: Transfer failed
*/
func (handler *Handler) buyListing(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	transaction, err := handler.service.Buy(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, transaction)
}

// bidRequest defines the inbound JSON schema for an auction bid.
type bidRequest struct {
	Amount float64 `json:"amount"`
}

/*
POST /api/v1/market/listings/{id}/bids.

Description: Places a bid on an open auction. The bid must meet the minimum
and beat the current highest.

Request (Body):
  - bidRequest: JSON object

Response:
  - 201: Bid: The recorded bid
  - 400: 400: Validation: Bid too low
  - 409: 409: ErrConflict: Auction closed or outbid mid-flight
*/
func (handler *Handler) placeBid(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input bidRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bid, err := handler.service.PlaceBid(request.Context(), userID, requestutil.ID(request, "id"), input.Amount)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, bid)
}

/*
POST /api/v1/market/listings/{id}/complete.

Description: Settles an ended auction with its highest bidder. Auctions
that ended without bids expire.

Response:
  - 200: Transaction: The settled trade, null when expired
  - 409: 409: ErrConflict: Auction still open or already settled
*/
func (handler *Handler) completeAuction(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	transaction, err := handler.service.CompleteAuction(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, transaction)
}

/*
DELETE /api/v1/market/listings/{id}.

Description: Withdraws an active listing.

Response:
  - 204: No Content: Success
  - 409: 409: ErrConflict: Listing no longer active
*/
func (handler *Handler) cancelListing(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CancelListing(request.Context(), userID, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
