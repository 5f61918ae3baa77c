// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package market implements the secondary NFT marketplace.

Owners list minted serials for a fixed price or by auction. Settlement runs
through the external ledger; the marketplace only orchestrates the transfer
and keeps the local trade history. The minted-NFT mirror is updated after a
successful transfer so access gating follows the new owner immediately.
*/
package market

import (
	"time"
)

// # Domain Enums

// ListingType distinguishes fixed-price sales from auctions.
type ListingType string

const (
	TypeFixed   ListingType = "fixed"
	TypeAuction ListingType = "auction"
)

// IsValid reports whether t is a recognised [ListingType] value.
func (t ListingType) IsValid() bool {
	return t == TypeFixed || t == TypeAuction
}

// ListingStatus represents the lifecycle state of a listing.
type ListingStatus string

const (
	// StatusActive accepts purchases or bids.
	StatusActive ListingStatus = "active"

	// StatusSold settled through the ledger.
	StatusSold ListingStatus = "sold"

	// StatusCancelled was withdrawn by the seller.
	StatusCancelled ListingStatus = "cancelled"

	// StatusExpired ended without a winning bid.
	StatusExpired ListingStatus = "expired"
)

// IsValid reports whether s is a recognised [ListingStatus] value.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusSold, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// # Core Entities

// Listing offers one owned serial for sale.
type Listing struct {
	ID            string `json:"id"`
	EpisodeID     string `json:"episode_id"`
	SerialNumber  int64  `json:"serial_number"`
	SellerID      string `json:"seller_id"`
	SellerAccount string `json:"seller_account"`

	Type     ListingType `json:"type"`
	Price    float64     `json:"price"`
	Currency string      `json:"currency"`

	Status ListingStatus `json:"status"`

	// Auction fields; zero-valued on fixed-price listings.
	EndTime       *time.Time `json:"end_time,omitempty"`
	MinBid        float64    `json:"min_bid,omitempty"`
	HighestBid    float64    `json:"highest_bid,omitempty"`
	HighestBidder string     `json:"highest_bidder,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAuctionOpen reports whether bids are still accepted at the given time.
func (listing *Listing) IsAuctionOpen(now time.Time) bool {
	if listing.Type != TypeAuction || listing.Status != StatusActive {
		return false
	}
	return listing.EndTime == nil || now.Before(*listing.EndTime)
}

// Bid is one recorded auction bid.
type Bid struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	BidderID      string    `json:"bidder_id"`
	BidderAccount string    `json:"bidder_account"`
	Amount        float64   `json:"amount"`
	PlacedAt      time.Time `json:"placed_at"`
}

// Transaction is one settled trade.
type Transaction struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	Type          string    `json:"type"`
	BuyerAccount  string    `json:"buyer_account"`
	SellerAccount string    `json:"seller_account"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	ExecutedAt    time.Time `json:"executed_at"`
}

// Transaction type and status values.
const (
	TradeSale        = "sale"
	TradeAuctionSale = "auction_sale"

	TradeCompleted = "completed"
)

// # Market Statistics

// Stats summarizes market activity for one episode collection.
type Stats struct {
	// FloorPrice is the lowest positive asking price among active listings,
	// 0 when nothing is listed.
	FloorPrice float64 `json:"floor_price"`

	// ListedVolume sums the asking prices of active listings.
	ListedVolume float64 `json:"listed_volume"`

	// TradedVolume sums the settled trade amounts.
	TradedVolume float64 `json:"traded_volume"`

	ActiveListings int `json:"active_listings"`
	ActiveAuctions int `json:"active_auctions"`
	TotalSales     int `json:"total_sales"`
}

// ComputeStats derives the listing-side statistics from a set of listings.
// Only active listings contribute; traded volume is supplied by the caller
// from the transaction history. The function is pure.
func ComputeStats(listings []*Listing, tradedVolume float64, totalSales int) Stats {
	stats := Stats{TradedVolume: tradedVolume, TotalSales: totalSales}

	for _, listing := range listings {
		if listing.Status != StatusActive {
			continue
		}
		stats.ActiveListings++
		if listing.Type == TypeAuction {
			stats.ActiveAuctions++
		}
		stats.ListedVolume += listing.Price
		if listing.Price > 0 && (stats.FloorPrice == 0 || listing.Price < stats.FloorPrice) {
			stats.FloorPrice = listing.Price
		}
	}

	return stats
}

// # Discovery

// Filter narrows the marketplace listing view.
type Filter struct {
	EpisodeID string
	SellerID  string
	Status    []ListingStatus
	Type      ListingType
}
