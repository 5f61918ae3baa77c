// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package comic implements the catalogue of creator-owned comic series.

A comic is the container for episodes: it carries the display metadata, the
genre classification used for discovery, and the royalty percentage applied
to every NFT collection created under it. Episodes themselves live in their
own domain package; the catalogue only exposes a lightweight roster view.
*/
package comic

import (
	"time"
)

// # Domain Enums

// Status represents the publication state of a comic series.
type Status string

const (
	// StatusDraft hides the comic from discovery.
	StatusDraft Status = "draft"

	// StatusPublished lists the comic in discovery.
	StatusPublished Status = "published"

	// StatusArchived retires the comic. Existing NFTs keep working.
	StatusArchived Status = "archived"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// # Core Entities

// EpisodeSummary is the roster projection of one episode, aggregated into
// the comic detail view without crossing into the episode domain.
type EpisodeSummary struct {
	ID            string  `json:"id"`
	EpisodeNumber int     `json:"episode_number"`
	Title         string  `json:"title"`
	CoverURL      string  `json:"cover_url"`
	Status        string  `json:"status"`
	IsFree        bool    `json:"is_free"`
	MintPrice     float64 `json:"mint_price"`
	TotalMinted   int     `json:"total_minted"`
}

// Comic is the catalogue aggregate.
type Comic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Series      string   `json:"series,omitempty"`
	Genres      []string `json:"genres"`

	// CreatorID owns the comic; only the creator can mutate it or add
	// episodes under it.
	CreatorID string `json:"creator_id"`

	// RoyaltyPercentage is applied to every collection minted under this
	// comic (0..50, two decimals).
	RoyaltyPercentage float64 `json:"royalty_percentage"`

	Status    Status `json:"status"`
	PageCount int    `json:"page_count"`

	CoverHash string `json:"cover_hash,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`

	// CbzURL and PdfURL point at the ownership-gated download bundles.
	CbzURL string `json:"cbz_url,omitempty"`
	PdfURL string `json:"pdf_url,omitempty"`

	Episodes []EpisodeSummary `json:"episodes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Discovery

// Filter narrows the catalogue listing.
type Filter struct {
	Query     string
	Genres    []string
	Status    []Status
	CreatorID string
	Sort      string
	SortDir   string
}

// # Field Identifiers

// Global field names for validation and dynamic query mapping.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldSeries      = "series"
	FieldGenres      = "genres"
	FieldRoyalty     = "royalty_percentage"
	FieldStatus      = "status"
	FieldCover       = "cover"
)
