// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package episode implements the core lifecycle of mintable comic episodes.

An episode is one installment of a comic and the unit that is minted as an
NFT collection on the external ledger. This package owns:

  - Lifecycle: the status state machine from draft through archived.
  - Minting: rule evaluation, supply accounting, and the minted-NFT mirror.
  - Access gating: the decision of whether an account may read an episode.

Core Responsibility:

The minted-NFT mirror is a local cache of ledger truth. Mint records are
appended, never removed; burns are accounted by counter, not deletion. The
ledger remains authoritative for ownership.
*/
package episode

import (
	"time"
)

// # Domain Enums

// Status represents the lifecycle state of an episode.
type Status string

const (
	// StatusDraft is the initial state after creation.
	StatusDraft Status = "draft"

	// StatusProcessing indicates content upload or conversion is in progress.
	StatusProcessing Status = "processing"

	// StatusReady indicates content is complete and the episode can be published.
	StatusReady Status = "ready"

	// StatusPublished is the only state from which minting is permitted.
	StatusPublished Status = "published"

	// StatusPaused hides a published episode without archiving it.
	StatusPaused Status = "paused"

	// StatusArchived is terminal.
	StatusArchived Status = "archived"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case
		StatusDraft,
		StatusProcessing,
		StatusReady,
		StatusPublished,
		StatusPaused,
		StatusArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Forward transitions through the upload pipeline are allowed, published
// and paused toggle freely, and archived is reachable from published or paused
// but never left.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusProcessing || next == StatusReady || next == StatusPublished
	case StatusProcessing:
		return next == StatusReady
	case StatusReady:
		return next == StatusPublished
	case StatusPublished:
		return next == StatusPaused || next == StatusArchived
	case StatusPaused:
		return next == StatusPublished || next == StatusArchived
	case StatusArchived:
		return false
	}
	return false
}

// AccessType classifies how an episode's content is gated.
type AccessType string

const (
	// AccessFree grants full reading to everyone.
	AccessFree AccessType = "free"

	// AccessPublic grants a preview to everyone; full access follows NFT gating.
	AccessPublic AccessType = "public"

	// AccessNFTHolders grants full reading only to accounts owning a minted serial.
	AccessNFTHolders AccessType = "nft-holders"

	// AccessPaid grants full reading only after a verified pay-per-read payment.
	AccessPaid AccessType = "paid"
)

// IsValid reports whether a is a recognised [AccessType] value.
func (a AccessType) IsValid() bool {
	switch a {
	case AccessFree, AccessPublic, AccessNFTHolders, AccessPaid:
		return true
	}
	return false
}

// Currency identifies the settlement currency for mint and read prices.
type Currency string

const (
	CurrencyHBAR Currency = "HBAR"
	CurrencyUSDT Currency = "USDT"
)

// IsValid reports whether c is a recognised [Currency] value.
func (c Currency) IsValid() bool {
	return c == CurrencyHBAR || c == CurrencyUSDT
}

// AccessLevel is the outcome of an access-gating decision.
type AccessLevel string

const (
	// AccessGranted allows reading every page.
	AccessGranted AccessLevel = "granted"

	// AccessPreview allows reading only the preview pages.
	AccessPreview AccessLevel = "preview"

	// AccessDenied allows nothing.
	AccessDenied AccessLevel = "denied"
)

// PreviewPageCount is how many pages a preview-only reader may see.
const PreviewPageCount = 3

// # Core Entities

// Page is one ordered content page of an episode.
type Page struct {
	Index int    `json:"index"`
	Hash  string `json:"hash"`
	URL   string `json:"url"`
}

// Pricing holds the commercial terms of an episode.
type Pricing struct {
	MintPrice float64  `json:"mint_price"`
	ReadPrice float64  `json:"read_price"`
	Currency  Currency `json:"currency"`
}

// Supply tracks the collection's serial accounting.
// Invariant: Current + Burned <= Max whenever Max > 0.
type Supply struct {
	Max     int `json:"max_supply"` // 0 = unbounded
	Current int `json:"current_supply"`
	Burned  int `json:"burned"`
}

// MintingRules govern when and to whom serials may be minted.
type MintingRules struct {
	Enabled       bool       `json:"enabled"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	MaxPerWallet  int        `json:"max_per_wallet"` // 0 = uncapped
	WhitelistOnly bool       `json:"whitelist_only"`
	Whitelist     []string   `json:"whitelist,omitempty"`
}

// IsWhitelisted reports whether the account appears on the whitelist.
func (rules MintingRules) IsWhitelisted(accountID string) bool {
	for _, entry := range rules.Whitelist {
		if entry == accountID {
			return true
		}
	}
	return false
}

// Stats holds the aggregate counters of an episode. All mutations go through
// atomic database increments, never read-modify-write in application code.
type Stats struct {
	TotalMinted   int     `json:"total_minted"`
	TotalReads    int     `json:"total_reads"`
	TotalEarnings float64 `json:"total_earnings"`
	UniqueReaders int     `json:"unique_readers"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// MintedNFT is one row of the minted-NFT mirror: the local record of a serial
// minted on the ledger and its current owner account.
type MintedNFT struct {
	ID            string    `json:"id"`
	EpisodeID     string    `json:"episode_id"`
	SerialNumber  int64     `json:"serial_number"`
	OwnerAccount  string    `json:"owner_account"`
	MintedAt      time.Time `json:"minted_at"`
	TransactionID string    `json:"transaction_id"`
}

// Episode is the central aggregate of the minting domain.
type Episode struct {
	ID            string `json:"id"`
	ComicID       string `json:"comic_id"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`

	// CollectionTokenID is assigned once by the ledger at creation and is
	// immutable thereafter.
	CollectionTokenID string `json:"collection_token_id"`

	CoverHash string `json:"cover_hash"`
	CoverURL  string `json:"cover_url"`
	Pages     []Page `json:"pages,omitempty"`
	PageCount int    `json:"page_count"`

	Pricing Pricing      `json:"pricing"`
	Supply  Supply       `json:"supply"`
	Rules   MintingRules `json:"minting_rules"`
	Stats   Stats        `json:"stats"`

	Status     Status     `json:"status"`
	IsLive     bool       `json:"is_live"`
	IsFree     bool       `json:"is_free"`
	AccessType AccessType `json:"access_type"`

	PublishedAt  *time.Time `json:"published_at,omitempty"`
	LastMintedAt *time.Time `json:"last_minted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasSupplyHeadroom reports whether quantity more serials fit under the cap.
func (episode *Episode) HasSupplyHeadroom(quantity int) bool {
	if episode.Supply.Max == 0 {
		return true
	}
	return episode.Supply.Current+episode.Supply.Burned+quantity <= episode.Supply.Max
}

// # Access Gating

// CanAccess decides whether an account may read an episode.
//
// Evaluation order:
//  1. Free episodes grant everyone full access.
//  2. Public episodes grant everyone a preview.
//  3. NFT-gated episodes grant full access to mirror owners, otherwise deny.
//  4. Paid episodes grant full access only with a verified payment.
//
// The function is pure: it never mutates state and depends only on its inputs.
// mirrorOwners is the set of owner accounts from the episode's minted-NFT
// mirror; paymentVerified is supplied by the external payment collaborator.
func CanAccess(episode *Episode, mirrorOwners []string, accountID string, paymentVerified bool) AccessLevel {
	if episode.IsFree || episode.AccessType == AccessFree {
		return AccessGranted
	}

	if episode.AccessType == AccessPublic {
		return AccessPreview
	}

	if episode.AccessType == AccessNFTHolders {
		for _, owner := range mirrorOwners {
			if owner == accountID && accountID != "" {
				return AccessGranted
			}
		}
		return AccessDenied
	}

	if episode.AccessType == AccessPaid {
		if paymentVerified {
			return AccessGranted
		}
		return AccessDenied
	}

	return AccessDenied
}

// PreviewPages returns the pages visible to a preview-only reader.
func (episode *Episode) PreviewPages() []Page {
	if len(episode.Pages) <= PreviewPageCount {
		return episode.Pages
	}
	return episode.Pages[:PreviewPageCount]
}

// # Collection View

// OwnedCollection groups a caller's mirror rows per episode for the
// "my collection" view.
type OwnedCollection struct {
	EpisodeID     string  `json:"episode_id"`
	ComicID       string  `json:"comic_id"`
	EpisodeTitle  string  `json:"episode_title"`
	EpisodeNumber int     `json:"episode_number"`
	CoverURL      string  `json:"cover_url"`
	SerialNumbers []int64 `json:"serial_numbers"`
	Quantity      int     `json:"quantity"`
}

// # Field Identifiers

// Global field names for validation and dynamic query mapping.
const (
	FieldID            = "id"
	FieldComicID       = "comic_id"
	FieldEpisodeNumber = "episode_number"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldMintPrice     = "mint_price"
	FieldReadPrice     = "read_price"
	FieldCurrency      = "currency"
	FieldMaxSupply     = "max_supply"
	FieldAccessType    = "access_type"
	FieldQuantity      = "quantity"
	FieldStartTime     = "start_time"
	FieldEndTime       = "end_time"
	FieldMaxPerWallet  = "max_per_wallet"
	FieldWhitelist     = "whitelist"
	FieldCover         = "cover"
	FieldPages         = "pages"
	FieldStatus        = "status"
)

// Stat counter names accepted by IncrementStat. Each maps to exactly one
// whitelisted column; anything else is rejected.
const (
	StatTotalReads    = "total_reads"
	StatUniqueReaders = "unique_readers"
	StatTotalRatings  = "total_ratings"
)
