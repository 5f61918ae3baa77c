// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package reader implements reading progress tracking and gated downloads.

Every authenticated read produces a history record per (user, episode), or
per (user, comic) when the reader moves through the complete work. The
record carries a derived completion percentage so library views never have
to recompute it. Whole-comic download bundles are gated on holding at least
one serial of any episode of the comic.
*/
package reader

import (
	"math"
	"time"
)

// # Core Entities

// ReadHistory is one user's progress through one episode. Records with a
// nil EpisodeID track progress through the comic as a whole.
type ReadHistory struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	ComicID   string  `json:"comic_id"`
	EpisodeID *string `json:"episode_id,omitempty"`

	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	Percentage  int  `json:"percentage"`
	Completed   bool `json:"completed"`

	// AccessType snapshots how the content was accessed at read time.
	AccessType string `json:"access_type,omitempty"`

	LastAccessedAt time.Time `json:"last_accessed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ComputeProgress derives the completion percentage and the completed flag
// from a page position. The function is pure.
//
// Percentage is current/total rounded to the nearest integer; an episode is
// completed once the reader reaches the final page.
func ComputeProgress(currentPage, totalPages int) (percentage int, completed bool) {
	if totalPages <= 0 {
		return 0, false
	}
	percentage = int(math.Round(float64(currentPage) / float64(totalPages) * 100))
	if percentage > 100 {
		percentage = 100
	}
	return percentage, currentPage >= totalPages
}

// DownloadFormat identifies one gated bundle rendition.
type DownloadFormat string

const (
	FormatCBZ DownloadFormat = "cbz"
	FormatPDF DownloadFormat = "pdf"
)

// IsValid reports whether f is a recognised [DownloadFormat] value.
func (f DownloadFormat) IsValid() bool {
	return f == FormatCBZ || f == FormatPDF
}

// Download is the payload of a granted bundle download.
type Download struct {
	ComicID string         `json:"comic_id"`
	Format  DownloadFormat `json:"format"`
	URL     string         `json:"url"`
}
