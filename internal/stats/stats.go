// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package stats assembles platform-wide aggregates for the public landing
surface.

The numbers come from cross-domain aggregate queries (comics, trades, the
minted-NFT mirror) and are cached in Redis for a short window, so the landing
page never fans out to four COUNT queries per request.
*/
package stats

// Platform is the public platform-wide summary.
type Platform struct {
	// TotalComics counts every comic that left the draft state.
	TotalComics int `json:"total_comics"`

	// TotalPublished counts comics currently published.
	TotalPublished int `json:"total_published"`

	// TradedVolume sums all completed marketplace trade amounts.
	TradedVolume float64 `json:"traded_volume"`

	// TotalSales counts completed marketplace trades.
	TotalSales int `json:"total_sales"`

	// TotalCreators counts distinct users with at least one comic.
	TotalCreators int `json:"total_creators"`

	// TotalCollectors counts distinct ledger accounts holding at least one
	// minted serial.
	TotalCollectors int `json:"total_collectors"`
}
