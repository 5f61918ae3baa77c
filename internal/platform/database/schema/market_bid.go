package schema

// MarketBidTable represents the 'market.bid' table
type MarketBidTable struct {
	Table         string
	ID            string
	ListingID     string
	BidderID      string
	BidderAccount string
	Amount        string
	PlacedAt      string
}

// MarketBid is the schema definition for market.bid
var MarketBid = MarketBidTable{
	Table:         "market.bid",
	ID:            "id",
	ListingID:     "listingid",
	BidderID:      "bidderid",
	BidderAccount: "bidderaccount",
	Amount:        "amount",
	PlacedAt:      "placedat",
}

func (t MarketBidTable) Columns() []string {
	return []string{t.ID, t.ListingID, t.BidderID, t.BidderAccount, t.Amount, t.PlacedAt}
}
