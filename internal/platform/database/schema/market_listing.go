package schema

// MarketListingTable represents the 'market.listing' table
type MarketListingTable struct {
	Table          string
	ID             string
	EpisodeID      string
	SerialNumber   string
	SellerID       string
	SellerAccount  string
	Type           string
	Price          string
	Currency       string
	Status         string
	EndTime        string
	MinBid         string
	HighestBid     string
	HighestBidder  string
	CreatedAt      string
	UpdatedAt      string
}

// MarketListing is the schema definition for market.listing
var MarketListing = MarketListingTable{
	Table:          "market.listing",
	ID:             "id",
	EpisodeID:      "episodeid",
	SerialNumber:   "serialnumber",
	SellerID:       "sellerid",
	SellerAccount:  "selleraccount",
	Type:           "type",
	Price:          "price",
	Currency:       "currency",
	Status:         "status",
	EndTime:        "endtime",
	MinBid:         "minbid",
	HighestBid:     "highestbid",
	HighestBidder:  "highestbidder",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

func (t MarketListingTable) Columns() []string {
	return []string{
		t.ID, t.EpisodeID, t.SerialNumber, t.SellerID, t.SellerAccount,
		t.Type, t.Price, t.Currency, t.Status, t.EndTime, t.MinBid,
		t.HighestBid, t.HighestBidder, t.CreatedAt, t.UpdatedAt,
	}
}
