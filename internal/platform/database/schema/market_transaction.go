package schema

// MarketTransactionTable represents the 'market.transaction' table
type MarketTransactionTable struct {
	Table         string
	ID            string
	ListingID     string
	Type          string
	BuyerAccount  string
	SellerAccount string
	Amount        string
	Currency      string
	Status        string
	ExecutedAt    string
}

// MarketTransaction is the schema definition for market.transaction
var MarketTransaction = MarketTransactionTable{
	Table:         "market.transaction",
	ID:            "id",
	ListingID:     "listingid",
	Type:          "type",
	BuyerAccount:  "buyeraccount",
	SellerAccount: "selleraccount",
	Amount:        "amount",
	Currency:      "currency",
	Status:        "status",
	ExecutedAt:    "executedat",
}

func (t MarketTransactionTable) Columns() []string {
	return []string{
		t.ID, t.ListingID, t.Type, t.BuyerAccount, t.SellerAccount,
		t.Amount, t.Currency, t.Status, t.ExecutedAt,
	}
}
