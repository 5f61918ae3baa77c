package schema

// CoreMintedNFTTable represents the 'core.mintednft' table.
//
// Append-only mirror of serials minted on the external ledger. Rows are never
// updated or deleted by request handlers; the reconciliation job may append
// rows that exist on the ledger but are missing locally.
type CoreMintedNFTTable struct {
	Table         string
	ID            string
	EpisodeID     string
	SerialNumber  string
	OwnerAccount  string
	MintedAt      string
	TransactionID string
}

// CoreMintedNFT is the schema definition for core.mintednft
var CoreMintedNFT = CoreMintedNFTTable{
	Table:         "core.mintednft",
	ID:            "id",
	EpisodeID:     "episodeid",
	SerialNumber:  "serialnumber",
	OwnerAccount:  "owneraccount",
	MintedAt:      "mintedat",
	TransactionID: "transactionid",
}

func (t CoreMintedNFTTable) Columns() []string {
	return []string{
		t.ID, t.EpisodeID, t.SerialNumber, t.OwnerAccount, t.MintedAt, t.TransactionID,
	}
}
