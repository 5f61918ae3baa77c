package schema

// CoreEpisodeTable represents the 'core.episode' table
type CoreEpisodeTable struct {
	Table             string
	ID                string
	ComicID           string
	EpisodeNumber     string
	Title             string
	Description       string
	CollectionTokenID string
	CoverHash         string
	CoverURL          string
	Pages             string
	PageCount         string
	MintPrice         string
	ReadPrice         string
	Currency          string
	MaxSupply         string
	CurrentSupply     string
	Burned            string
	MintEnabled       string
	MintStart         string
	MintEnd           string
	MaxPerWallet      string
	WhitelistOnly     string
	Whitelist         string
	TotalMinted       string
	TotalReads        string
	TotalEarnings     string
	UniqueReaders     string
	AverageRating     string
	TotalRatings      string
	Status            string
	IsLive            string
	IsFree            string
	AccessType        string
	PublishedAt       string
	LastMintedAt      string
	CreatedAt         string
	UpdatedAt         string
}

// CoreEpisode is the schema definition for core.episode
var CoreEpisode = CoreEpisodeTable{
	Table:             "core.episode",
	ID:                "id",
	ComicID:           "comicid",
	EpisodeNumber:     "episodenumber",
	Title:             "title",
	Description:       "description",
	CollectionTokenID: "collectiontokenid",
	CoverHash:         "coverhash",
	CoverURL:          "coverurl",
	Pages:             "pages",
	PageCount:         "pagecount",
	MintPrice:         "mintprice",
	ReadPrice:         "readprice",
	Currency:          "currency",
	MaxSupply:         "maxsupply",
	CurrentSupply:     "currentsupply",
	Burned:            "burned",
	MintEnabled:       "mintenabled",
	MintStart:         "mintstart",
	MintEnd:           "mintend",
	MaxPerWallet:      "maxperwallet",
	WhitelistOnly:     "whitelistonly",
	Whitelist:         "whitelist",
	TotalMinted:       "totalminted",
	TotalReads:        "totalreads",
	TotalEarnings:     "totalearnings",
	UniqueReaders:     "uniquereaders",
	AverageRating:     "averagerating",
	TotalRatings:      "totalratings",
	Status:            "status",
	IsLive:            "islive",
	IsFree:            "isfree",
	AccessType:        "accesstype",
	PublishedAt:       "publishedat",
	LastMintedAt:      "lastmintedat",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

func (t CoreEpisodeTable) Columns() []string {
	return []string{
		t.ID, t.ComicID, t.EpisodeNumber, t.Title, t.Description,
		t.CollectionTokenID, t.CoverHash, t.CoverURL, t.Pages, t.PageCount,
		t.MintPrice, t.ReadPrice, t.Currency, t.MaxSupply, t.CurrentSupply,
		t.Burned, t.MintEnabled, t.MintStart, t.MintEnd, t.MaxPerWallet,
		t.WhitelistOnly, t.Whitelist, t.TotalMinted, t.TotalReads,
		t.TotalEarnings, t.UniqueReaders, t.AverageRating, t.TotalRatings,
		t.Status, t.IsLive, t.IsFree, t.AccessType, t.PublishedAt,
		t.LastMintedAt, t.CreatedAt, t.UpdatedAt,
	}
}
