package schema

// CoreComicTable represents the 'core.comic' table
type CoreComicTable struct {
	Table             string
	ID                string
	Title             string
	Slug              string
	Description       string
	Series            string
	Genres            string
	CreatorID         string
	RoyaltyPercentage string
	Status            string
	PageCount         string
	CoverHash         string
	CoverURL          string
	CbzURL            string
	PdfURL            string
	CreatedAt         string
	UpdatedAt         string
}

// CoreComic is the schema definition for core.comic
var CoreComic = CoreComicTable{
	Table:             "core.comic",
	ID:                "id",
	Title:             "title",
	Slug:              "slug",
	Description:       "description",
	Series:            "series",
	Genres:            "genres",
	CreatorID:         "creatorid",
	RoyaltyPercentage: "royaltypercentage",
	Status:            "status",
	PageCount:         "pagecount",
	CoverHash:         "coverhash",
	CoverURL:          "coverurl",
	CbzURL:            "cbzurl",
	PdfURL:            "pdfurl",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

func (t CoreComicTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Description, t.Series, t.Genres, t.CreatorID,
		t.RoyaltyPercentage, t.Status, t.PageCount, t.CoverHash, t.CoverURL,
		t.CbzURL, t.PdfURL, t.CreatedAt, t.UpdatedAt,
	}
}
