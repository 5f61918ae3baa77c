package schema

// LibraryReadHistoryTable represents the 'library.readhistory' table
type LibraryReadHistoryTable struct {
	Table          string
	ID             string
	UserID         string
	ComicID        string
	EpisodeID      string
	CurrentPage    string
	TotalPages     string
	Percentage     string
	Completed      string
	AccessType     string
	LastAccessedAt string
	CreatedAt      string
	UpdatedAt      string
}

// LibraryReadHistory is the schema definition for library.readhistory
var LibraryReadHistory = LibraryReadHistoryTable{
	Table:          "library.readhistory",
	ID:             "id",
	UserID:         "userid",
	ComicID:        "comicid",
	EpisodeID:      "episodeid",
	CurrentPage:    "currentpage",
	TotalPages:     "totalpages",
	Percentage:     "percentage",
	Completed:      "completed",
	AccessType:     "accesstype",
	LastAccessedAt: "lastaccessedat",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

func (t LibraryReadHistoryTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.ComicID, t.EpisodeID, t.CurrentPage, t.TotalPages,
		t.Percentage, t.Completed, t.AccessType, t.LastAccessedAt, t.CreatedAt, t.UpdatedAt,
	}
}
