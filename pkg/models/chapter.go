package models

// Chapter type labels as stored in the chapters table.
const (
	TypeNormal  = "Normal"
	TypeColor   = "Color"
	TypeCover   = "Cover"
	TypeOneShot = "One-Shot"
	TypeAbsent  = "Absent"
)

// ChapterRecord is one row of the chapters table: one series in one weekly
// issue. (Series, ReleaseDate) is the natural key; inserts are idempotent.
//
// Dates are ISO YYYY-MM-DD strings so lexicographic order is chronological
// order, which the derivation passes rely on.
type ChapterRecord struct {
	Series      string `json:"series"`
	ReleaseDate string `json:"release_date"`
	Placement   int    `json:"placement"`
	Chapter     *int   `json:"chapter,omitempty"`
	Type        string `json:"type"`
	TOCRank     *int   `json:"toc_rank,omitempty"`
}

// IsAbsent reports whether the record marks a week the series skipped.
func (r ChapterRecord) IsAbsent() bool {
	return r.Type == TypeAbsent
}

// Series is one entry of the series directory: the authoritative list of
// known titles. DebutDate and EndDate are optional auxiliary boundaries
// used by absence reconciliation and batch detection.
type Series struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	DebutDate *string `json:"debut_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}
