// Package week handles manual entry of one issue's worth of chapter
// records, for weeks the loader cannot reach or that need hand
// correction. Entries are validated up front, chapter numbers can be
// derived from what the store already knows, and the write goes through
// the same insert-if-absent path as the loader.
package week

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"jumptoc/pkg/models"
)

// Recency selects how chapter numbers are assigned for the whole week.
const (
	// RecencyNone keeps the chapter numbers given in the entries.
	RecencyNone = ""
	// RecencyLatest numbers each series one past its highest known chapter.
	RecencyLatest = "latest"
	// RecencyPrevious numbers each series one below its lowest known
	// chapter, for back-filling weeks older than the loaded window.
	RecencyPrevious = "previous"
)

// Entry is one hand-entered chapter row.
type Entry struct {
	Series  string `json:"series" binding:"required"`
	Rank    *int   `json:"rank,omitempty"`
	Type    string `json:"type,omitempty"`
	Chapter *int   `json:"chapter,omitempty"`
}

// Store is the slice of the chapter repo manual entry needs.
type Store interface {
	BySeries(ctx context.Context, series string) ([]models.ChapterRecord, error)
	InsertIfAbsent(ctx context.Context, records []models.ChapterRecord) (int, error)
}

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var validTypes = map[string]bool{
	models.TypeNormal:  true,
	models.TypeColor:   true,
	models.TypeCover:   true,
	models.TypeOneShot: true,
	models.TypeAbsent:  true,
}

// Validate checks a week of entries before any store access. It returns
// the warnings that do not block the write, such as provided chapter
// numbers that a recency mode will override.
func Validate(date string, entries []Entry, recency string) ([]string, error) {
	if !reISODate.MatchString(date) {
		return nil, fmt.Errorf("release date must be YYYY-MM-DD, got %q", date)
	}
	switch recency {
	case RecencyNone, RecencyLatest, RecencyPrevious:
	default:
		return nil, fmt.Errorf("unknown recency mode %q", recency)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("a week needs at least one entry")
	}

	var warnings []string
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Series) == "" {
			return nil, fmt.Errorf("entry %d: series name is required", i)
		}
		if seen[e.Series] {
			return nil, fmt.Errorf("entry %d: duplicate series %q", i, e.Series)
		}
		seen[e.Series] = true

		typ := e.Type
		if typ == "" {
			typ = models.TypeNormal
		}
		if !validTypes[typ] {
			return nil, fmt.Errorf("entry %d: unknown chapter type %q", i, e.Type)
		}
		if e.Rank != nil && typ != models.TypeNormal {
			return nil, fmt.Errorf("entry %d: a %s chapter cannot carry a ranking", i, typ)
		}
		if e.Rank != nil && *e.Rank < 1 {
			return nil, fmt.Errorf("entry %d: rankings start at 1", i)
		}
		if e.Chapter != nil && recency != RecencyNone {
			warnings = append(warnings, fmt.Sprintf("%s: provided chapter number ignored, recency=%s assigns it", e.Series, recency))
		}
	}
	return warnings, nil
}

// Apply validates and inserts one week of entries dated date. Under a
// recency mode the chapter number comes from the store: latest extends
// the highest known chapter, previous descends below the lowest. Absent
// entries never get a number. It returns how many records were inserted
// plus the validation warnings.
func Apply(ctx context.Context, store Store, date string, entries []Entry, recency string) (int, []string, error) {
	warnings, err := Validate(date, entries, recency)
	if err != nil {
		return 0, nil, err
	}

	records := make([]models.ChapterRecord, 0, len(entries))
	for i, e := range entries {
		typ := e.Type
		if typ == "" {
			typ = models.TypeNormal
		}

		rec := models.ChapterRecord{
			Series:      e.Series,
			ReleaseDate: date,
			Placement:   i + 1,
			Type:        typ,
			Chapter:     e.Chapter,
			TOCRank:     e.Rank,
		}

		if typ == models.TypeAbsent {
			rec.Chapter = nil
		} else if recency != RecencyNone {
			n, err := recencyChapter(ctx, store, e.Series, recency)
			if err != nil {
				return 0, warnings, err
			}
			rec.Chapter = n
		}
		records = append(records, rec)
	}

	inserted, err := store.InsertIfAbsent(ctx, records)
	if err != nil {
		return 0, warnings, fmt.Errorf("insert week %s: %w", date, err)
	}
	return inserted, warnings, nil
}

// recencyChapter derives a chapter number from the numbers the store
// already holds for the series. A series with no numbered record yields
// nil, leaving the gap for the inference pass.
func recencyChapter(ctx context.Context, store Store, series, recency string) (*int, error) {
	records, err := store.BySeries(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("look up chapters for %s: %w", series, err)
	}

	var lo, hi *int
	for _, rec := range records {
		if rec.Chapter == nil {
			continue
		}
		if lo == nil || *rec.Chapter < *lo {
			v := *rec.Chapter
			lo = &v
		}
		if hi == nil || *rec.Chapter > *hi {
			v := *rec.Chapter
			hi = &v
		}
	}

	switch recency {
	case RecencyLatest:
		if hi == nil {
			return nil, nil
		}
		n := *hi + 1
		return &n, nil
	case RecencyPrevious:
		if lo == nil {
			return nil, nil
		}
		n := *lo - 1
		return &n, nil
	}
	return nil, nil
}
