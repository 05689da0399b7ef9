package toc

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"jumptoc/pkg/models"
)

// ErrUnrecognizedDate means an issue identifier carries no parseable date.
// The issue is skipped; a multi-issue walk continues past it.
var ErrUnrecognizedDate = errors.New("no recognizable date in issue identifier")

var (
	reIssueDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	reDigits    = regexp.MustCompile(`\d+`)
)

// RawRow is one scraped table-of-contents row, exactly as published.
// Placement is assigned by the magazine, not computed here.
type RawRow struct {
	Title        string
	ChapterTitle string
	Placement    int
}

// Issue is one week's worth of typed chapter records before title
// canonicalization.
type Issue struct {
	ID          string
	ReleaseDate string
	// NonSunday flags an issue whose offset-corrected date did not land
	// on a Sunday. The date is kept as computed, never silently fixed;
	// callers decide whether to keep or discard the issue.
	NonSunday bool
	Records   []models.ChapterRecord
}

// Builder turns raw issue rows into typed chapter records.
type Builder struct {
	// DayOffset is subtracted from the date embedded in the issue
	// identifier to land on the U.S. release Sunday.
	DayOffset int
	// RankFloor excludes early Normal chapters (numbered <= RankFloor)
	// from the table-of-contents ranking.
	RankFloor int
}

func NewBuilder(dayOffset, rankFloor int) *Builder {
	return &Builder{DayOffset: dayOffset, RankFloor: rankFloor}
}

// BuildIssue converts one issue's rows into chapter records. It returns
// ErrUnrecognizedDate when the identifier has no date; every other input
// produces records, with NonSunday set when the corrected date misses the
// release window.
func (b *Builder) BuildIssue(issueID string, rows []RawRow) (*Issue, error) {
	raw := reIssueDate.FindString(issueID)
	if raw == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedDate, issueID)
	}
	nominal, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedDate, issueID)
	}

	corrected := nominal.AddDate(0, 0, -b.DayOffset)
	issue := &Issue{
		ID:          issueID,
		ReleaseDate: corrected.Format("2006-01-02"),
		NonSunday:   corrected.Weekday() != time.Sunday,
	}

	issue.Records = make([]models.ChapterRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.ChapterRecord{
			Series:      row.Title,
			ReleaseDate: issue.ReleaseDate,
			Placement:   row.Placement,
			Chapter:     extractChapterNumber(row.ChapterTitle),
			Type:        ClassifyType(row.ChapterTitle),
		}
		issue.Records = append(issue.Records, rec)
	}

	b.assignRanks(issue.Records)
	return issue, nil
}

// extractChapterNumber takes the first run of digits in the raw chapter
// title; rows with no digits get a nil chapter to be inferred later.
func extractChapterNumber(chapterTitle string) *int {
	digits := reDigits.FindString(chapterTitle)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// assignRanks computes toc_rank over the eligible rows only: Normal
// chapters past the rank floor, plus Normal rows with no chapter number
// (typically finales). Ranks are dense 1..k ordered by placement.
func (b *Builder) assignRanks(records []models.ChapterRecord) {
	eligible := make([]int, 0, len(records))
	for i, rec := range records {
		if rec.Type != models.TypeNormal {
			continue
		}
		if rec.Chapter != nil && *rec.Chapter <= b.RankFloor {
			continue
		}
		eligible = append(eligible, i)
	}

	sort.Slice(eligible, func(a, b int) bool {
		return records[eligible[a]].Placement < records[eligible[b]].Placement
	})

	for rank, idx := range eligible {
		r := rank + 1
		records[idx].TOCRank = &r
	}
}
