package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumptoc/pkg/models"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Chapter 12: Finale", models.TypeNormal},
		{"Lead Color Pages, Chapter 1100", models.TypeCover},
		{"Color Pages, Chapter 56", models.TypeColor},
		{"color page special", models.TypeColor},
		{"One-Shot Special", models.TypeOneShot},
		{"ONE-SHOT", models.TypeOneShot},
		// later rule wins when several substrings match
		{"Lead Color One-Shot", models.TypeOneShot},
		{"Color Pages One-Shot", models.TypeOneShot},
		{"", models.TypeNormal},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.title))
		})
	}
}

func TestBuildIssueDateHandling(t *testing.T) {
	b := NewBuilder(15, 7)

	// 2025-08-18 minus 15 days is Sunday 2025-08-03
	issue, err := b.BuildIssue("https://example.net/en/issues/2025-08-18", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-03", issue.ReleaseDate)
	assert.False(t, issue.NonSunday)

	// 2025-08-19 corrects to a Monday: kept, flagged, never silently fixed
	issue, err = b.BuildIssue("https://example.net/en/issues/2025-08-19", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-04", issue.ReleaseDate)
	assert.True(t, issue.NonSunday)

	_, err = b.BuildIssue("https://example.net/en/issues/latest", nil)
	require.ErrorIs(t, err, ErrUnrecognizedDate)
}

func TestBuildIssueChapterNumbers(t *testing.T) {
	b := NewBuilder(15, 7)

	issue, err := b.BuildIssue("2025-08-18", []RawRow{
		{Title: "One Piece", ChapterTitle: "Chapter 1100: The End", Placement: 1},
		{Title: "Mystery Gag", ChapterTitle: "Final Chapter!!", Placement: 2},
		{Title: "Newcomer", ChapterTitle: "One-Shot Special", Placement: 3},
	})
	require.NoError(t, err)
	require.Len(t, issue.Records, 3)

	require.NotNil(t, issue.Records[0].Chapter)
	assert.Equal(t, 1100, *issue.Records[0].Chapter)
	assert.Nil(t, issue.Records[1].Chapter)
	assert.Nil(t, issue.Records[2].Chapter)
	assert.Equal(t, models.TypeOneShot, issue.Records[2].Type)
}

func TestBuildIssueRanking(t *testing.T) {
	b := NewBuilder(15, 7)

	issue, err := b.BuildIssue("2025-08-18", []RawRow{
		{Title: "Cover Series", ChapterTitle: "Lead Color, Chapter 90", Placement: 1},
		{Title: "Veteran A", ChapterTitle: "Chapter 120", Placement: 2},
		{Title: "Rookie", ChapterTitle: "Chapter 3", Placement: 3},
		{Title: "Veteran B", ChapterTitle: "Chapter 45", Placement: 4},
		{Title: "Ending Series", ChapterTitle: "Final Chapter", Placement: 5},
		{Title: "Special", ChapterTitle: "One-Shot", Placement: 6},
	})
	require.NoError(t, err)

	byTitle := map[string]models.ChapterRecord{}
	for _, rec := range issue.Records {
		byTitle[rec.Series] = rec
	}

	// non-Normal rows and early chapters are never ranked
	assert.Nil(t, byTitle["Cover Series"].TOCRank)
	assert.Nil(t, byTitle["Rookie"].TOCRank)
	assert.Nil(t, byTitle["Special"].TOCRank)

	// eligible rows get a dense 1..k rank ordered by placement; a Normal
	// row with no chapter number (a finale) stays eligible
	require.NotNil(t, byTitle["Veteran A"].TOCRank)
	require.NotNil(t, byTitle["Veteran B"].TOCRank)
	require.NotNil(t, byTitle["Ending Series"].TOCRank)
	assert.Equal(t, 1, *byTitle["Veteran A"].TOCRank)
	assert.Equal(t, 2, *byTitle["Veteran B"].TOCRank)
	assert.Equal(t, 3, *byTitle["Ending Series"].TOCRank)
}

func TestBuildIssueExactlyOneType(t *testing.T) {
	b := NewBuilder(15, 7)
	issue, err := b.BuildIssue("2025-08-18", []RawRow{
		{Title: "A", ChapterTitle: "Lead Color One-Shot", Placement: 1},
		{Title: "B", ChapterTitle: "Color Chapter 9", Placement: 2},
		{Title: "C", ChapterTitle: "Chapter 10", Placement: 3},
	})
	require.NoError(t, err)

	valid := map[string]bool{
		models.TypeNormal:  true,
		models.TypeColor:   true,
		models.TypeCover:   true,
		models.TypeOneShot: true,
	}
	for _, rec := range issue.Records {
		assert.True(t, valid[rec.Type], "unexpected type %q", rec.Type)
	}
}
