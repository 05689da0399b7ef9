package chapters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumptoc/pkg/database"
	"jumptoc/pkg/models"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "test.sqlite3"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func intp(v int) *int { return &v }

func seedRecords() []models.ChapterRecord {
	return []models.ChapterRecord{
		{Series: "One Piece", ReleaseDate: "2025-07-27", Placement: 1, Chapter: intp(1119), Type: models.TypeNormal, TOCRank: intp(1)},
		{Series: "One Piece", ReleaseDate: "2025-08-03", Placement: 1, Chapter: intp(1120), Type: models.TypeCover},
		{Series: "Sakamoto Days", ReleaseDate: "2025-08-03", Placement: 2, Type: models.TypeNormal, TOCRank: intp(1)},
	}
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	n, err := repo.InsertIfAbsent(ctx, seedRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.InsertIfAbsent(ctx, seedRecords())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	dates, err := repo.DistinctReleaseDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-07-27", "2025-08-03"}, dates)
}

func TestInsertIfAbsentKeepsFirstWrite(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, err := repo.InsertIfAbsent(ctx, seedRecords())
	require.NoError(t, err)

	// a conflicting row for an existing (series, date) is dropped
	_, err = repo.InsertIfAbsent(ctx, []models.ChapterRecord{
		{Series: "One Piece", ReleaseDate: "2025-08-03", Placement: 9, Chapter: intp(9999), Type: models.TypeNormal},
	})
	require.NoError(t, err)

	records, err := repo.BySeries(ctx, "One Piece")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1120, *records[1].Chapter)
	assert.Equal(t, models.TypeCover, records[1].Type)
}

func TestSetChapterOnlyFillsNulls(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, err := repo.InsertIfAbsent(ctx, seedRecords())
	require.NoError(t, err)

	require.NoError(t, repo.SetChapter(ctx, "Sakamoto Days", "2025-08-03", 220))
	// second write must not overwrite the now-known value
	require.NoError(t, repo.SetChapter(ctx, "Sakamoto Days", "2025-08-03", 999))

	records, err := repo.BySeries(ctx, "Sakamoto Days")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 220, *records[0].Chapter)
}

func TestGlobalWindowAndDebuts(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, _, ok, err := repo.GlobalWindow(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.InsertIfAbsent(ctx, seedRecords())
	require.NoError(t, err)

	first, last, ok, err := repo.GlobalWindow(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-07-27", first)
	assert.Equal(t, "2025-08-03", last)

	first, last, ok, err = repo.Window(ctx, "Sakamoto Days")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-08-03", first)
	assert.Equal(t, "2025-08-03", last)

	_, _, ok, err = repo.Window(ctx, "Unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	debuts, err := repo.Debuts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"One Piece":     "2025-07-27",
		"Sakamoto Days": "2025-08-03",
	}, debuts)
}

func TestReplaceBatchesIsWholesale(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := []models.Batch{
		{StartDate: "2025-07-06", EndDate: "2025-07-20", Added: 2, Completed: 1},
		{StartDate: "2025-08-03", EndDate: "2025-08-03", Added: 1},
	}
	require.NoError(t, repo.ReplaceBatches(ctx, first))

	second := []models.Batch{
		{StartDate: "2025-07-06", EndDate: "2025-08-03", Added: 3, Completed: 1},
	}
	require.NoError(t, repo.ReplaceBatches(ctx, second))

	got, err := repo.ListBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestListFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, err := repo.InsertIfAbsent(ctx, seedRecords())
	require.NoError(t, err)

	got, err := repo.List(ctx, ListQuery{Series: "One Piece"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest issue first
	assert.Equal(t, "2025-08-03", got[0].ReleaseDate)

	got, err = repo.List(ctx, ListQuery{Type: models.TypeCover})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "One Piece", got[0].Series)

	got, err = repo.List(ctx, ListQuery{From: "2025-08-01", To: "2025-08-31"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
