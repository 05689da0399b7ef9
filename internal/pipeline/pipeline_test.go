package pipeline

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumptoc/internal/fetch"
	"jumptoc/internal/toc"
	"jumptoc/pkg/models"
)

type fakeWalker struct {
	chain []fetch.FetchedIssue
	err   error
}

func (f *fakeWalker) Walk(ctx context.Context, start string, n int) ([]fetch.FetchedIssue, error) {
	return f.chain, f.err
}

// memStore is an in-memory chapters table keyed by (series, date).
type memStore struct {
	records map[string]map[string]models.ChapterRecord // series -> date -> record
	batches []models.Batch
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]map[string]models.ChapterRecord)}
}

func (m *memStore) InsertIfAbsent(ctx context.Context, records []models.ChapterRecord) (int, error) {
	inserted := 0
	for _, rec := range records {
		byDate, ok := m.records[rec.Series]
		if !ok {
			byDate = make(map[string]models.ChapterRecord)
			m.records[rec.Series] = byDate
		}
		if _, exists := byDate[rec.ReleaseDate]; exists {
			continue
		}
		byDate[rec.ReleaseDate] = rec
		inserted++
	}
	return inserted, nil
}

func (m *memStore) DistinctReleaseDates(ctx context.Context) ([]string, error) {
	set := make(map[string]bool)
	for _, byDate := range m.records {
		for d := range byDate {
			set[d] = true
		}
	}
	var out []string
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) SeriesWithRecords(ctx context.Context) ([]string, error) {
	var out []string
	for s := range m.records {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) RecordDates(ctx context.Context, series string) ([]string, error) {
	var out []string
	for d := range m.records[series] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) BySeries(ctx context.Context, series string) ([]models.ChapterRecord, error) {
	dates, _ := m.RecordDates(ctx, series)
	out := make([]models.ChapterRecord, 0, len(dates))
	for _, d := range dates {
		out = append(out, m.records[series][d])
	}
	return out, nil
}

func (m *memStore) SetChapter(ctx context.Context, series, releaseDate string, chapter int) error {
	rec := m.records[series][releaseDate]
	if rec.Chapter == nil {
		rec.Chapter = &chapter
		m.records[series][releaseDate] = rec
	}
	return nil
}

func (m *memStore) Debuts(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for s := range m.records {
		dates, _ := m.RecordDates(ctx, s)
		if len(dates) > 0 {
			out[s] = dates[0]
		}
	}
	return out, nil
}

func (m *memStore) ReplaceBatches(ctx context.Context, batches []models.Batch) error {
	m.batches = batches
	return nil
}

type fakeDirectory struct {
	titles []string
	debuts map[string]string
	ends   map[string]string
}

func (d *fakeDirectory) Contains(title string) bool {
	for _, t := range d.titles {
		if t == title {
			return true
		}
	}
	return false
}

func (d *fakeDirectory) AllTitles() []string           { return d.titles }
func (d *fakeDirectory) DebutDates() map[string]string { return d.debuts }
func (d *fakeDirectory) EndDates() map[string]string   { return d.ends }

type fakeRunStore struct {
	saved []models.RunReport
}

func (f *fakeRunStore) Save(ctx context.Context, report models.RunReport) error {
	f.saved = append(f.saved, report)
	return nil
}

func page(rows ...toc.RawRow) *fetch.Page {
	return &fetch.Page{Rows: rows}
}

func TestRunLoadsWalkedIssues(t *testing.T) {
	walker := &fakeWalker{chain: []fetch.FetchedIssue{
		{ID: "https://example.net/toc/2025-08-18", Page: page(
			toc.RawRow{Title: "One Piece", ChapterTitle: "Chapter 1120: Lead Color Pages", Placement: 1},
			toc.RawRow{Title: "Sakamoto Days", ChapterTitle: "Chapter 220", Placement: 2},
			toc.RawRow{Title: "Mystery Title", ChapterTitle: "One-Shot Special", Placement: 3},
		)},
		{ID: "https://example.net/toc/2025-08-11", Page: page(
			toc.RawRow{Title: "Sakamoto Days", ChapterTitle: "Chapter 219", Placement: 1},
		)},
	}}
	store := newMemStore()
	runStore := &fakeRunStore{}
	dir := &fakeDirectory{titles: []string{"One Piece", "Sakamoto Days"}}

	runner := &Runner{
		Walker:  walker,
		Builder: toc.NewBuilder(15, 7),
		Store:   store,
		Runs:    runStore,
	}

	result, err := runner.Run(context.Background(), dir, nil, "start", 1)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Report.IssuesWalked)
	assert.Equal(t, 2, result.Report.IssuesProcessed)
	assert.Equal(t, 3, result.Report.ValidRecords)
	assert.Equal(t, 1, result.Report.Quarantined)
	require.Len(t, result.Quarantined, 1)
	assert.Equal(t, "Mystery Title", result.Quarantined[0].Record.Series)

	// 2025-08-18 minus 15 days is Sunday 2025-08-03
	rec := store.records["Sakamoto Days"]["2025-08-03"]
	require.NotNil(t, rec.Chapter)
	assert.Equal(t, 220, *rec.Chapter)

	// One Piece skipped the earlier issue, so the absence pass fills it
	absent := store.records["One Piece"]["2025-07-27"]
	assert.Equal(t, models.TypeAbsent, absent.Type)
	assert.Equal(t, 1, result.Report.AbsencesAdded)

	// one batch: both series debut within tolerance of each other
	require.Len(t, store.batches, 1)
	assert.Equal(t, 2, store.batches[0].Added)

	require.Len(t, runStore.saved, 1)
	assert.Equal(t, result.Report.ID, runStore.saved[0].ID)
}

func TestRunSkipsUnparseableIssueAndWarns(t *testing.T) {
	walker := &fakeWalker{chain: []fetch.FetchedIssue{
		{ID: "https://example.net/toc/special-edition", Page: page()},
		{ID: "https://example.net/toc/2025-08-18", Page: page(
			toc.RawRow{Title: "One Piece", ChapterTitle: "Chapter 1120", Placement: 1},
		)},
	}}
	store := newMemStore()
	dir := &fakeDirectory{titles: []string{"One Piece"}}

	runner := &Runner{Walker: walker, Builder: toc.NewBuilder(15, 7), Store: store}

	result, err := runner.Run(context.Background(), dir, nil, "start", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Report.IssuesWalked)
	assert.Equal(t, 1, result.Report.IssuesProcessed)
	require.NotEmpty(t, result.Report.Warnings)
	assert.Contains(t, result.Report.Warnings[0], "special-edition")
}

func TestRunWarnsOnNonSundayDate(t *testing.T) {
	// 2025-08-19 minus 15 days is a Monday
	walker := &fakeWalker{chain: []fetch.FetchedIssue{
		{ID: "https://example.net/toc/2025-08-19", Page: page(
			toc.RawRow{Title: "One Piece", ChapterTitle: "Chapter 1120", Placement: 1},
		)},
	}}
	store := newMemStore()
	dir := &fakeDirectory{titles: []string{"One Piece"}}

	runner := &Runner{Walker: walker, Builder: toc.NewBuilder(15, 7), Store: store}

	result, err := runner.Run(context.Background(), dir, nil, "start", 0)
	require.NoError(t, err)
	// kept, not dropped
	assert.Equal(t, 1, result.Report.ValidRecords)
	require.Len(t, result.Report.Warnings, 1)
	assert.Contains(t, result.Report.Warnings[0], "not a Sunday")
}

func TestRunBrokenChainProcessesPrefix(t *testing.T) {
	walker := &fakeWalker{
		chain: []fetch.FetchedIssue{
			{ID: "https://example.net/toc/2025-08-18", Page: page(
				toc.RawRow{Title: "One Piece", ChapterTitle: "Chapter 1120", Placement: 1},
			)},
		},
		err: fetch.ErrChainBroken,
	}
	store := newMemStore()
	dir := &fakeDirectory{titles: []string{"One Piece"}}

	runner := &Runner{Walker: walker, Builder: toc.NewBuilder(15, 7), Store: store}

	result, err := runner.Run(context.Background(), dir, nil, "start", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Report.IssuesProcessed)
	require.NotEmpty(t, result.Report.Warnings)
	assert.Contains(t, result.Report.Warnings[0], "walk stopped early")
}

func TestRunEmptyChainIsFatal(t *testing.T) {
	walker := &fakeWalker{err: errors.New("connection refused")}
	store := newMemStore()
	dir := &fakeDirectory{}

	runner := &Runner{Walker: walker, Builder: toc.NewBuilder(15, 7), Store: store}

	_, err := runner.Run(context.Background(), dir, nil, "start", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "walk issues")
}

func TestRunIsIdempotent(t *testing.T) {
	chain := []fetch.FetchedIssue{
		{ID: "https://example.net/toc/2025-08-18", Page: page(
			toc.RawRow{Title: "One Piece", ChapterTitle: "Chapter 1120", Placement: 1},
		)},
	}
	store := newMemStore()
	dir := &fakeDirectory{titles: []string{"One Piece"}}
	runner := &Runner{Walker: &fakeWalker{chain: chain}, Builder: toc.NewBuilder(15, 7), Store: store}

	first, err := runner.Run(context.Background(), dir, nil, "start", 0)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), dir, nil, "start", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, len(store.records["One Piece"]))
	assert.Equal(t, 0, second.Report.AbsencesAdded)
	assert.Equal(t, first.Report.InferredCount, second.Report.InferredCount)
}
