// Package derive holds the read-modify-write passes that run over the
// persisted chapter table after a load: absence back-fill, chapter number
// inference, and debut/finale batch detection. Each pass is a pure
// planning function plus a thin applier over the store, so the policy is
// testable without a database.
package derive

import (
	"context"
	"sort"

	"jumptoc/pkg/models"
)

// AbsenceStore is the slice of the chapter repo the absence pass needs.
type AbsenceStore interface {
	DistinctReleaseDates(ctx context.Context) ([]string, error)
	SeriesWithRecords(ctx context.Context) ([]string, error)
	RecordDates(ctx context.Context, series string) ([]string, error)
	InsertIfAbsent(ctx context.Context, records []models.ChapterRecord) (int, error)
}

// PlanAbsences computes the "series skipped this issue" records implied by
// the current table. A series' absence window is the global date window
// clipped by its optional debut/end boundaries:
//
//	[max(globalFirst, debut), min(globalLast, end)]
//
// A series with no boundary recorded falls back to the full global
// window, which can over-report absences for late starters. That is a
// documented approximation of the source data, not something to correct
// here.
func PlanAbsences(issueDates []string, present map[string][]string, debuts, ends map[string]string) []models.ChapterRecord {
	if len(issueDates) == 0 {
		return nil
	}
	globalFirst := issueDates[0]
	globalLast := issueDates[len(issueDates)-1]

	seriesNames := make([]string, 0, len(present))
	for s := range present {
		seriesNames = append(seriesNames, s)
	}
	sort.Strings(seriesNames)

	var out []models.ChapterRecord
	for _, s := range seriesNames {
		lo, hi := globalFirst, globalLast
		if d, ok := debuts[s]; ok && d > lo {
			lo = d
		}
		if e, ok := ends[s]; ok && e < hi {
			hi = e
		}

		have := make(map[string]bool, len(present[s]))
		for _, d := range present[s] {
			have[d] = true
		}

		for _, date := range issueDates {
			if date < lo || date > hi || have[date] {
				continue
			}
			out = append(out, models.ChapterRecord{
				Series:      s,
				ReleaseDate: date,
				Type:        models.TypeAbsent,
			})
		}
	}
	return out
}

// ReconcileAbsences back-fills absence records for every series with at
// least one chapter record. Inserts are insert-if-absent, so re-running
// the pass never duplicates anything. It reports how many records were
// actually added.
func ReconcileAbsences(ctx context.Context, store AbsenceStore, debuts, ends map[string]string) (int, error) {
	dates, err := store.DistinctReleaseDates(ctx)
	if err != nil {
		return 0, err
	}
	seriesNames, err := store.SeriesWithRecords(ctx)
	if err != nil {
		return 0, err
	}

	present := make(map[string][]string, len(seriesNames))
	for _, s := range seriesNames {
		recorded, err := store.RecordDates(ctx, s)
		if err != nil {
			return 0, err
		}
		present[s] = recorded
	}

	plan := PlanAbsences(dates, present, debuts, ends)
	return store.InsertIfAbsent(ctx, plan)
}
