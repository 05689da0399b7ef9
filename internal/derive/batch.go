package derive

import (
	"context"
	"sort"

	"jumptoc/pkg/models"
)

// Event kinds for batch detection.
const (
	EventDebut  = "debut"
	EventFinale = "finale"
)

// DefaultIssueTolerance is the maximum issue-index gap between
// consecutive events that still belong to the same batch.
const DefaultIssueTolerance = 3

// Event is one series debut or finale placed on the release calendar.
type Event struct {
	Series string
	Date   string
	Kind   string
}

// BatchStore is the slice of the chapter repo the batch pass needs.
type BatchStore interface {
	DistinctReleaseDates(ctx context.Context) ([]string, error)
	Debuts(ctx context.Context) (map[string]string, error)
	ReplaceBatches(ctx context.Context, batches []models.Batch) error
}

// BuildEvents combines the debut view (earliest record per series) with
// the external finale view into one deterministic event sequence, ordered
// by date, then kind, then series.
func BuildEvents(debuts, finales map[string]string) []Event {
	events := make([]Event, 0, len(debuts)+len(finales))
	for s, d := range debuts {
		events = append(events, Event{Series: s, Date: d, Kind: EventDebut})
	}
	for s, d := range finales {
		events = append(events, Event{Series: s, Date: d, Kind: EventFinale})
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Series < b.Series
	})
	return events
}

// GroupBatches partitions the ordered event sequence into batches with a
// single linear pass. Dates translate to ordinal issue indices over the
// system-wide distinct release dates; whenever the index gap from the
// previous event exceeds the tolerance, a new batch starts. Editorial
// batches cluster around decisions rather than calendar boundaries, which
// is why grouping is proximity-based instead of fixed windows.
func GroupBatches(events []Event, issueDates []string, tolerance int) []models.Batch {
	if len(events) == 0 {
		return nil
	}

	index := make(map[string]int, len(issueDates))
	for i, d := range issueDates {
		index[d] = i
	}
	// a date missing from the chapters table (a finale boundary past the
	// loaded window, say) slots in at its sorted position
	indexOf := func(date string) int {
		if i, ok := index[date]; ok {
			return i
		}
		return sort.SearchStrings(issueDates, date)
	}

	var batches []models.Batch
	var current *models.Batch
	prevIdx := 0

	for _, ev := range events {
		idx := indexOf(ev.Date)
		if current == nil || idx-prevIdx > tolerance {
			batches = append(batches, models.Batch{StartDate: ev.Date, EndDate: ev.Date})
			current = &batches[len(batches)-1]
		}
		if ev.Date < current.StartDate {
			current.StartDate = ev.Date
		}
		if ev.Date > current.EndDate {
			current.EndDate = ev.Date
		}
		switch ev.Kind {
		case EventDebut:
			current.Added++
		case EventFinale:
			current.Completed++
		}
		prevIdx = idx
	}
	return batches
}

// RebuildBatches recomputes the batches aggregate from the current
// chapter table and the external finale view, replacing the stored
// aggregate wholesale.
func RebuildBatches(ctx context.Context, store BatchStore, finales map[string]string, tolerance int) ([]models.Batch, error) {
	dates, err := store.DistinctReleaseDates(ctx)
	if err != nil {
		return nil, err
	}
	debuts, err := store.Debuts(ctx)
	if err != nil {
		return nil, err
	}

	// finales only count for series that actually have records
	relevant := make(map[string]string, len(finales))
	for s, d := range finales {
		if _, ok := debuts[s]; ok {
			relevant[s] = d
		}
	}

	batches := GroupBatches(BuildEvents(debuts, relevant), dates, tolerance)
	if err := store.ReplaceBatches(ctx, batches); err != nil {
		return nil, err
	}
	return batches, nil
}
