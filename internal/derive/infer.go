package derive

import (
	"context"

	"jumptoc/pkg/models"
)

// InferStore is the slice of the chapter repo the inference pass needs.
type InferStore interface {
	SeriesWithRecords(ctx context.Context) ([]string, error)
	BySeries(ctx context.Context, series string) ([]models.ChapterRecord, error)
	SetChapter(ctx context.Context, series, releaseDate string, chapter int) error
}

// Assignment is one inferred chapter number for a (series, date) record.
type Assignment struct {
	ReleaseDate string
	Chapter     int
}

// PlanInference fills missing chapter numbers for one series by
// continuing the highest known number, walking records in date order so a
// run of unknowns numbers consecutively. One-shots are not part of a
// numbered sequence and absences have no chapter by definition; both are
// exempt. With no numbered record to extend, nothing is assigned and
// missingBaseline is set so the caller can surface it for review.
//
// Applied twice, the second pass finds no null chapters and is a no-op.
func PlanInference(records []models.ChapterRecord) (assignments []Assignment, missingBaseline bool) {
	max := 0
	haveBaseline := false
	for _, rec := range records {
		if rec.Chapter != nil && *rec.Chapter > max {
			max = *rec.Chapter
			haveBaseline = true
		}
	}

	for _, rec := range records {
		if rec.Chapter != nil {
			continue
		}
		if rec.Type == models.TypeOneShot || rec.IsAbsent() {
			continue
		}
		if !haveBaseline {
			missingBaseline = true
			continue
		}
		max++
		assignments = append(assignments, Assignment{ReleaseDate: rec.ReleaseDate, Chapter: max})
	}
	return assignments, missingBaseline
}

// InferChapterNumbers runs the inference pass over every series. It
// returns the number of records filled and the series that had no
// baseline to extend (left null, a data-quality signal rather than an
// error).
func InferChapterNumbers(ctx context.Context, store InferStore) (int, []string, error) {
	seriesNames, err := store.SeriesWithRecords(ctx)
	if err != nil {
		return 0, nil, err
	}

	inferred := 0
	var missing []string
	for _, s := range seriesNames {
		records, err := store.BySeries(ctx, s)
		if err != nil {
			return inferred, missing, err
		}

		assignments, missingBaseline := PlanInference(records)
		if missingBaseline {
			missing = append(missing, s)
		}
		for _, a := range assignments {
			if err := store.SetChapter(ctx, s, a.ReleaseDate, a.Chapter); err != nil {
				return inferred, missing, err
			}
			inferred++
		}
	}
	return inferred, missing, nil
}
