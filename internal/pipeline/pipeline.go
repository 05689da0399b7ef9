// Package pipeline ties the load together: walk the issue chain, build
// and reconcile each issue, persist the valid records, then run the
// derived passes (absences, chapter inference, batches) over the store.
// The whole run is single-threaded; each fetch depends on the previous
// response and the derived passes read what the insert stage wrote.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jumptoc/internal/derive"
	"jumptoc/internal/fetch"
	"jumptoc/internal/live"
	"jumptoc/internal/reconcile"
	"jumptoc/internal/toc"
	"jumptoc/pkg/models"
)

// ChainWalker assembles the backward chain of issues to load.
type ChainWalker interface {
	Walk(ctx context.Context, start string, n int) ([]fetch.FetchedIssue, error)
}

// Store is everything the run needs from the chapter repo.
type Store interface {
	derive.AbsenceStore
	derive.InferStore
	derive.BatchStore
}

// Directory is the series lookup plus the optional boundary views the
// derived passes consume.
type Directory interface {
	reconcile.Directory
	DebutDates() map[string]string
	EndDates() map[string]string
}

// RunStore persists the per-run summary.
type RunStore interface {
	Save(ctx context.Context, report models.RunReport) error
}

// Broadcaster pushes run events to live subscribers.
type Broadcaster interface {
	BroadcastJSON(v any)
}

// Runner executes one load. Hub may be nil when nothing is listening.
type Runner struct {
	Walker    ChainWalker
	Builder   *toc.Builder
	Store     Store
	Runs      RunStore
	Hub       Broadcaster
	Tolerance int
}

// Result is one completed run: the stored summary plus the quarantined
// records, which are returned to the caller for review rather than
// persisted as chapter rows.
type Result struct {
	Report      models.RunReport
	Quarantined []reconcile.Quarantined
}

// Run walks n issues back from start, loads everything reconcilable,
// and refreshes the derived state. Per-issue problems (unparseable
// identifiers, off-Sunday dates, unknown titles) are recorded and
// skipped; only collaborator and storage failures abort the run.
func (r *Runner) Run(ctx context.Context, dir Directory, corrections map[string]string, start string, n int) (*Result, error) {
	started := time.Now()
	acc := reconcile.NewAccumulator()

	chain, err := r.Walker.Walk(ctx, start, n)
	if err != nil {
		if len(chain) == 0 {
			return nil, fmt.Errorf("walk issues: %w", err)
		}
		// a broken or failing chain still yields a usable prefix
		acc.Warn(fmt.Sprintf("walk stopped early: %v", err))
	}

	rec := reconcile.New(dir, corrections)
	for _, issue := range chain {
		acc.IssuesSeen++

		built, err := r.Builder.BuildIssue(issue.ID, issue.Page.Rows)
		if err != nil {
			if errors.Is(err, toc.ErrUnrecognizedDate) {
				acc.Warn(fmt.Sprintf("skipped %s: %v", issue.ID, err))
				continue
			}
			return nil, fmt.Errorf("build issue %s: %w", issue.ID, err)
		}
		if built.NonSunday {
			acc.Warn(fmt.Sprintf("%s: corrected date %s is not a Sunday", issue.ID, built.ReleaseDate))
		}

		valid, invalid := rec.Partition(built.Records)
		acc.AddIssue(valid, invalid)
	}

	inserted, err := r.Store.InsertIfAbsent(ctx, acc.Valid)
	if err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	log.Printf("[pipeline] %d issues built, %d records inserted, %d quarantined",
		acc.IssuesBuilt, inserted, len(acc.Invalid))

	absences, err := derive.ReconcileAbsences(ctx, r.Store, dir.DebutDates(), dir.EndDates())
	if err != nil {
		return nil, fmt.Errorf("reconcile absences: %w", err)
	}

	inferred, missing, err := derive.InferChapterNumbers(ctx, r.Store)
	if err != nil {
		return nil, fmt.Errorf("infer chapters: %w", err)
	}

	tolerance := r.Tolerance
	if tolerance <= 0 {
		tolerance = derive.DefaultIssueTolerance
	}
	if _, err := derive.RebuildBatches(ctx, r.Store, dir.EndDates(), tolerance); err != nil {
		return nil, fmt.Errorf("rebuild batches: %w", err)
	}

	report := models.RunReport{
		ID:              uuid.NewString(),
		StartedAt:       started,
		FinishedAt:      time.Now(),
		IssuesWalked:    acc.IssuesSeen,
		IssuesProcessed: acc.IssuesBuilt,
		ValidRecords:    len(acc.Valid),
		Quarantined:     len(acc.Invalid),
		AbsencesAdded:   absences,
		InferredCount:   inferred,
		MissingBaseline: missing,
		Warnings:        acc.Warnings,
	}

	if r.Runs != nil {
		if err := r.Runs.Save(ctx, report); err != nil {
			return nil, fmt.Errorf("save run report: %w", err)
		}
	}
	if r.Hub != nil {
		r.Hub.BroadcastJSON(live.RunCompleted{
			Type:   live.EventRunCompleted,
			Report: report,
			At:     report.FinishedAt,
		})
	}

	return &Result{Report: report, Quarantined: acc.Invalid}, nil
}
