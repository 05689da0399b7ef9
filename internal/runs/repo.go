package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"jumptoc/pkg/models"
)

// Repo stores the per-run summary reports the pipeline writes after each
// load. The two list-valued columns are JSON-encoded, same shape the API
// serves.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Save(ctx context.Context, report models.RunReport) error {
	missing, err := json.Marshal(report.MissingBaseline)
	if err != nil {
		return fmt.Errorf("encode missing baseline: %w", err)
	}
	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, issues_walked, issues_processed,
		                  valid_records, quarantined, absences_added, inferred_count,
		                  missing_baseline, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.StartedAt, report.FinishedAt, report.IssuesWalked,
		report.IssuesProcessed, report.ValidRecords, report.Quarantined,
		report.AbsencesAdded, report.InferredCount, string(missing), string(warnings))
	if err != nil {
		return fmt.Errorf("save run %s: %w", report.ID, err)
	}
	return nil
}

// List returns the most recent runs first.
func (r *Repo) List(ctx context.Context, limit int) ([]models.RunReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, started_at, finished_at, issues_walked, issues_processed,
		       valid_records, quarantined, absences_added, inferred_count,
		       missing_baseline, warnings
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunReport
	for rows.Next() {
		var (
			rep               models.RunReport
			missing, warnings sql.NullString
		)
		if err := rows.Scan(&rep.ID, &rep.StartedAt, &rep.FinishedAt,
			&rep.IssuesWalked, &rep.IssuesProcessed, &rep.ValidRecords,
			&rep.Quarantined, &rep.AbsencesAdded, &rep.InferredCount,
			&missing, &warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if missing.Valid && missing.String != "" {
			if err := json.Unmarshal([]byte(missing.String), &rep.MissingBaseline); err != nil {
				return nil, fmt.Errorf("decode missing baseline for run %s: %w", rep.ID, err)
			}
		}
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &rep.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings for run %s: %w", rep.ID, err)
			}
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
