package chapters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"jumptoc/pkg/models"
)

// Repo is the persistence layer for chapter records and the derived
// batches aggregate.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// InsertIfAbsent writes records, silently skipping any (series,
// release_date) pair that already exists. It reports how many rows were
// actually inserted. Running it twice with the same input leaves the
// table unchanged.
func (r *Repo) InsertIfAbsent(ctx context.Context, records []models.ChapterRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (series, release_date, placement, chapter, type, toc_rank)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(series, release_date) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			rec.Series,
			rec.ReleaseDate,
			rec.Placement,
			nullInt(rec.Chapter),
			rec.Type,
			nullInt(rec.TOCRank),
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s/%s: %w", rec.Series, rec.ReleaseDate, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

// Window returns a series' earliest and latest release dates. ok is
// false when the series has no records.
func (r *Repo) Window(ctx context.Context, series string) (first, last string, ok bool, err error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT MIN(release_date), MAX(release_date) FROM chapters WHERE series = ?
	`, series)
	var lo, hi sql.NullString
	if err := row.Scan(&lo, &hi); err != nil {
		return "", "", false, fmt.Errorf("window %s: %w", series, err)
	}
	if !lo.Valid || !hi.Valid {
		return "", "", false, nil
	}
	return lo.String, hi.String, true, nil
}

// GlobalWindow returns the earliest and latest release dates across all
// series. ok is false when the table is empty.
func (r *Repo) GlobalWindow(ctx context.Context) (first, last string, ok bool, err error) {
	row := r.DB.QueryRowContext(ctx, `SELECT MIN(release_date), MAX(release_date) FROM chapters`)
	var lo, hi sql.NullString
	if err := row.Scan(&lo, &hi); err != nil {
		return "", "", false, fmt.Errorf("global window: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return "", "", false, nil
	}
	return lo.String, hi.String, true, nil
}

// DistinctReleaseDates lists every issue date known to the table,
// ascending. The ordinal position in this list is the "issue index" used
// by batch detection.
func (r *Repo) DistinctReleaseDates(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT release_date FROM chapters ORDER BY release_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("distinct dates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SeriesWithRecords lists every series that has at least one record.
func (r *Repo) SeriesWithRecords(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT series FROM chapters ORDER BY series ASC`)
	if err != nil {
		return nil, fmt.Errorf("series with records: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordDates lists the dates a series already has records for.
func (r *Repo) RecordDates(ctx context.Context, series string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT release_date FROM chapters WHERE series = ? ORDER BY release_date ASC
	`, series)
	if err != nil {
		return nil, fmt.Errorf("record dates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan record date: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// BySeries returns a series' full history ordered by release date.
func (r *Repo) BySeries(ctx context.Context, series string) ([]models.ChapterRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT series, release_date, placement, chapter, type, toc_rank
		FROM chapters
		WHERE series = ?
		ORDER BY release_date ASC
	`, series)
	if err != nil {
		return nil, fmt.Errorf("by series: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// SetChapter fills in an inferred chapter number. The NULL guard makes
// overwriting a known value impossible at the SQL level.
func (r *Repo) SetChapter(ctx context.Context, series, releaseDate string, chapter int) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE chapters SET chapter = ?
		WHERE series = ? AND release_date = ? AND chapter IS NULL
	`, chapter, series, releaseDate)
	if err != nil {
		return fmt.Errorf("set chapter %s/%s: %w", series, releaseDate, err)
	}
	return nil
}

// Debuts maps each series to its earliest recorded release date.
func (r *Repo) Debuts(ctx context.Context) (map[string]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT series, MIN(release_date) FROM chapters GROUP BY series
	`)
	if err != nil {
		return nil, fmt.Errorf("debuts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var series, date string
		if err := rows.Scan(&series, &date); err != nil {
			return nil, fmt.Errorf("scan debut: %w", err)
		}
		out[series] = date
	}
	return out, rows.Err()
}

// ReplaceBatches rewrites the batches aggregate wholesale: delete-all then
// insert, in one transaction.
func (r *Repo) ReplaceBatches(ctx context.Context, batches []models.Batch) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace batches: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches`); err != nil {
		return fmt.Errorf("clear batches: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO batches (start_date, end_date, added, completed)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range batches {
		if _, err := stmt.ExecContext(ctx, b.StartDate, b.EndDate, b.Added, b.Completed); err != nil {
			return fmt.Errorf("insert batch %s: %w", b.StartDate, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batches: %w", err)
	}
	return nil
}

// ListBatches returns the current batches aggregate ordered by start date.
func (r *Repo) ListBatches(ctx context.Context) ([]models.Batch, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT start_date, end_date, added, completed FROM batches ORDER BY start_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []models.Batch
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.StartDate, &b.EndDate, &b.Added, &b.Completed); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListQuery filters the chapter listing endpoints.
type ListQuery struct {
	Series string
	Type   string
	From   string // inclusive release_date lower bound
	To     string // inclusive upper bound
	Limit  int
	Offset int
}

// List returns chapter records matching the query, newest issue first,
// magazine order within an issue.
func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.ChapterRecord, error) {
	var where []string
	var args []any

	if strings.TrimSpace(q.Series) != "" {
		where = append(where, "series = ?")
		args = append(args, strings.TrimSpace(q.Series))
	}
	if strings.TrimSpace(q.Type) != "" {
		where = append(where, "type = ?")
		args = append(args, strings.TrimSpace(q.Type))
	}
	if q.From != "" {
		where = append(where, "release_date >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		where = append(where, "release_date <= ?")
		args = append(args, q.To)
	}

	sqlStr := `
		SELECT series, release_date, placement, chapter, type, toc_rank
		FROM chapters
	`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY release_date DESC, placement ASC LIMIT ? OFFSET ?"

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.ChapterRecord, error) {
	var out []models.ChapterRecord
	for rows.Next() {
		var (
			rec     models.ChapterRecord
			chapter sql.NullInt64
			tocRank sql.NullInt64
		)
		if err := rows.Scan(&rec.Series, &rec.ReleaseDate, &rec.Placement, &chapter, &rec.Type, &tocRank); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		if chapter.Valid {
			n := int(chapter.Int64)
			rec.Chapter = &n
		}
		if tocRank.Valid {
			n := int(tocRank.Int64)
			rec.TOCRank = &n
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
