package series

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"jumptoc/pkg/models"
)

// Repo reads and maintains the series directory: the authoritative list
// of known titles with their optional debut/end boundaries.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) List(ctx context.Context) ([]models.Series, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title, debut_date, end_date FROM series ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []models.Series
	for rows.Next() {
		var (
			s          models.Series
			debut, end sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Title, &debut, &end); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		if debut.Valid {
			s.DebutDate = &debut.String
		}
		if end.Valid {
			s.EndDate = &end.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Add registers a title; re-adding an existing title is a no-op.
func (r *Repo) Add(ctx context.Context, title string, debutDate, endDate *string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("add series: empty title")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO series (title, debut_date, end_date)
		VALUES (?, ?, ?)
		ON CONFLICT(title) DO NOTHING
	`, title, nullStr(debutDate), nullStr(endDate))
	if err != nil {
		return fmt.Errorf("add series %s: %w", title, err)
	}
	return nil
}

func nullStr(v *string) sql.NullString {
	if v == nil || strings.TrimSpace(*v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*v), Valid: true}
}

// Directory is an in-memory snapshot of the series table, loaded once per
// run. It satisfies the title-reconciliation lookup and carries the two
// optional auxiliary views (debut dates, end dates) used by absence
// reconciliation and batch detection.
type Directory struct {
	titles []string
	set    map[string]bool
	debuts map[string]string
	ends   map[string]string
}

func (r *Repo) Directory(ctx context.Context) (*Directory, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	d := &Directory{
		set:    make(map[string]bool, len(list)),
		debuts: make(map[string]string),
		ends:   make(map[string]string),
	}
	for _, s := range list {
		d.titles = append(d.titles, s.Title)
		d.set[s.Title] = true
		if s.DebutDate != nil {
			d.debuts[s.Title] = *s.DebutDate
		}
		if s.EndDate != nil {
			d.ends[s.Title] = *s.EndDate
		}
	}
	return d, nil
}

func (d *Directory) Contains(title string) bool { return d.set[title] }

func (d *Directory) AllTitles() []string { return d.titles }

// DebutDates returns the optional per-series debut boundary view.
func (d *Directory) DebutDates() map[string]string { return d.debuts }

// EndDates returns the optional per-series finale boundary view.
func (d *Directory) EndDates() map[string]string { return d.ends }
