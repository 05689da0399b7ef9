package reconcile

import "jumptoc/pkg/models"

// Accumulator gathers the cumulative outcome of a multi-issue walk. It is
// passed through the pipeline stages explicitly instead of living as
// mutable state on the pipeline itself.
type Accumulator struct {
	Valid       []models.ChapterRecord
	Invalid     []Quarantined
	IssuesSeen  int
	IssuesBuilt int
	// Warnings collects per-issue diagnostics (skipped issues, non-Sunday
	// dates) for the run report.
	Warnings []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) AddIssue(valid []models.ChapterRecord, invalid []Quarantined) {
	a.Valid = append(a.Valid, valid...)
	a.Invalid = append(a.Invalid, invalid...)
	a.IssuesBuilt++
}

func (a *Accumulator) Warn(msg string) {
	a.Warnings = append(a.Warnings, msg)
}
