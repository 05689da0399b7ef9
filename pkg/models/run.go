package models

import "time"

// RunReport summarizes one pipeline run: how many issues were walked and
// processed, how the records partitioned, and which series could not have
// chapter numbers inferred.
type RunReport struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	IssuesWalked    int       `json:"issues_walked"`
	IssuesProcessed int       `json:"issues_processed"`
	ValidRecords    int       `json:"valid_records"`
	Quarantined     int       `json:"quarantined"`
	AbsencesAdded   int       `json:"absences_added"`
	InferredCount   int       `json:"inferred_count"`
	MissingBaseline []string  `json:"missing_baseline,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
}
