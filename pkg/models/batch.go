package models

// Batch is one detected cluster of series debut/finale activity. The
// batches table is recomputed wholesale on every run; no identity is
// preserved across runs.
type Batch struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Added     int    `json:"added"`
	Completed int    `json:"completed"`
}
