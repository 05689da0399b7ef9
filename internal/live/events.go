// Package live pushes pipeline activity to connected clients, over raw
// TCP lines or websocket, so a dashboard can refresh without polling.
package live

import (
	"time"

	"jumptoc/pkg/models"
)

// Event types carried on the feed.
const (
	EventRunCompleted = "run.completed"
	EventWeekAdded    = "week.added"
)

// RunCompleted announces that a loader run finished, with its summary.
type RunCompleted struct {
	Type   string           `json:"type"` // "run.completed"
	Report models.RunReport `json:"report"`
	At     time.Time        `json:"at"`
}

// WeekAdded announces a manually entered week.
type WeekAdded struct {
	Type        string    `json:"type"` // "week.added"
	ReleaseDate string    `json:"release_date"`
	Records     int       `json:"records"`
	At          time.Time `json:"at"`
}
