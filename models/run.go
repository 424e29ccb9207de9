package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusStopped   RunStatus = "stopped"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is the operational record of one export run.
type ScrapeRun struct {
	ID          string     `json:"id" db:"id"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at" db:"finished_at"`
	Status      RunStatus  `json:"status" db:"status"`
	PagesWalked int        `json:"pages_walked" db:"pages_walked"`
	RowsFound   int        `json:"rows_found" db:"rows_found"`
	Error       string     `json:"error,omitempty" db:"error"`
}

// OutputRow is one exported record. The phone is kept as received; the
// normalized form only lives in the dedup set.
type OutputRow struct {
	Street    string
	City      string
	State     string
	Zip       string
	Phone     string
	FirstName string
	LastName  string
}

// Progress is the fire-and-forget signal emitted while a run is paging.
type Progress struct {
	Page  int `json:"page"`
	Count int `json:"count"`
}
