package domain

import "time"

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	Feed      string
	Fetched   int
	Created   int
	Updated   int
	Unchanged int
	Skipped   int // creations suppressed by the retention window
	Orphaned  int
	Errors    int
	Published int
	DryRun    bool
	Duration  time.Duration
}

// Change describes one executed create or update, for downstream
// consumers.
type Change struct {
	UID    string
	Title  string
	PageID string
}

// RunRecord is the persisted summary of one sync run. It is history
// only: reconciliation never reads it back, every run recomputes the
// full diff from the two snapshots.
type RunRecord struct {
	ID         int64     `db:"id"`
	Feed       string    `db:"feed"`
	StartedAt  time.Time `db:"started_at"`
	Created    int       `db:"created"`
	Updated    int       `db:"updated"`
	Skipped    int       `db:"skipped"`
	Orphaned   int       `db:"orphaned"`
	Errors     int       `db:"errors"`
	DryRun     bool      `db:"dry_run"`
	DurationMS int64     `db:"duration_ms"`
}
