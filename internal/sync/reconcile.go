package sync

import (
	"fmt"
	"log/slog"
	"time"

	"calendar_syncer/internal/notion"
)

// CreateRequest is the full payload for a record the destination does
// not have yet.
type CreateRequest struct {
	ID         string
	Title      string
	Properties map[string]notion.PropertyValue
}

// UpdateRequest is the minimal patch for an existing record.
type UpdateRequest struct {
	ID     string
	Title  string
	PageID string
	Patch  map[string]notion.PropertyValue
}

// Plan is everything one reconciliation pass produced. Creations and
// Updates preserve the identifier encounter order of the union; the
// caller decides whether and how to execute them.
type Plan struct {
	Creations []CreateRequest
	Updates   []UpdateRequest
	Unchanged int
	Skipped   int
	Orphaned  int
	Errors    int
}

// Window bounds creation of new events relative to the run start. It
// never suppresses updates to already-tracked events.
type Window struct {
	Earliest time.Time
	Latest   time.Time
}

// NewWindow builds a window of [now-daysPast, now+daysFuture] calendar
// days.
func NewWindow(now time.Time, daysPast, daysFuture int) Window {
	day := now.UTC()
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Earliest: day.AddDate(0, 0, -daysPast),
		Latest:   day.AddDate(0, 0, daysFuture),
	}
}

// Contains reports whether the given date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	return !date.Before(w.Earliest) && !date.After(w.Latest)
}

// Reconciler walks the identifier union and classifies every id into
// exactly one of: update, create, orphan, or error. It performs no I/O;
// the plan it returns is the caller's to execute.
type Reconciler struct {
	mapping Mapping
	window  *Window
	logger  *slog.Logger
}

// NewReconciler creates a reconciler. window may be nil, in which case
// all new events are eligible for creation.
func NewReconciler(mapping Mapping, window *Window, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		mapping: mapping,
		window:  window,
		logger:  logger,
	}
}

// Plan computes the request plan for one run from the indexed snapshots.
func (r *Reconciler) Plan(idx *Index) (*Plan, error) {
	plan := &Plan{}

	for _, err := range idx.EventErrors {
		r.logger.Warn("skipping feed event", "error", err)
		plan.Errors++
	}

	for _, id := range idx.IDs {
		ev, inFeed := idx.Events[id]
		page, inDest := idx.Pages[id]

		switch {
		case inFeed && inDest:
			props, err := r.mapping.WriteProperties(ev)
			if err != nil {
				r.logger.Warn("skipping update", "uid", id, "error", err)
				plan.Errors++
				continue
			}
			patch, err := Diff(props, page.Properties)
			if err != nil {
				r.logger.Warn("skipping update", "uid", id, "error", err)
				plan.Errors++
				continue
			}
			if len(patch) == 0 {
				plan.Unchanged++
				continue
			}
			plan.Updates = append(plan.Updates, UpdateRequest{
				ID:     id,
				Title:  ev.Title,
				PageID: page.ID,
				Patch:  patch,
			})

		case inFeed:
			if r.window != nil && !r.window.Contains(ev.Start.DateOnly()) {
				r.logger.Debug("event outside retention window", "uid", id, "start", ev.Start.Time)
				plan.Skipped++
				continue
			}
			props, err := r.mapping.WriteProperties(ev)
			if err != nil {
				r.logger.Warn("skipping creation", "uid", id, "error", err)
				plan.Errors++
				continue
			}
			plan.Creations = append(plan.Creations, CreateRequest{
				ID:         id,
				Title:      ev.Title,
				Properties: props,
			})

		case inDest:
			// Orphaned destination record: tracked remotely but gone
			// from the feed. Left untouched.
			r.logger.Debug("record has no matching feed event", "uid", id, "page_id", page.ID)
			plan.Orphaned++

		default:
			return nil, fmt.Errorf("identifier %q in union but in neither snapshot", id)
		}
	}

	return plan, nil
}
