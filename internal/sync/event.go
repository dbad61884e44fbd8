package sync

import (
	"calendar_syncer/internal/domain"
)

// Event is a feed entry that passed normalization: it has an identifier
// and both range bounds. Whether the bounds are of matching kinds is the
// translator's concern, not the adapter's.
type Event struct {
	ID       string
	Title    string
	Start    domain.DateBound
	End      domain.DateBound
	Location string
}

// NormalizeEvent validates one raw feed entry for reconciliation.
//
// An empty identifier is rejected rather than keyed under "": keying all
// identifier-less events under the empty string would silently collapse
// them into one.
func NormalizeEvent(raw domain.SourceEvent) (Event, error) {
	if raw.UID == "" {
		return Event{}, &EventError{UID: raw.UID, Err: ErrMissingIdentifier}
	}
	if raw.Start.IsZero() || raw.End.IsZero() {
		return Event{}, &EventError{UID: raw.UID, Err: ErrMissingDateRange}
	}

	return Event{
		ID:       raw.UID,
		Title:    raw.Summary,
		Start:    raw.Start,
		End:      raw.End,
		Location: raw.Location,
	}, nil
}
