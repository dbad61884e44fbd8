package sync

import (
	"fmt"

	"calendar_syncer/internal/domain"
	"calendar_syncer/internal/notion"
)

// Mapping wires canonical event fields to destination property names.
// LocationProperty is empty when no location column is configured.
type Mapping struct {
	TitleProperty    string
	IDProperty       string
	DateProperty     string
	LocationProperty string
}

// WriteProperties builds the candidate write set for one event.
//
// The title is only written when the event carries one, so an existing
// destination title is never clobbered with an empty string. The
// location is only written when the event has one and a location
// property is configured; it is never cleared.
func (m Mapping) WriteProperties(ev Event) (map[string]notion.PropertyValue, error) {
	props := make(map[string]notion.PropertyValue, 4)

	if ev.Title != "" {
		props[m.TitleProperty] = notion.NewTitle(ev.Title)
	}

	props[m.IDProperty] = notion.NewText(ev.ID)

	date, err := dateValue(ev.Start, ev.End)
	if err != nil {
		return nil, &EventError{UID: ev.ID, Err: err}
	}
	props[m.DateProperty] = notion.NewDate(date)

	if ev.Location != "" && m.LocationProperty != "" {
		props[m.LocationProperty] = notion.NewText(ev.Location)
	}

	return props, nil
}

// dateValue converts a feed range to a destination range. Feed ranges
// use an exclusive end, destination ranges an inclusive one, so all-day
// ends move back one day; a range collapsing to a single day drops its
// end entirely, the destination convention for single-day events.
func dateValue(start, end domain.DateBound) (notion.DateValue, error) {
	switch {
	case start.AllDay && end.AllDay:
		last := end.Time.AddDate(0, 0, -1)
		if last.Year() < 1 {
			return notion.DateValue{}, fmt.Errorf("%w: inclusive end underflows", ErrInvalidDateRange)
		}
		dv := notion.DateValue{
			Start: notion.DateOrDateTime{Time: start.Time},
		}
		if !last.Equal(start.Time) {
			dv.End = &notion.DateOrDateTime{Time: last}
		}
		return dv, nil

	case !start.AllDay && !end.AllDay:
		// Timed events keep their end: a single instant is still a range.
		e := notion.DateOrDateTime{Time: end.Time.UTC(), HasTime: true}
		return notion.DateValue{
			Start: notion.DateOrDateTime{Time: start.Time.UTC(), HasTime: true},
			End:   &e,
		}, nil

	default:
		return notion.DateValue{}, fmt.Errorf("%w: mixed date and date-time bounds", ErrInvalidDateRange)
	}
}
