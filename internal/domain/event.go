package domain

import "time"

// DateBound is one end of an event's time range: either a whole calendar
// date (AllDay, Time holds midnight UTC of that date) or an exact instant.
// The zero value means the bound is absent.
type DateBound struct {
	Time   time.Time
	AllDay bool
}

// Date builds an all-day bound for the given calendar date.
func Date(year int, month time.Month, day int) DateBound {
	return DateBound{
		Time:   time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}
}

// Instant builds a timed bound.
func Instant(t time.Time) DateBound {
	return DateBound{Time: t}
}

func (b DateBound) IsZero() bool {
	return b.Time.IsZero()
}

// DateOnly returns the calendar date portion of the bound as midnight UTC.
// Timed bounds are converted to UTC first.
func (b DateBound) DateOnly() time.Time {
	t := b.Time
	if !b.AllDay {
		t = t.UTC()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SourceEvent is one entry of the calendar feed as produced by the
// provider. UID is the sync key; no validation happens here.
type SourceEvent struct {
	UID      string
	Summary  string
	Start    DateBound
	End      DateBound
	Location string
}
