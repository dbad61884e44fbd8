package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"calendar_syncer/internal/domain"
)

// parsedEvent is one VEVENT before recurrence expansion.
type parsedEvent struct {
	uid      string
	summary  string
	location string
	start    domain.DateBound
	end      domain.DateBound
	rrule    string
	exDates  []time.Time
}

// parseCalendar converts every VEVENT of the calendar. Events that fail
// to parse are logged and skipped; the rest of the feed still syncs.
func (s *Source) parseCalendar(cal *ical.Calendar) []parsedEvent {
	events := make([]parsedEvent, 0)

	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			s.logger.Warn("skipping unparseable vevent", "error", err)
			continue
		}
		events = append(events, ev)
	}

	return events
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	endProp := ve.GetProperty(ical.ComponentPropertyDtEnd)

	if isAllDay(startProp) {
		b, err := parseDateValue(startProp.Value)
		if err != nil {
			return out, fmt.Errorf("event %q: bad DTSTART: %w", out.uid, err)
		}
		out.start = b
		if endProp != nil {
			b, err := parseDateValue(endProp.Value)
			if err != nil {
				return out, fmt.Errorf("event %q: bad DTEND: %w", out.uid, err)
			}
			out.end = b
		}
	} else {
		if t, err := ve.GetStartAt(); err == nil {
			out.start = domain.Instant(t)
		}
		if t, err := ve.GetEndAt(); err == nil {
			out.end = domain.Instant(t)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseTimeValue(part); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	return out, nil
}

// isAllDay reports whether DTSTART denotes a whole calendar date:
// either VALUE=DATE or a value without a time component.
func isAllDay(prop *ical.IANAProperty) bool {
	if prop == nil {
		return false
	}
	if vals, ok := prop.ICalParameters["VALUE"]; ok && len(vals) > 0 && strings.EqualFold(vals[0], "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}

func parseDateValue(v string) (domain.DateBound, error) {
	t, err := time.Parse("20060102", strings.TrimSpace(v))
	if err != nil {
		return domain.DateBound{}, err
	}
	return domain.Date(t.Year(), t.Month(), t.Day()), nil
}

// parseTimeValue parses basic ICS DATE / DATE-TIME / UTC forms as used
// by EXDATE values.
func parseTimeValue(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}
