package ics

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"calendar_syncer/internal/domain"
)

// maxOccurrencesPerEvent caps expansion of a single recurring event so a
// malformed rule cannot flood the destination.
const maxOccurrencesPerEvent = 1000

// expand turns parsed VEVENTs into the flat event list handed to
// reconciliation. Recurring events become one event per occurrence
// inside [rangeStart, rangeEnd], each with an occurrence-suffixed
// identifier so every instance is its own sync key.
func (s *Source) expand(events []parsedEvent, rangeStart, rangeEnd time.Time) []domain.SourceEvent {
	out := make([]domain.SourceEvent, 0, len(events))

	for _, ev := range events {
		if ev.rrule == "" {
			out = append(out, domain.SourceEvent{
				UID:      ev.uid,
				Summary:  ev.summary,
				Start:    ev.start,
				End:      ev.end,
				Location: ev.location,
			})
			continue
		}

		occurrences, err := s.occurrences(ev, rangeStart, rangeEnd)
		if err != nil {
			s.logger.Warn("skipping recurring event", "uid", ev.uid, "error", err)
			continue
		}
		out = append(out, occurrences...)
	}

	return out
}

func (s *Source) occurrences(ev parsedEvent, rangeStart, rangeEnd time.Time) ([]domain.SourceEvent, error) {
	if ev.start.IsZero() || ev.end.IsZero() {
		// No recurrence without a base range; hand the bare event to
		// reconciliation so the failure is reported there.
		return []domain.SourceEvent{{
			UID:      ev.uid,
			Summary:  ev.summary,
			Start:    ev.start,
			End:      ev.end,
			Location: ev.location,
		}}, nil
	}

	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}
	rule.DTStart(ev.start.Time)

	times := rule.Between(rangeStart, rangeEnd, true)
	if len(times) > maxOccurrencesPerEvent {
		s.logger.Warn("recurrence expansion truncated",
			"uid", ev.uid,
			"occurrences", len(times),
			"cap", maxOccurrencesPerEvent,
		)
		times = times[:maxOccurrencesPerEvent]
	}

	duration := ev.end.Time.Sub(ev.start.Time)
	out := make([]domain.SourceEvent, 0, len(times))

	for _, occ := range times {
		if ev.excluded(occ) {
			continue
		}

		start := domain.DateBound{Time: occ, AllDay: ev.start.AllDay}
		end := domain.DateBound{Time: occ.Add(duration), AllDay: ev.end.AllDay}

		out = append(out, domain.SourceEvent{
			UID:      occurrenceUID(ev.uid, occ),
			Summary:  ev.summary,
			Start:    start,
			End:      end,
			Location: ev.location,
		})
	}

	return out, nil
}

// excluded reports whether the occurrence is cancelled via EXDATE.
// All-day exclusions compare by calendar date.
func (ev parsedEvent) excluded(occ time.Time) bool {
	for _, ex := range ev.exDates {
		if ev.start.AllDay {
			if ex.Year() == occ.Year() && ex.YearDay() == occ.YearDay() {
				return true
			}
			continue
		}
		if ex.Equal(occ) {
			return true
		}
	}
	return false
}

func occurrenceUID(uid string, occ time.Time) string {
	return uid + "/" + occ.UTC().Format("20060102T150405Z")
}
