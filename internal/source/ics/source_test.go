package ics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar_syncer/internal/domain"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:all-day@example.com
SUMMARY:Conference
LOCATION:Berlin
DTSTART;VALUE=DATE:20240101
DTEND;VALUE=DATE:20240103
END:VEVENT
BEGIN:VEVENT
UID:timed@example.com
SUMMARY:Standup
DTSTART:20240601T100000Z
DTEND:20240601T103000Z
END:VEVENT
END:VCALENDAR`

func icsBody(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func testSource(t *testing.T, url string) *Source {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(Config{
		URL:            url,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		DaysPast:       3650,
		DaysFuture:     3650,
	}, logger)
}

func TestFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(icsBody(sampleFeed)))
	}))
	defer srv.Close()

	events, err := testSource(t, srv.URL).FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	allDay := events[0]
	assert.Equal(t, "all-day@example.com", allDay.UID)
	assert.Equal(t, "Conference", allDay.Summary)
	assert.Equal(t, "Berlin", allDay.Location)
	assert.True(t, allDay.Start.AllDay)
	assert.Equal(t, "2024-01-01", allDay.Start.Time.Format("2006-01-02"))
	assert.True(t, allDay.End.AllDay)
	assert.Equal(t, "2024-01-03", allDay.End.Time.Format("2006-01-02"))

	timed := events[1]
	assert.Equal(t, "timed@example.com", timed.UID)
	assert.False(t, timed.Start.AllDay)
	assert.Equal(t, time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC), timed.Start.Time.UTC())
	assert.Equal(t, 30*time.Minute, timed.End.Time.Sub(timed.Start.Time))
}

func TestFetchEvents_RetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(icsBody(sampleFeed)))
	}))
	defer srv.Close()

	events, err := testSource(t, srv.URL).FetchEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 3, calls)
}

func TestFetchEvents_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testSource(t, srv.URL).FetchEvents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func feedServer(t *testing.T, feed string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(icsBody(feed)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchEvents_RecurringWithoutHorizonConfig(t *testing.T) {
	start := time.Now().UTC().Add(-48 * time.Hour)
	feed := fmt.Sprintf(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:recurring@example.com
SUMMARY:Daily Standup
DTSTART:%s
DTEND:%s
RRULE:FREQ=DAILY;COUNT=365
END:VEVENT
END:VCALENDAR`,
		start.Format("20060102T150405Z"),
		start.Add(30*time.Minute).Format("20060102T150405Z"),
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	src := New(Config{
		URL:            feedServer(t, feed).URL,
		Timeout:        5 * time.Second,
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, logger)

	// Zero DaysPast/DaysFuture means the default wide horizon, not an
	// empty one: every occurrence of the rule must come through.
	events, err := src.FetchEvents(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Len(t, events, 365)
}

func TestFetchEvents_ExpansionCoversEarliestWindowDay(t *testing.T) {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := day.AddDate(0, 0, -10)

	feed := fmt.Sprintf(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:daily-allday@example.com
SUMMARY:Daily
DTSTART;VALUE=DATE:%s
DTEND;VALUE=DATE:%s
RRULE:FREQ=DAILY;COUNT=40
END:VEVENT
END:VCALENDAR`,
		first.Format("20060102"),
		first.AddDate(0, 0, 1).Format("20060102"),
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	src := New(Config{
		URL:            feedServer(t, feed).URL,
		Timeout:        5 * time.Second,
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		DaysPast:       7,
		DaysFuture:     30,
	}, logger)

	events, err := src.FetchEvents(context.Background())
	require.NoError(t, err)

	uids := make([]string, 0, len(events))
	for _, ev := range events {
		uids = append(uids, ev.UID)
	}

	// The occurrence exactly DaysPast days back falls on the creation
	// window's earliest day; the expansion horizon must not shave it off
	// by starting at the run's time of day.
	want := "daily-allday@example.com/" + day.AddDate(0, 0, -7).Format("20060102T150405Z")
	assert.Contains(t, uids, want)
}

func TestParseVEvent_MissingEndLeftZero(t *testing.T) {
	feed := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:open-ended@example.com
SUMMARY:No End
DTSTART;VALUE=DATE:20240101
END:VEVENT
END:VCALENDAR`

	cal, err := ical.ParseCalendar(strings.NewReader(icsBody(feed)))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	ev, err := parseVEvent(cal.Events()[0])
	require.NoError(t, err)
	assert.False(t, ev.start.IsZero())
	assert.True(t, ev.end.IsZero(), "missing DTEND stays absent; reconciliation reports it")
}

func TestExpand_Daily(t *testing.T) {
	src := testSource(t, "")
	base := parsedEvent{
		uid:     "daily@example.com",
		summary: "Daily",
		start:   domain.Instant(time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)),
		end:     domain.Instant(time.Date(2024, time.June, 1, 11, 0, 0, 0, time.UTC)),
		rrule:   "FREQ=DAILY;COUNT=3",
	}

	events := src.expand([]parsedEvent{base},
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	)

	require.Len(t, events, 3)
	assert.Equal(t, "daily@example.com/20240601T100000Z", events[0].UID)
	assert.Equal(t, "daily@example.com/20240602T100000Z", events[1].UID)
	for _, ev := range events {
		assert.Equal(t, time.Hour, ev.End.Time.Sub(ev.Start.Time))
		assert.Equal(t, "Daily", ev.Summary)
	}
}

func TestExpand_ExDate(t *testing.T) {
	src := testSource(t, "")
	base := parsedEvent{
		uid:     "daily@example.com",
		start:   domain.Instant(time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)),
		end:     domain.Instant(time.Date(2024, time.June, 1, 11, 0, 0, 0, time.UTC)),
		rrule:   "FREQ=DAILY;COUNT=3",
		exDates: []time.Time{time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)},
	}

	events := src.expand([]parsedEvent{base},
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	)

	require.Len(t, events, 2)
	assert.Equal(t, "daily@example.com/20240601T100000Z", events[0].UID)
	assert.Equal(t, "daily@example.com/20240603T100000Z", events[1].UID)
}

func TestExpand_NonRecurringPassThrough(t *testing.T) {
	src := testSource(t, "")
	base := parsedEvent{
		uid:   "plain@example.com",
		start: domain.Date(2024, time.January, 1),
		end:   domain.Date(2024, time.January, 2),
	}

	events := src.expand([]parsedEvent{base}, time.Time{}, time.Time{})
	require.Len(t, events, 1)
	assert.Equal(t, "plain@example.com", events[0].UID)
}

func TestExpand_BadRRuleSkipped(t *testing.T) {
	src := testSource(t, "")
	bad := parsedEvent{
		uid:   "bad@example.com",
		start: domain.Instant(time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)),
		end:   domain.Instant(time.Date(2024, time.June, 1, 11, 0, 0, 0, time.UTC)),
		rrule: "FREQ=NONSENSE",
	}
	good := parsedEvent{
		uid:   "good@example.com",
		start: domain.Date(2024, time.January, 1),
		end:   domain.Date(2024, time.January, 2),
	}

	events := src.expand([]parsedEvent{bad, good}, time.Time{}, time.Now())
	require.Len(t, events, 1)
	assert.Equal(t, "good@example.com", events[0].UID)
}
