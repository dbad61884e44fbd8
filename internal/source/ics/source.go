package ics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"calendar_syncer/internal/domain"
)

const SourceName = "ics"

// Recurrence expansion horizon when no retention window is configured.
// Expansion always needs a finite range; without a window it defaults to
// a wide one instead of collapsing to the run instant.
const (
	defaultExpansionDaysPast   = 365
	defaultExpansionDaysFuture = 2 * 365
)

// Config holds feed source configuration. DaysPast/DaysFuture bound
// recurrence expansion, not the event list itself; both zero means the
// default wide horizon.
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DaysPast       int
	DaysFuture     int
}

// Source fetches and parses an ICS calendar feed.
type Source struct {
	httpClient     *http.Client
	url            string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	daysPast       int
	daysFuture     int
	logger         *slog.Logger
}

// New creates a new ICS feed source.
func New(cfg Config, logger *slog.Logger) *Source {
	daysPast, daysFuture := cfg.DaysPast, cfg.DaysFuture
	if daysPast == 0 && daysFuture == 0 {
		daysPast = defaultExpansionDaysPast
		daysFuture = defaultExpansionDaysFuture
	}

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:            cfg.URL,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		daysPast:       daysPast,
		daysFuture:     daysFuture,
		logger:         logger.With("source", SourceName),
	}
}

// Name returns a human-readable source name.
func (s *Source) Name() string {
	return SourceName
}

// FetchEvents downloads the feed, parses it and expands recurring
// events into individual occurrences within the configured horizon.
func (s *Source) FetchEvents(ctx context.Context) ([]domain.SourceEvent, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(body)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	parsed := s.parseCalendar(cal)

	// The horizon runs on midnight UTC boundaries like the creation
	// window does, so an occurrence on the window's earliest day is not
	// lost to the time of day the run happens to start at. The extra
	// day at the far end covers occurrences later on the last day.
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	events := s.expand(parsed, day.AddDate(0, 0, -s.daysPast), day.AddDate(0, 0, s.daysFuture+1))

	s.logger.Debug("fetched feed", "vevents", len(parsed), "events", len(events))
	return events, nil
}

func (s *Source) fetch(ctx context.Context) (io.Reader, error) {
	var body io.Reader
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		body, err = s.doRequest(ctx)
		if err == nil {
			return body, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("feed request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/calendar")
	req.Header.Set("User-Agent", "CalendarSyncer/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return bytes.NewReader(data), nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
