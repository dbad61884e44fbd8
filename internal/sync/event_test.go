package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar_syncer/internal/domain"
)

func TestNormalizeEvent(t *testing.T) {
	start := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.January, 2)

	ev, err := NormalizeEvent(domain.SourceEvent{
		UID:      "uid-1",
		Summary:  "Standup",
		Start:    start,
		End:      end,
		Location: "Room 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", ev.ID)
	assert.Equal(t, "Standup", ev.Title)
	assert.Equal(t, "Room 1", ev.Location)
}

func TestNormalizeEvent_MissingIdentifier(t *testing.T) {
	_, err := NormalizeEvent(domain.SourceEvent{
		Summary: "No UID",
		Start:   domain.Date(2024, time.January, 1),
		End:     domain.Date(2024, time.January, 2),
	})
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestNormalizeEvent_MissingDateRange(t *testing.T) {
	_, err := NormalizeEvent(domain.SourceEvent{
		UID:   "uid-1",
		Start: domain.Date(2024, time.January, 1),
	})
	assert.ErrorIs(t, err, ErrMissingDateRange)

	_, err = NormalizeEvent(domain.SourceEvent{
		UID: "uid-1",
		End: domain.Date(2024, time.January, 2),
	})
	assert.ErrorIs(t, err, ErrMissingDateRange)
}

func TestNormalizeEvent_EmptyTitleAllowed(t *testing.T) {
	ev, err := NormalizeEvent(domain.SourceEvent{
		UID:   "uid-1",
		Start: domain.Date(2024, time.January, 1),
		End:   domain.Date(2024, time.January, 2),
	})
	require.NoError(t, err)
	assert.Empty(t, ev.Title)
}
