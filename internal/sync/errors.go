package sync

import (
	"errors"
	"fmt"
)

// Per-event errors. Each is scoped to a single identifier: the event is
// logged and skipped, the run continues and will retry it next time.
var (
	ErrMissingIdentifier       = errors.New("event has no identifier")
	ErrMissingDateRange        = errors.New("event has no start or end")
	ErrInvalidDateRange        = errors.New("invalid date range")
	ErrUnsupportedPropertyType = errors.New("unsupported property type")
)

// ErrDuplicateIdentifier is a run error: the destination must guarantee
// identifier uniqueness, so the whole run aborts before any write.
var ErrDuplicateIdentifier = errors.New("duplicate identifier in destination")

// EventError ties a per-event failure to the identifier it concerns.
type EventError struct {
	UID string
	Err error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %q: %v", e.UID, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}
