package sync

import (
	"fmt"

	"calendar_syncer/internal/domain"
	"calendar_syncer/internal/notion"
)

// Index joins the feed snapshot and the destination snapshot by
// identifier.
type Index struct {
	Events map[string]Event
	Pages  map[string]notion.Page

	// IDs is the union of identifiers in encounter order: feed order
	// first, then destination-only identifiers in destination order.
	IDs []string

	// EventErrors holds the per-event normalization failures; those
	// events are absent from Events.
	EventErrors []error
}

// BuildIndex indexes both snapshots and computes the identifier union.
//
// Duplicate identifiers within the feed are resolved last-wins: feeds
// may legitimately repeat recurring-event master records before their
// exceptions, and later entries carry the newer data. Duplicate
// identifiers within the destination are a run error.
func BuildIndex(events []domain.SourceEvent, pages []notion.Page, idProperty string) (*Index, error) {
	idx := &Index{
		Events: make(map[string]Event, len(events)),
		Pages:  make(map[string]notion.Page, len(pages)),
	}
	seen := make(map[string]bool, len(events)+len(pages))

	for _, raw := range events {
		ev, err := NormalizeEvent(raw)
		if err != nil {
			idx.EventErrors = append(idx.EventErrors, err)
			continue
		}
		if !seen[ev.ID] {
			seen[ev.ID] = true
			idx.IDs = append(idx.IDs, ev.ID)
		}
		idx.Events[ev.ID] = ev
	}

	for _, page := range pages {
		id, err := pageIdentifier(page, idProperty)
		if err != nil {
			return nil, err
		}
		if _, dup := idx.Pages[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
		}
		idx.Pages[id] = page
		if !seen[id] {
			seen[id] = true
			idx.IDs = append(idx.IDs, id)
		}
	}

	return idx, nil
}

// pageIdentifier extracts the sync key from a destination record. The
// destination query is expected to pre-filter records to a non-empty
// rich-text identifier; anything else violates that precondition and
// aborts the run.
func pageIdentifier(page notion.Page, idProperty string) (string, error) {
	prop, ok := page.Properties[idProperty]
	if !ok || prop.Type != notion.TypeRichText {
		return "", fmt.Errorf("record %s: identifier property %q is not rich text", page.ID, idProperty)
	}
	id := notion.PlainText(prop.RichText)
	if id == "" {
		return "", fmt.Errorf("record %s: identifier property %q is empty", page.ID, idProperty)
	}
	return id, nil
}
