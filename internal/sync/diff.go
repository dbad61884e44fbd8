package sync

import (
	"fmt"

	"calendar_syncer/internal/notion"
)

// Diff returns the candidate properties whose value differs from the
// record's stored value. A property the candidate carries but the record
// lacks is a difference; a property the record carries but the candidate
// lacks is not — the syncer never clears fields it does not manage.
func Diff(candidate, current map[string]notion.PropertyValue) (map[string]notion.PropertyValue, error) {
	patch := make(map[string]notion.PropertyValue)

	for name, want := range candidate {
		have, ok := current[name]
		if !ok {
			patch[name] = want
			continue
		}
		same, err := equalValues(have, want)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		if !same {
			patch[name] = want
		}
	}

	return patch, nil
}

// equalValues compares a stored value against a candidate of the same
// variant. Text-like variants compare by concatenated plain text since
// formatting is never written by the syncer; a variant mismatch is an
// error rather than a silent difference.
func equalValues(have, want notion.PropertyValue) (bool, error) {
	if have.Type != want.Type {
		return false, fmt.Errorf("%w: stored %q vs candidate %q", ErrUnsupportedPropertyType, have.Type, want.Type)
	}

	switch want.Type {
	case notion.TypeTitle:
		return notion.PlainText(have.Title) == notion.PlainText(want.Title), nil
	case notion.TypeRichText:
		return notion.PlainText(have.RichText) == notion.PlainText(want.RichText), nil
	case notion.TypeNumber:
		return equalPtr(have.Number, want.Number), nil
	case notion.TypeDate:
		if have.Date == nil || want.Date == nil {
			return have.Date == nil && want.Date == nil, nil
		}
		return have.Date.Equal(*want.Date), nil
	case notion.TypeCheckbox:
		return equalPtr(have.Checkbox, want.Checkbox), nil
	case notion.TypeURL:
		return equalPtr(have.URL, want.URL), nil
	case notion.TypeEmail:
		return equalPtr(have.Email, want.Email), nil
	case notion.TypePhoneNumber:
		return equalPtr(have.PhoneNumber, want.PhoneNumber), nil
	case notion.TypeRelation:
		return equalFunc(have.Relation, want.Relation, func(a, b notion.Relation) bool {
			return a.ID == b.ID
		}), nil
	case notion.TypePeople:
		return equalFunc(have.People, want.People, func(a, b notion.User) bool {
			return a.ID == b.ID
		}), nil
	case notion.TypeFiles:
		return equalFunc(have.Files, want.Files, func(a, b notion.File) bool {
			return a.Name == b.Name
		}), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedPropertyType, want.Type)
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func equalFunc[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}
