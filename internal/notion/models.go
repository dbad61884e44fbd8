package notion

import (
	"fmt"
	"strings"
	"time"
)

// Property type discriminators as they appear on the wire.
const (
	TypeTitle       = "title"
	TypeRichText    = "rich_text"
	TypeNumber      = "number"
	TypeDate        = "date"
	TypeCheckbox    = "checkbox"
	TypeURL         = "url"
	TypeEmail       = "email"
	TypePhoneNumber = "phone_number"
	TypeRelation    = "relation"
	TypePeople      = "people"
	TypeFiles       = "files"
)

// PropertyValue is one property of a page: a closed tagged variant keyed
// by Type, with exactly one payload field populated. The same shape
// serves stored values (ID assigned by the API) and candidate writes
// (ID left empty).
type PropertyValue struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`

	Title       []RichText `json:"title,omitempty"`
	RichText    []RichText `json:"rich_text,omitempty"`
	Number      *float64   `json:"number,omitempty"`
	Date        *DateValue `json:"date,omitempty"`
	Checkbox    *bool      `json:"checkbox,omitempty"`
	URL         *string    `json:"url,omitempty"`
	Email       *string    `json:"email,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Relation    []Relation `json:"relation,omitempty"`
	People      []User     `json:"people,omitempty"`
	Files       []File     `json:"files,omitempty"`
}

// NewTitle builds a title write value from plain text.
func NewTitle(text string) PropertyValue {
	return PropertyValue{Type: TypeTitle, Title: richText(text)}
}

// NewText builds a rich_text write value from plain text.
func NewText(text string) PropertyValue {
	return PropertyValue{Type: TypeRichText, RichText: richText(text)}
}

// NewDate builds a date write value.
func NewDate(d DateValue) PropertyValue {
	return PropertyValue{Type: TypeDate, Date: &d}
}

func richText(text string) []RichText {
	return []RichText{{
		Type:      "text",
		Text:      &Text{Content: text},
		PlainText: text,
	}}
}

// RichText is one span of formatted text. Formatting is never written by
// the syncer, so only the text payload and plain_text matter here.
type RichText struct {
	Type      string `json:"type,omitempty"`
	Text      *Text  `json:"text,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
}

type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

// Plain returns the plain-text content of the span.
func (r RichText) Plain() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

// PlainText concatenates the plain-text content of all spans.
func PlainText(spans []RichText) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Plain())
	}
	return sb.String()
}

// DateOrDateTime is a single date bound: a calendar date ("2006-01-02")
// or an instant (RFC 3339) on the wire.
type DateOrDateTime struct {
	Time    time.Time
	HasTime bool
}

func (d DateOrDateTime) MarshalJSON() ([]byte, error) {
	if d.HasTime {
		return []byte(`"` + d.Time.UTC().Format(time.RFC3339) + `"`), nil
	}
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOrDateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		d.HasTime = false
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	d.HasTime = true
	return nil
}

// Equal compares two bounds after normalizing instants to UTC.
func (d DateOrDateTime) Equal(other DateOrDateTime) bool {
	if d.HasTime != other.HasTime {
		return false
	}
	if d.HasTime {
		return d.Time.UTC().Equal(other.Time.UTC())
	}
	return d.Time.Format("2006-01-02") == other.Time.Format("2006-01-02")
}

// DateValue is a date range property payload. End is omitted for
// single-day all-day events by destination convention.
type DateValue struct {
	Start    DateOrDateTime  `json:"start"`
	End      *DateOrDateTime `json:"end,omitempty"`
	TimeZone *string         `json:"time_zone,omitempty"`
}

// Equal compares two ranges structurally.
func (d DateValue) Equal(other DateValue) bool {
	if !d.Start.Equal(other.Start) {
		return false
	}
	if (d.End == nil) != (other.End == nil) {
		return false
	}
	if d.End != nil && !d.End.Equal(*other.End) {
		return false
	}
	return true
}

type Relation struct {
	ID string `json:"id"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type File struct {
	Name string `json:"name,omitempty"`
}

// Page is a destination record: its remote id plus the stored property
// values.
type Page struct {
	ID         string                   `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// Database is the destination container; Properties describes its
// schema.
type Database struct {
	ID         string                    `json:"id"`
	Properties map[string]PropertyConfig `json:"properties"`
}

type PropertyConfig struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// TitleProperty returns the name of the schema's title property. Every
// database has exactly one.
func (d *Database) TitleProperty() (string, bool) {
	for name, prop := range d.Properties {
		if prop.Type == TypeTitle {
			return name, true
		}
	}
	return "", false
}
