package notion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOrDateTimeWireFormat(t *testing.T) {
	day := DateOrDateTime{Time: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	out, err := json.Marshal(day)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15"`, string(out))

	instant := DateOrDateTime{
		Time:    time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		HasTime: true,
	}
	out, err = json.Marshal(instant)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15T09:30:00Z"`, string(out))

	var parsed DateOrDateTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-15"`), &parsed))
	assert.False(t, parsed.HasTime)

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-15T09:30:00+02:00"`), &parsed))
	assert.True(t, parsed.HasTime)
	assert.True(t, parsed.Time.Equal(instant.Time.Add(-2*time.Hour)))

	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &parsed))
}

func TestDateOrDateTimeEqualNormalizesZones(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	utc := DateOrDateTime{Time: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), HasTime: true}
	local := DateOrDateTime{Time: time.Date(2024, 3, 15, 9, 0, 0, 0, berlin), HasTime: true}
	assert.True(t, utc.Equal(local))

	// A date and an instant at the same moment stay distinct.
	day := DateOrDateTime{Time: utc.Time}
	assert.False(t, utc.Equal(day))
}

func TestDateValueEqual(t *testing.T) {
	start := DateOrDateTime{Time: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	end := DateOrDateTime{Time: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)}

	a := DateValue{Start: start, End: &end}
	b := DateValue{Start: start, End: &end}
	assert.True(t, a.Equal(b))

	b.End = nil
	assert.False(t, a.Equal(b))
}

func TestPlainText(t *testing.T) {
	spans := []RichText{
		{PlainText: "Team "},
		{Text: &Text{Content: "standup"}},
	}
	assert.Equal(t, "Team standup", PlainText(spans))
	assert.Equal(t, "", PlainText(nil))
}

func TestTitleProperty(t *testing.T) {
	db := Database{Properties: map[string]PropertyConfig{
		"UID":  {Type: TypeRichText},
		"Name": {Type: TypeTitle},
	}}

	name, ok := db.TitleProperty()
	assert.True(t, ok)
	assert.Equal(t, "Name", name)

	empty := Database{Properties: map[string]PropertyConfig{}}
	_, ok = empty.TitleProperty()
	assert.False(t, ok)
}
