package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/venue-scout/internal/types"
)

func TestParseAPIPayload(t *testing.T) {
	body := []byte(`{
		"data": {
			"slots": [
				{"startTime": "2025-05-03T10:00:00+01:00", "endTime": "2025-05-03T11:00:00+01:00", "name": "Guided walk", "venue": {"name": "Mill Yard"}},
				{"start_date": "2025-05-04", "title": "Open day", "location": "The Old Mill"},
				{"start": "2025-05-05 18:30", "end": "2025-05-06 01:00"},
				{"start": "next tuesday"},
				{"date": 20250507},
				"garbage"
			]
		}
	}`)

	got := ParseAPIPayload(body)
	want := []types.RawTimeInstance{
		{Date: "2025-05-03", StartTime: "10:00", EndTime: "11:00", Note: "Guided walk", Location: "Mill Yard"},
		{Date: "2025-05-04", Note: "Open day", Location: "The Old Mill"},
		{Date: "2025-05-05", StartTime: "18:30"},
	}
	assert.ElementsMatch(t, want, got)
}

func TestParseAPIPayload_Malformed(t *testing.T) {
	assert.Nil(t, ParseAPIPayload([]byte(`{"start": "2025-05-03"`)))
	assert.Nil(t, ParseAPIPayload(nil))
	assert.Empty(t, ParseAPIPayload([]byte(`{"items": []}`)))
}

func TestAPIPattern(t *testing.T) {
	re := APIPattern()
	assert.True(t, re.MatchString("https://mill.org/wp-json/tribe/events/v1/events"))
	assert.True(t, re.MatchString("https://widget.example.com/API/availability?month=5"))
	assert.False(t, re.MatchString("https://mill.org/assets/app.js"))
}
