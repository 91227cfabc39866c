package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayHours_MarshalClosed(t *testing.T) {
	data, err := json.Marshal(DayHours{Closed: true})
	require.NoError(t, err)
	assert.Equal(t, `"closed"`, string(data))

	data, err = json.Marshal(DayHours{Open: "10:00", Close: "17:00"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"open":"10:00","close":"17:00"}`, string(data))
}

func TestDayHours_UnmarshalRejectsUnknownString(t *testing.T) {
	var d DayHours
	err := json.Unmarshal([]byte(`"sometimes"`), &d)
	assert.Error(t, err)
}

func TestDates_Classification(t *testing.T) {
	tests := []struct {
		name  string
		dates *Dates
		want  Classification
	}{
		{"nil", nil, ""},
		{"schedule", &Dates{Schedule: NewWeeklySchedule()}, ClassificationPlace},
		{"events", &Dates{Events: &EventInstanceSet{}}, ClassificationEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dates.Classification())
		})
	}
}

func TestDates_MarshalDiscriminator(t *testing.T) {
	ws := NewWeeklySchedule()
	ws.Days["Monday"] = DayHours{Closed: true}
	ws.Days["Tuesday"] = DayHours{Open: "09:00", Close: "17:00"}

	data, err := json.Marshal(&Dates{Schedule: ws})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"weekly_schedule","days":{"Monday":"closed","Tuesday":{"open":"09:00","close":"17:00"}}}`, string(data))

	var back Dates
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Schedule)
	assert.True(t, back.Schedule.Days["Monday"].Closed)
	assert.Equal(t, 1, back.Schedule.PopulatedDays())
}

func TestRawTimeInstance_KeyIgnoresLocation(t *testing.T) {
	a := RawTimeInstance{Date: "2025-03-01", StartTime: "10:00", EndTime: "12:00", Location: "Hall A"}
	b := a
	b.Location = "Hall B"
	assert.Equal(t, a.Key(), b.Key())

	b.Note = "matinee"
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestResult_SetDates(t *testing.T) {
	var r Result
	r.SetDates(&Dates{Events: &EventInstanceSet{Instances: []EventInstance{{Date: "2025-01-01"}}}})
	require.NotNil(t, r.Classification)
	assert.Equal(t, ClassificationEvent, *r.Classification)

	r.SetDates(&Dates{Events: &EventInstanceSet{}})
	assert.Nil(t, r.Dates)
	assert.Nil(t, r.Classification)
}

func TestEntity_Validate(t *testing.T) {
	e := &Entity{Name: "Kew Gardens", KnownLinks: []string{"https://www.kew.org"}}
	assert.NoError(t, e.Validate())
	assert.True(t, (&Entity{Tags: []string{"Film"}}).HasTag("film"))

	bad := &Entity{KnownLinks: []string{"not a url"}}
	assert.Error(t, bad.Validate())
}
