package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10am", "10:00", true},
		{"10 am", "10:00", true},
		{"5.30 p.m.", "17:30", true},
		{"12pm", "12:00", true},
		{"12am", "00:00", true},
		{"14:30", "14:30", true},
		{"9h15", "09:15", true},
		{"noon", "12:00", true},
		{"Midnight", "00:00", true},
		{"24:00", "00:00", true},
		{"10", "", false},
		{"13pm", "", false},
		{"10:75", "", false},
		{"soon", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		from, to    string
		open, close string
	}{
		{"10am", "3pm", "10:00", "15:00"},
		{"10", "5pm", "10:00", "17:00"},
		{"1", "5pm", "13:00", "17:00"},
		{"9", "11am", "09:00", "11:00"},
		{"10am", "5", "10:00", "17:00"},
		{"10am", "midnight", "10:00", "00:00"},
		{"10:00", "24:00", "10:00", "00:00"},
		{"9.30", "5.30", "09:30", "17:30"},
		{"10:00", "17:00", "10:00", "17:00"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"-"+tt.to, func(t *testing.T) {
			open, close, ok := NormalizeRange(tt.from, tt.to)
			assert.True(t, ok)
			assert.Equal(t, tt.open, open)
			assert.Equal(t, tt.close, close)
		})
	}
}

func TestIsTimeToken(t *testing.T) {
	assert.True(t, IsTimeToken("opens at 10am sharp"))
	assert.True(t, IsTimeToken("from 14:30"))
	assert.False(t, IsTimeToken("on 14 March"))
}

func TestMinutes(t *testing.T) {
	assert.Equal(t, 630, Minutes("10:30"))
	assert.Equal(t, -1, Minutes("1030"))
	assert.Equal(t, -1, Minutes("ab:cd"))
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"Mon", time.Monday, true},
		{"tues", time.Tuesday, true},
		{"Weds", time.Wednesday, true},
		{"Thursdays", time.Thursday, true},
		{"Fri.", time.Friday, true},
		{"Sa", time.Saturday, true},
		{"sundays", time.Sunday, true},
		{"m", 0, false},
		{"sunny", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDay(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExpandDayRange_Wraps(t *testing.T) {
	got := ExpandDayRange(time.Friday, time.Monday)
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday, time.Sunday, time.Monday}, got)
}

func TestParseDaySpec(t *testing.T) {
	tests := []struct {
		in   string
		want []time.Weekday
	}{
		{"Mon-Fri", Week[:5]},
		{"Mon – Wed", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}},
		{"Sat & Sun", []time.Weekday{time.Saturday, time.Sunday}},
		{"Mo,We,Fr", []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"daily", Week},
		{"Every day", Week},
		{"weekends", []time.Weekday{time.Saturday, time.Sunday}},
		{"Thu 11th - Sun 14th", []time.Weekday{time.Thursday, time.Friday, time.Saturday, time.Sunday}},
		{"Fri to Mon", []time.Weekday{time.Monday, time.Friday, time.Saturday, time.Sunday}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDaySpec(tt.in))
		})
	}
}

func TestWeekdayHelpers(t *testing.T) {
	assert.Equal(t, "Monday", WeekdayLabel(time.Monday))
	assert.Equal(t, 0, MondayIndex(time.Monday))
	assert.Equal(t, 6, MondayIndex(time.Sunday))
}

func TestParseMonth(t *testing.T) {
	m, ok := ParseMonth("Sept.")
	assert.True(t, ok)
	assert.Equal(t, time.September, m)

	m, ok = ParseMonth("december")
	assert.True(t, ok)
	assert.Equal(t, time.December, m)

	_, ok = ParseMonth("ma")
	assert.False(t, ok)
}

func TestInferDate(t *testing.T) {
	ref := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		month time.Month
		day   int
		want  string
	}{
		{"same day", time.October, 14, "2026-10-14"},
		{"later this year", time.December, 25, "2026-12-25"},
		{"day before ref", time.October, 13, "2027-10-13"},
		{"month before ref", time.September, 14, "2027-09-14"},
		{"early next year", time.January, 5, "2027-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDate(tt.month, tt.day, ref).Format("2006-01-02"))
		})
	}
}
