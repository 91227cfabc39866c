package timefmt

import (
	"strings"
	"time"
)

// MonthPattern matches a month name or its three-letter abbreviation.
const MonthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b\.?`

// ParseMonth converts a month token ("Dec", "september", "Sept.") to a time.Month.
func ParseMonth(token string) (time.Month, bool) {
	t := strings.ToLower(strings.Trim(strings.TrimSpace(token), ".,"))
	if len(t) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if t == full || strings.HasPrefix(full, t) {
			return m, true
		}
	}
	return 0, false
}

// InferDate places a year-less month/day on its next occurrence on or after ref's date.
func InferDate(month time.Month, day int, ref time.Time) time.Time {
	d := time.Date(ref.Year(), month, day, 0, 0, 0, 0, time.UTC)
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d
}
