// Package timefmt converts free-form time and day tokens into canonical forms.
//
// Times are rendered as 24-hour "HH:MM"; days are time.Weekday values ordered Monday first.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimePattern matches a single time token. Callers compile it with (?i).
const TimePattern = `(?:\d{1,2}(?:[:.]\d{2})?\s*(?:am\b|pm\b|a\.m\.?|p\.m\.?)|\d{1,2}[:.]\d{2}|noon|midday|midnight)`

// LooseTimePattern also admits a bare hour, used for the first half of a range ("10-5pm").
const LooseTimePattern = `(?:` + TimePattern + `|\d{1,2})`

// RangeSeparator matches the glue between two times in a range.
const RangeSeparator = `\s*(?:-|–|—|to|until|till)\s*`

var (
	clockRe     = regexp.MustCompile(`(?i)^(\d{1,2})(?:[:.h](\d{2}))?\s*(a\.?m\.?|p\.?m\.?)?$`)
	timeTokenRe = regexp.MustCompile(`(?i)` + TimePattern)
)

type clock struct {
	hour, minute int
	meridiem     string // "am", "pm" or ""
	hasMinutes   bool
}

func parseClock(token string) (clock, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "noon", "midday":
		return clock{hour: 12, meridiem: "pm", hasMinutes: true}, true
	case "midnight":
		return clock{hour: 12, meridiem: "am", hasMinutes: true}, true
	}
	m := clockRe.FindStringSubmatch(t)
	if m == nil {
		return clock{}, false
	}
	c := clock{}
	c.hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		c.minute, _ = strconv.Atoi(m[2])
		c.hasMinutes = true
	}
	if m[3] != "" {
		c.meridiem = strings.ReplaceAll(m[3], ".", "")
	}
	if c.minute > 59 {
		return clock{}, false
	}
	if c.meridiem != "" && (c.hour < 1 || c.hour > 12) {
		return clock{}, false
	}
	if c.hour > 24 || (c.hour == 24 && c.minute != 0) {
		return clock{}, false
	}
	return c, true
}

// minutes converts to minutes past midnight, applying the meridiem.
func (c clock) minutes() int {
	h := c.hour
	switch c.meridiem {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	if h == 24 {
		h = 0
	}
	return h*60 + c.minute
}

func (c clock) withMeridiem(m string) clock {
	c.meridiem = m
	return c
}

func format(mins int) string {
	mins = ((mins % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// NormalizeTime converts a time token ("10am", "14:30", "noon", "5.30 p.m.") to "HH:MM".
// A bare hour without minutes or meridiem is rejected as ambiguous.
func NormalizeTime(token string) (string, bool) {
	c, ok := parseClock(token)
	if !ok {
		return "", false
	}
	if c.meridiem == "" && !c.hasMinutes {
		return "", false
	}
	return format(c.minutes()), true
}

// NormalizeRange converts the two halves of a time range, inferring a missing meridiem
// from the other half ("10-5pm" is 10:00-17:00, "9-11am" is 09:00-11:00).
func NormalizeRange(from, to string) (open, close string, ok bool) {
	a, okA := parseClock(from)
	b, okB := parseClock(to)
	if !okA || !okB {
		return "", "", false
	}

	switch {
	case a.meridiem == "" && b.meridiem != "" && a.hour <= 12:
		a = a.withMeridiem(b.meridiem)
		if a.minutes() > b.minutes() && b.meridiem == "pm" {
			a = a.withMeridiem("am")
		}
	case b.meridiem == "" && a.meridiem != "" && b.hour <= 12:
		b = b.withMeridiem(a.meridiem)
		if b.minutes() <= a.minutes() && a.meridiem == "am" {
			b = b.withMeridiem("pm")
		}
	case a.meridiem == "" && b.meridiem == "" && b.hour < a.hour && b.hour <= 12:
		// "10-5" and "9.30-5.30" read as daytime ranges
		b = b.withMeridiem("pm")
	}

	open, close = format(a.minutes()), format(b.minutes())
	return open, close, true
}

// IsTimeToken reports whether s contains an unambiguous clock time.
func IsTimeToken(s string) bool {
	return timeTokenRe.MatchString(s)
}

// Minutes converts "HH:MM" to minutes past midnight; it returns -1 for malformed input.
func Minutes(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 24 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}
