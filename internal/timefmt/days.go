package timefmt

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Week lists weekdays Monday first.
var Week = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// DayPattern matches a single day token in prose: full names, plurals and three-letter
// abbreviations. Two-letter forms ("Mo", "We") are left to ParseDay since they collide with words.
const DayPattern = `(?:mon(?:day)?s?|tue(?:s(?:day)?)?s?|wed(?:nesday)?s?|thu(?:r(?:s(?:day)?)?)?s?|fri(?:day)?s?|sat(?:urday)?s?|sun(?:day)?s?)\b\.?`

var (
	dayNames = map[time.Weekday]string{
		time.Monday:    "monday",
		time.Tuesday:   "tuesday",
		time.Wednesday: "wednesday",
		time.Thursday:  "thursday",
		time.Friday:    "friday",
		time.Saturday:  "saturday",
		time.Sunday:    "sunday",
	}

	allDaysRe  = regexp.MustCompile(`(?i)\b(?:daily|every\s*day|7\s*days(?:\s+a\s+week)?|seven\s+days|all\s+week)\b`)
	weekdaysRe = regexp.MustCompile(`(?i)^week\s*days?$`)
	weekendsRe = regexp.MustCompile(`(?i)^week\s*ends?$`)
	listSepRe  = regexp.MustCompile(`(?i)\s*(?:,|&|/|\band\b|\+)\s*`)
	rangeSepRe = regexp.MustCompile(`(?i)\s*(?:-|–|—|\bto\b|\bthrough\b|\bthru\b|\buntil\b)\s*`)
	ordinalRe  = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\b`)
)

// WeekdayLabel returns the canonical label ("Monday") for a weekday.
func WeekdayLabel(d time.Weekday) string {
	return d.String()
}

// MondayIndex returns 0 for Monday through 6 for Sunday.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ParseDay converts a single day token ("Mon", "tues", "Thursdays", "Sa") to a weekday.
func ParseDay(token string) (time.Weekday, bool) {
	t := strings.ToLower(strings.Trim(strings.TrimSpace(token), ".,:;"))
	if len(t) < 2 {
		return 0, false
	}
	if t == "weds" {
		return time.Wednesday, true
	}
	for _, d := range Week {
		full := dayNames[d]
		if t == full || t == full+"s" || strings.HasPrefix(full, t) {
			return d, true
		}
		// abbreviated plural, e.g. "mons", "suns"
		if strings.HasSuffix(t, "s") && len(t) >= 4 && strings.HasPrefix(full, t[:len(t)-1]) {
			return d, true
		}
	}
	return 0, false
}

// ExpandDayRange expands an inclusive day range, wrapping past Sunday ("Fri-Mon").
func ExpandDayRange(from, to time.Weekday) []time.Weekday {
	start, end := MondayIndex(from), MondayIndex(to)
	var out []time.Weekday
	for i := start; ; i = (i + 1) % 7 {
		out = append(out, Week[i])
		if i == end {
			break
		}
	}
	return out
}

// ParseDaySpec converts a day expression ("Mon-Fri", "Sat & Sun", "Mo,We,Fr", "daily",
// "Thu 11th - Sun 14th") into a set of weekdays ordered Monday first.
func ParseDaySpec(spec string) []time.Weekday {
	s := strings.TrimSpace(spec)
	if s == "" {
		return nil
	}
	if allDaysRe.MatchString(s) {
		return append([]time.Weekday(nil), Week...)
	}

	seen := make(map[time.Weekday]bool)
	for _, part := range listSepRe.Split(s, -1) {
		part = strings.TrimSpace(ordinalRe.ReplaceAllString(part, ""))
		if part == "" {
			continue
		}
		switch {
		case weekdaysRe.MatchString(part):
			for _, d := range Week[:5] {
				seen[d] = true
			}
			continue
		case weekendsRe.MatchString(part):
			seen[time.Saturday] = true
			seen[time.Sunday] = true
			continue
		}

		bounds := rangeSepRe.Split(part, 2)
		if len(bounds) == 2 {
			from, okFrom := ParseDay(firstWord(bounds[0]))
			to, okTo := ParseDay(firstWord(bounds[1]))
			if okFrom && okTo {
				for _, d := range ExpandDayRange(from, to) {
					seen[d] = true
				}
				continue
			}
		}
		if d, ok := ParseDay(firstWord(part)); ok {
			seen[d] = true
		}
	}
	return sortedDays(seen)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func sortedDays(set map[time.Weekday]bool) []time.Weekday {
	if len(set) == 0 {
		return nil
	}
	out := make([]time.Weekday, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return MondayIndex(out[i]) < MondayIndex(out[j]) })
	return out
}
