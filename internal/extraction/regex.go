package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
)

const (
	ordinalSuffix = `(?:\s*\d{1,2}(?:st|nd|rd|th)?\b)?`
	daySep        = `\s*(?:-|–|—|\bto\b|\bthrough\b|\bthru\b|&|\band\b|,|/)\s*`
	dayExpr       = `\b(` + timefmt.DayPattern + ordinalSuffix + `(?:` + daySep + timefmt.DayPattern + ordinalSuffix + `)*)`
	timeRange     = `(` + timefmt.LooseTimePattern + `)` + timefmt.RangeSeparator + `(` + timefmt.TimePattern + `)`
)

var (
	// "Mon-Fri: 10am - 5pm", "Thu 11th - Sun 14th 10:00-17:00"
	dayFirstRe = regexp.MustCompile(`(?i)` + dayExpr + `[\s:,\-–—]*(?:\([^)]*\)\s*)?(?:(?:open|opens|from|hours)\b[\s:]*)?` + timeRange)
	// "10am - 5pm Mon-Fri", "10:00-16:00 on Saturdays"
	timeFirstRe = regexp.MustCompile(`(?i)` + timeRange + `\s*(?:,|:|\(|\bon\b|\bevery\b)?\s*` + dayExpr)
	// "Open daily 10am - 5pm", "10am-5pm every day"
	dailyFirstRe = regexp.MustCompile(`(?i)\b(?:daily|every\s*day|7\s*days\s+a\s+week|seven\s+days\s+a\s+week)\b[\s:,\-–—]*(?:from\s+)?` + timeRange)
	dailyLastRe  = regexp.MustCompile(`(?i)` + timeRange + `\s*,?\s*(?:daily|every\s*day|7\s*days\s+a\s+week|seven\s+days\s+a\s+week)\b`)
	// "Closed Mondays", "closed on Mon & Tue", "Monday: closed"
	closedFirstRe = regexp.MustCompile(`(?i)\bclosed\s*(?:on\s+|every\s+)?(?:all\s+)?` + dayExpr)
	closedLastRe  = regexp.MustCompile(`(?i)` + dayExpr + `\s*[:\-–—]?\s*closed\b`)
)

// ParseHoursText matches day/time-range tables in prose. Daily catch-alls apply first, explicit
// day ranges override them, and explicit closures override both.
func ParseHoursText(text string) *types.WeeklySchedule {
	ws := types.NewWeeklySchedule()

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		masked := line

		var specific []dayRange
		masked, specific = collectDayRanges(masked, dayFirstRe, 1, 2, 3, specific)
		masked, specific = collectDayRanges(masked, timeFirstRe, 3, 1, 2, specific)

		for _, re := range []*regexp.Regexp{dailyFirstRe, dailyLastRe} {
			for _, m := range re.FindAllStringSubmatchIndex(masked, -1) {
				if precededByCurrency(masked, m[2]) {
					continue
				}
				open, close, ok := timefmt.NormalizeRange(masked[m[2]:m[3]], masked[m[4]:m[5]])
				if !ok {
					continue
				}
				for _, d := range timefmt.Week {
					label := timefmt.WeekdayLabel(d)
					if _, set := ws.Days[label]; !set {
						ws.Days[label] = types.DayHours{Open: open, Close: close}
					}
				}
			}
		}

		for _, r := range specific {
			for _, d := range r.days {
				ws.Days[timefmt.WeekdayLabel(d)] = r.hours
			}
		}
	}

	// closures are applied last so they win regardless of line order
	for _, line := range strings.Split(text, "\n") {
		for _, re := range []*regexp.Regexp{closedFirstRe, closedLastRe} {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				// "Tuesday to Sunday. Closed Mondays" must not close Sunday
				if re == closedLastRe && strings.HasSuffix(strings.TrimSpace(m[1]), ".") {
					continue
				}
				for _, d := range timefmt.ParseDaySpec(m[1]) {
					ws.Days[timefmt.WeekdayLabel(d)] = types.DayHours{Closed: true}
				}
			}
		}
	}

	if ws.PopulatedDays() == 0 {
		return nil
	}
	return ws
}

type dayRange struct {
	days  []time.Weekday
	hours types.DayHours
}

// collectDayRanges applies re to line, records each match, and blanks matched spans so a
// later pattern cannot reuse the same tokens in the opposite order.
func collectDayRanges(line string, re *regexp.Regexp, dayGroup, fromGroup, toGroup int, acc []dayRange) (string, []dayRange) {
	matches := re.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line, acc
	}
	buf := []byte(line)
	for _, m := range matches {
		fs, fe := m[2*fromGroup], m[2*fromGroup+1]
		ts, te := m[2*toGroup], m[2*toGroup+1]
		ds, de := m[2*dayGroup], m[2*dayGroup+1]
		if precededByCurrency(line, fs) {
			continue
		}
		open, close, ok := timefmt.NormalizeRange(line[fs:fe], line[ts:te])
		if !ok {
			continue
		}
		days := timefmt.ParseDaySpec(line[ds:de])
		if len(days) == 0 {
			continue
		}
		acc = append(acc, dayRange{days: days, hours: types.DayHours{Open: open, Close: close}})
		for i := m[0]; i < m[1]; i++ {
			buf[i] = ' '
		}
	}
	return string(buf), acc
}

func precededByCurrency(s string, idx int) bool {
	prefix := strings.TrimRight(s[:idx], " ")
	return strings.HasSuffix(prefix, "£") || strings.HasSuffix(prefix, "$") || strings.HasSuffix(prefix, "€")
}
