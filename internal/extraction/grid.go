package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
)

var (
	monthHeaderRe = regexp.MustCompile(`(?i)^\s*(` + timefmt.MonthPattern + `)\s+(\d{4})\s*$`)
	dayMonthRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + timefmt.MonthPattern + `)(?:\s+(\d{4}))?`)
	monthDayRe    = regexp.MustCompile(`(?i)\b(` + timefmt.MonthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4}))?`)
	cellDayRe     = regexp.MustCompile(`^\s*(?:` + `(?i:` + timefmt.DayPattern + `)\s*)?(\d{1,2})\s*$`)
	rowDayRe      = regexp.MustCompile(`^\s*(?:(?i:` + timefmt.DayPattern + `)\s*)?(\d{1,2})\b[\s:|\-–]+`)
	rangeRe       = regexp.MustCompile(`(?i)` + timeRange)
	closedCellRe  = regexp.MustCompile(`(?i)^\s*(?:closed|sold\s*out|no\s+sessions)\s*$`)
)

// ParseCalendarGrid reads month-name/day-number/time rows from calendar text. A "Month YYYY"
// header sets the month for following day-number rows and cells.
func ParseCalendarGrid(text string, ref time.Time) []types.RawTimeInstance {
	var out []types.RawTimeInstance
	var month time.Month
	var year int
	pendingDay := 0

	emit := func(date time.Time, line string) {
		for _, m := range rangeRe.FindAllStringSubmatch(line, -1) {
			open, close, ok := timefmt.NormalizeRange(m[1], m[2])
			if !ok {
				continue
			}
			out = append(out, types.RawTimeInstance{Date: date.Format("2006-01-02"), StartTime: open, EndTime: close})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := monthHeaderRe.FindStringSubmatch(line); m != nil {
			if mo, ok := timefmt.ParseMonth(m[1]); ok {
				month = mo
				year, _ = strconv.Atoi(m[2])
				pendingDay = 0
			}
			continue
		}

		if date, ok := inlineDate(line, ref); ok {
			if rangeRe.MatchString(line) {
				emit(date, line)
			} else {
				out = append(out, types.RawTimeInstance{Date: date.Format("2006-01-02"), Note: NoteClosed})
			}
			pendingDay = 0
			continue
		}

		if month == 0 {
			continue
		}

		if m := cellDayRe.FindStringSubmatch(line); m != nil {
			pendingDay, _ = strconv.Atoi(m[1])
			continue
		}

		// session line under a day cell; a cell may list several on consecutive lines
		if loc := rangeRe.FindStringIndex(line); loc != nil && loc[0] == 0 {
			if date, ok := validDate(year, month, pendingDay); ok {
				emit(date, line)
			}
			continue
		}
		if closedCellRe.MatchString(line) {
			if date, ok := validDate(year, month, pendingDay); ok {
				out = append(out, types.RawTimeInstance{Date: date.Format("2006-01-02"), Note: NoteClosed})
			}
			pendingDay = 0
			continue
		}

		if m := rowDayRe.FindStringSubmatch(line); m != nil {
			day, _ := strconv.Atoi(m[1])
			if date, ok := validDate(year, month, day); ok {
				emit(date, line)
			}
			pendingDay = 0
		}
	}
	return out
}

// inlineDate finds "14 March [2025]" or "March 14[, 2025]" in a line that also carries a time range
// or a closure marker.
func inlineDate(line string, ref time.Time) (time.Time, bool) {
	if !rangeRe.MatchString(line) && !strings.Contains(strings.ToLower(line), "closed") {
		return time.Time{}, false
	}
	var dayStr, monthStr, yearStr string
	if m := dayMonthRe.FindStringSubmatch(line); m != nil {
		dayStr, monthStr, yearStr = m[1], m[2], m[3]
	} else if m := monthDayRe.FindStringSubmatch(line); m != nil {
		monthStr, dayStr, yearStr = m[1], m[2], m[3]
	} else {
		return time.Time{}, false
	}
	mo, ok := timefmt.ParseMonth(monthStr)
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	if yearStr != "" {
		y, _ := strconv.Atoi(yearStr)
		return validDate(y, mo, day)
	}
	if _, ok := validDate(ref.Year(), mo, day); !ok {
		return time.Time{}, false
	}
	return timefmt.InferDate(mo, day, ref), true
}

func validDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 || year < 1900 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
