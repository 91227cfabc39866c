package extraction

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
)

// maxSeasonDays caps how many dates one validFrom/validThrough spec may expand to.
const maxSeasonDays = 400

var openingHoursRe = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z,\-–\s]*?)\s*(\d{1,2}:\d{2})(?::\d{2})?\s*[-–]\s*(\d{1,2}:\d{2})(?::\d{2})?\s*$`)

// JSONLDResult holds what was recovered from a page's JSON-LD blocks.
type JSONLDResult struct {
	Schedule *types.WeeklySchedule
	Events   []types.RawTimeInstance
	// Errors lists the blocks that could not be decoded
	Errors []error
}

// ParseJSONLD decodes ld+json script bodies and collects opening hours and events.
// Malformed blocks and entries are skipped.
func ParseJSONLD(scripts []string) JSONLDResult {
	res := JSONLDResult{}
	ws := types.NewWeeklySchedule()

	for _, script := range scripts {
		script = strings.TrimSpace(script)
		if script == "" {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(script), &doc); err != nil {
			res.Errors = append(res.Errors, &JSONLDError{Message: "failed to decode ld+json block", Cause: err})
			continue
		}
		walkJSON(doc, func(obj map[string]any) {
			if spec, ok := obj["openingHoursSpecification"]; ok {
				applyHoursSpecification(ws, spec)
			}
			if oh, ok := obj["openingHours"]; ok {
				applyOpeningHours(ws, oh)
			}
			if isEventType(obj["@type"]) {
				if inst, ok := eventInstance(obj); ok {
					res.Events = append(res.Events, inst)
				}
			}
		})
	}

	if len(ws.Days) > 0 || len(ws.Exceptions) > 0 {
		SanitizeExceptions(ws)
		res.Schedule = ws
	}
	res.Events = Dedupe(res.Events)
	return res
}

// walkJSON calls fn for every object in the document, depth first.
func walkJSON(node any, fn func(map[string]any)) {
	switch v := node.(type) {
	case map[string]any:
		fn(v)
		for _, child := range v {
			walkJSON(child, fn)
		}
	case []any:
		for _, child := range v {
			walkJSON(child, fn)
		}
	}
}

func applyHoursSpecification(ws *types.WeeklySchedule, spec any) {
	var specs []any
	switch v := spec.(type) {
	case []any:
		specs = v
	case map[string]any:
		specs = []any{v}
	default:
		return
	}

	for _, s := range specs {
		obj, ok := s.(map[string]any)
		if !ok {
			continue
		}
		days := specDays(obj["dayOfWeek"])
		opens, okOpen := normalizeLDTime(stringOf(obj["opens"]))
		closes, okClose := normalizeLDTime(stringOf(obj["closes"]))
		if !okOpen || !okClose {
			continue
		}
		closed := opens == "00:00" && closes == "00:00"

		from, hasFrom := parseLDDate(stringOf(obj["validFrom"]))
		through, hasThrough := parseLDDate(stringOf(obj["validThrough"]))
		if hasFrom || hasThrough {
			if !hasFrom {
				from = through
			}
			if !hasThrough {
				through = from
			}
			addSeason(ws, days, from, through, opens, closes, closed)
			continue
		}

		for _, d := range days {
			if closed {
				ws.Days[timefmt.WeekdayLabel(d)] = types.DayHours{Closed: true}
				continue
			}
			ws.Days[timefmt.WeekdayLabel(d)] = types.DayHours{Open: opens, Close: closes}
		}
	}
}

// addSeason expands a seasonal spec into one exception per matching date.
func addSeason(ws *types.WeeklySchedule, days []time.Weekday, from, through time.Time, opens, closes string, closed bool) {
	if through.Before(from) {
		return
	}
	want := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		want[d] = true
	}
	for d, n := from, 0; !d.After(through) && n < maxSeasonDays; d, n = d.AddDate(0, 0, 1), n+1 {
		if len(want) > 0 && !want[d.Weekday()] {
			continue
		}
		exc := types.Exception{Date: d.Format("2006-01-02"), Status: types.StatusOpen, Open: opens, Close: closes}
		if closed {
			exc = types.Exception{Date: exc.Date, Status: types.StatusClosed}
		}
		ws.Exceptions = append(ws.Exceptions, exc)
	}
}

func applyOpeningHours(ws *types.WeeklySchedule, oh any) {
	var entries []string
	switch v := oh.(type) {
	case string:
		entries = strings.Split(v, ";")
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				entries = append(entries, strings.Split(s, ";")...)
			}
		}
	}
	for _, entry := range entries {
		m := openingHoursRe.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		open, okOpen := normalizeLDTime(m[2])
		close, okClose := normalizeLDTime(m[3])
		if !okOpen || !okClose {
			continue
		}
		for _, d := range timefmt.ParseDaySpec(m[1]) {
			ws.Days[timefmt.WeekdayLabel(d)] = types.DayHours{Open: open, Close: close}
		}
	}
}

// specDays reads dayOfWeek as a string or list, accepting schema.org URLs.
func specDays(v any) []time.Weekday {
	var raw []string
	switch d := v.(type) {
	case string:
		raw = []string{d}
	case []any:
		for _, e := range d {
			raw = append(raw, stringOf(e))
		}
	}
	var out []time.Weekday
	for _, r := range raw {
		r = r[strings.LastIndex(r, "/")+1:]
		if strings.EqualFold(r, "PublicHolidays") {
			continue
		}
		out = append(out, timefmt.ParseDaySpec(r)...)
	}
	return out
}

func normalizeLDTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	// "10:00:00" and "10:00:00+01:00"
	if len(s) >= 5 && s[2] == ':' {
		s = s[:5]
	}
	return timefmt.NormalizeTime(s)
}

var ldDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseLDDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range ldDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func hasClock(s string) bool {
	return strings.Contains(s, "T")
}

func isEventType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.HasSuffix(v, "Event")
	case []any:
		for _, e := range v {
			if isEventType(e) {
				return true
			}
		}
	}
	return false
}

func eventInstance(obj map[string]any) (types.RawTimeInstance, bool) {
	startRaw := stringOf(obj["startDate"])
	start, ok := parseLDDate(startRaw)
	if !ok {
		return types.RawTimeInstance{}, false
	}
	inst := types.RawTimeInstance{
		Date:     start.Format("2006-01-02"),
		Note:     strings.TrimSpace(stringOf(obj["name"])),
		Location: locationName(obj["location"]),
	}
	if hasClock(startRaw) {
		inst.StartTime = start.Format("15:04")
	}
	endRaw := stringOf(obj["endDate"])
	if end, ok := parseLDDate(endRaw); ok && hasClock(endRaw) && end.Format("2006-01-02") == inst.Date {
		inst.EndTime = end.Format("15:04")
	}
	return inst, true
}

func locationName(v any) string {
	switch l := v.(type) {
	case string:
		return strings.TrimSpace(l)
	case map[string]any:
		return strings.TrimSpace(stringOf(l["name"]))
	case []any:
		if len(l) > 0 {
			return locationName(l[0])
		}
	}
	return ""
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
