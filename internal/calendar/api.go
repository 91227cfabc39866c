package calendar

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/venue-scout/internal/types"
	"github.com/jonathan/venue-scout/internal/vocab"
)

var (
	startKeys = []string{"start", "startDate", "start_date", "start_time", "startTime", "date", "datetime"}
	endKeys   = []string{"end", "endDate", "end_date", "end_time", "endTime"}
	noteKeys  = []string{"title", "name"}
)

var apiLayouts = []struct {
	layout   string
	hasClock bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
}

// APIPattern matches request URLs that look like calendar data endpoints.
func APIPattern() *regexp.Regexp {
	paths := vocab.MustGet("calendar", "api_paths")
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}

// ParseAPIPayload walks an intercepted JSON body and returns one instance per object that
// carries a parseable start. Malformed bodies and entries yield nothing.
func ParseAPIPayload(body []byte) []types.RawTimeInstance {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	var out []types.RawTimeInstance
	walkJSON(doc, func(obj map[string]any) {
		if inst, ok := apiInstance(obj); ok {
			out = append(out, inst)
		}
	})
	return out
}

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

func apiInstance(obj map[string]any) (types.RawTimeInstance, bool) {
	start, startClock, ok := firstTime(obj, startKeys)
	if !ok {
		return types.RawTimeInstance{}, false
	}
	inst := types.RawTimeInstance{Date: start.Format(time.DateOnly)}
	if startClock {
		inst.StartTime = start.Format("15:04")
	}
	if end, endClock, ok := firstTime(obj, endKeys); ok && endClock && startClock &&
		end.Format(time.DateOnly) == inst.Date {
		inst.EndTime = end.Format("15:04")
	}
	for _, k := range noteKeys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			inst.Note = strings.TrimSpace(s)
			break
		}
	}
	inst.Location = placeName(obj["location"])
	if inst.Location == "" {
		inst.Location = placeName(obj["venue"])
	}
	return inst, true
}

func firstTime(obj map[string]any, keys []string) (time.Time, bool, bool) {
	for _, k := range keys {
		s, ok := obj[k].(string)
		if !ok {
			continue
		}
		if t, clock, ok := parseAPITime(s); ok {
			return t, clock, true
		}
	}
	return time.Time{}, false, false
}

func parseAPITime(s string) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	for _, l := range apiLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.hasClock, true
		}
	}
	return time.Time{}, false, false
}

func placeName(v any) string {
	switch p := v.(type) {
	case string:
		return strings.TrimSpace(p)
	case map[string]any:
		if name, ok := p["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}
