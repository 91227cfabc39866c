package extraction

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/nlparse"
	"github.com/jonathan/venue-scout/internal/types"
)

// MinNLInstances is the number of parsed instances below which the NL strategy
// retries over the page's full text.
const MinNLInstances = 3

// Outcome is what one strategy recovered from a page. A non-nil Schedule ends the chain.
type Outcome struct {
	Schedule  *types.WeeklySchedule
	Instances []types.RawTimeInstance
}

// Strategy is one extraction technique in the ordered chain.
type Strategy interface {
	Name() string
	Extract(page *types.ScrapedPage, ref time.Time) Outcome
}

// JSONLDStrategy reads schema.org opening hours and events.
type JSONLDStrategy struct {
	Logger *zap.Logger
}

func (JSONLDStrategy) Name() string { return "jsonld" }

func (s JSONLDStrategy) Extract(page *types.ScrapedPage, _ time.Time) Outcome {
	ws := page.StructuredFields.JSONLDSchedule
	events := page.StructuredFields.JSONLDEvents
	if ws == nil && len(events) == 0 && len(page.JSONLDScripts) > 0 {
		res := ParseJSONLD(page.JSONLDScripts)
		for _, err := range res.Errors {
			logger(s.Logger).Debug("skipping ld+json block", zap.String("url", page.URL), zap.Error(err))
		}
		ws, events = res.Schedule, res.Events
	}

	out := Outcome{Instances: events}
	if ws.PopulatedDays() >= MinScheduleWeekdays {
		out.Schedule = ws
	}
	return out
}

// NLStrategy runs the wrapped natural-language parser over schedule-ish lines, falling back
// to the full text when too little is found.
type NLStrategy struct {
	Parser nlparse.Parser
	Logger *zap.Logger
}

func (NLStrategy) Name() string { return "nl" }

func (s NLStrategy) Extract(page *types.ScrapedPage, ref time.Time) Outcome {
	if s.Parser == nil {
		return Outcome{}
	}
	instances := s.parse(nlparse.RelevantLines(page.RawText), ref, page.URL)
	if len(instances) < MinNLInstances {
		instances = Merge(instances, s.parse(page.RawText, ref, page.URL))
	}
	return Outcome{Schedule: modalSchedule(Dedupe(instances)), Instances: instances}
}

func (s NLStrategy) parse(text string, ref time.Time, url string) []types.RawTimeInstance {
	if text == "" {
		return nil
	}
	spans, err := s.Parser.Parse(text, ref, nlparse.Options{ForwardBias: true})
	if err != nil {
		logger(s.Logger).Debug("nl parse failed", zap.String("url", url), zap.Error(err))
	}
	return SpansToInstances(nlparse.Filter(spans))
}

// SpansToInstances converts filtered parser spans into raw instances.
func SpansToInstances(spans []nlparse.Span) []types.RawTimeInstance {
	out := make([]types.RawTimeInstance, 0, len(spans))
	for _, sp := range spans {
		inst := types.RawTimeInstance{
			Date:      sp.Start.Format("2006-01-02"),
			StartTime: sp.Start.Format("15:04"),
		}
		if sp.End != nil {
			inst.EndTime = sp.End.Format("15:04")
		}
		out = append(out, inst)
	}
	return out
}

// RegexStrategy matches day/time tables in the page text.
type RegexStrategy struct{}

func (RegexStrategy) Name() string { return "regex" }

// Tables covering fewer than MinScheduleWeekdays open days are not a weekly schedule, so
// the page's instances still reach Classify.
func (RegexStrategy) Extract(page *types.ScrapedPage, _ time.Time) Outcome {
	ws := ParseHoursText(page.RawText)
	if ws.PopulatedDays() < MinScheduleWeekdays && len(page.StructuredFields.HoursText) > 0 {
		if alt := ParseHoursText(strings.Join(page.StructuredFields.HoursText, "\n")); alt.PopulatedDays() > ws.PopulatedDays() {
			ws = alt
		}
	}
	if ws.PopulatedDays() < MinScheduleWeekdays {
		return Outcome{}
	}
	return Outcome{Schedule: ws}
}

// GridStrategy reads calendar-grid rows.
type GridStrategy struct{}

func (GridStrategy) Name() string { return "grid" }

func (GridStrategy) Extract(page *types.ScrapedPage, ref time.Time) Outcome {
	instances := ParseCalendarGrid(page.RawText, ref)
	return Outcome{Schedule: modalSchedule(Dedupe(instances)), Instances: instances}
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
