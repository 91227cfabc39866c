package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintResolution(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	res := &research.Resolution{
		OfficialURL: "https://oldmill.org/",
		Candidates:  []types.ScoredCandidate{{URL: "https://oldmill.org/", Score: 400}, {URL: "https://b.org/", Score: 10}},
		Verified:    []string{"https://oldmill.org/"},
		Skipped:     []research.SkippedURL{{URL: "https://tripadvisor.com/x", Reason: "aggregator"}},
	}
	p.PrintResolution(&types.Entity{Name: "The Old Mill"}, res)
	output := buf.String()

	assert.Contains(t, output, "OFFICIAL URL RESOLUTION")
	assert.Contains(t, output, "The Old Mill")
	assert.Contains(t, output, "https://oldmill.org/")
	assert.Contains(t, output, "Verified: 1 of 2 candidates")
	assert.Contains(t, output, "aggregator")
}

func TestPrintResolution_Dispersed(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResolution(&types.Entity{Name: "Dune"}, &research.Resolution{Dispersed: true})

	assert.Contains(t, buf.String(), "dispersed")
}

func TestPrintResolution_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResolution(nil, nil)

	assert.Empty(t, buf.String())
}

func TestPrintScoredURLs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var urls []types.ScoredCandidate
	for i := range 7 {
		urls = append(urls, types.ScoredCandidate{URL: fmt.Sprintf("https://oldmill.org/p%d", i), Score: 100 - i})
	}
	p.PrintScoredURLs(urls)
	output := buf.String()

	assert.Contains(t, output, "SCORED URLS")
	assert.Contains(t, output, "https://oldmill.org/p0")
	assert.NotContains(t, output, "https://oldmill.org/p6")
	assert.Contains(t, output, "... and 2 more URLs")
}

func TestPrintDates_Schedule(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ws := types.NewWeeklySchedule()
	ws.Days["Monday"] = types.DayHours{Closed: true}
	ws.Days["Tuesday"] = types.DayHours{Open: "10:00", Close: "17:00"}
	ws.Exceptions = []types.Exception{{Date: "2025-12-25", Status: "closed"}}

	p.PrintDates(&types.Dates{Schedule: ws})
	output := buf.String()

	assert.Contains(t, output, "WEEKLY SCHEDULE")
	assert.Contains(t, output, "Monday     closed")
	assert.Contains(t, output, "Tuesday    10:00 – 17:00")
	assert.Contains(t, output, "2025-12-25  closed")
}

func TestPrintDates_Events(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDates(&types.Dates{Events: &types.EventInstanceSet{Instances: []types.EventInstance{
		{Date: "2025-05-03", StartTime: "19:30", EndTime: "21:00", Note: "Concert", Location: "Mill Yard"},
	}}})
	output := buf.String()

	assert.Contains(t, output, "EVENT INSTANCES")
	assert.Contains(t, output, "2025-05-03 19:30–21:00  Concert @ Mill Yard")
}

func TestPrintDates_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDates(nil)

	assert.Contains(t, buf.String(), "NO DATES FOUND")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResolution(&types.Entity{Name: strings.Repeat("Very Long Venue Name ", 5)}, &research.Resolution{})
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.Contains(t, output, "...")
}
