// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxExceptionsToShow caps the dated exceptions listed under a schedule
	maxExceptionsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResolution outputs the official-URL decision and the candidates behind it.
func (p *Printer) PrintResolution(entity *types.Entity, res *research.Resolution) {
	if entity == nil || res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Entity:   %s\n", entity.Name))
	switch {
	case res.Resolved():
		sb.WriteString(fmt.Sprintf("Official: %s\n", res.OfficialURL))
	case res.Dispersed:
		sb.WriteString("Official: none (dispersed across cinema chains)\n")
	default:
		sb.WriteString("Official: none (no candidate verified)\n")
	}
	sb.WriteString(fmt.Sprintf("Verified: %d of %d candidates\n", len(res.Verified), len(res.Candidates)))

	if len(res.Skipped) > 0 {
		sb.WriteString("\nSkipped:\n")
		count := min(len(res.Skipped), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s (%s)\n", res.Skipped[i].URL, res.Skipped[i].Reason))
		}
		if len(res.Skipped) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(res.Skipped)-maxItemsToShow))
		}
	}

	p.printBox("OFFICIAL URL RESOLUTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScoredURLs outputs the top scored URLs.
func (p *Printer) PrintScoredURLs(urls []types.ScoredCandidate) {
	if len(urls) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scored %d URLs:\n\n", len(urls)))

	count := min(len(urls), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%5d  %s\n", urls[i].Score, urls[i].URL))
	}
	if len(urls) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more URLs", len(urls)-maxItemsToShow))
	}

	p.printBox("SCORED URLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDates outputs a weekly schedule table or an event list.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDates(dates *types.Dates) {
	if dates.IsEmpty() {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO DATES FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}
	if dates.Schedule != nil {
		p.printSchedule(dates.Schedule)
		return
	}
	p.printEvents(dates.Events)
}

func (p *Printer) printSchedule(ws *types.WeeklySchedule) {
	var sb strings.Builder
	for _, d := range timefmt.Week {
		label := timefmt.WeekdayLabel(d)
		hours, ok := ws.Days[label]
		switch {
		case !ok:
			sb.WriteString(fmt.Sprintf("%-10s -\n", label))
		case hours.Closed:
			sb.WriteString(fmt.Sprintf("%-10s closed\n", label))
		default:
			sb.WriteString(fmt.Sprintf("%-10s %s – %s\n", label, hours.Open, hours.Close))
		}
	}

	if len(ws.Exceptions) > 0 {
		sb.WriteString("\nExceptions:\n")
		count := min(len(ws.Exceptions), maxExceptionsToShow)
		for i := 0; i < count; i++ {
			exc := ws.Exceptions[i]
			if exc.Open != "" {
				sb.WriteString(fmt.Sprintf("  %s  %s %s – %s\n", exc.Date, exc.Status, exc.Open, exc.Close))
			} else {
				sb.WriteString(fmt.Sprintf("  %s  %s\n", exc.Date, exc.Status))
			}
		}
		if len(ws.Exceptions) > maxExceptionsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(ws.Exceptions)-maxExceptionsToShow))
		}
	}

	p.printBox("WEEKLY SCHEDULE", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) printEvents(set *types.EventInstanceSet) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d occurrences:\n\n", len(set.Instances)))

	count := min(len(set.Instances), maxItemsToShow)
	for i := 0; i < count; i++ {
		ev := set.Instances[i]
		line := ev.Date
		if ev.StartTime != "" {
			line += " " + ev.StartTime
			if ev.EndTime != "" && ev.EndTime != ev.StartTime {
				line += "–" + ev.EndTime
			}
		}
		if ev.Note != "" {
			line += "  " + ev.Note
		}
		if ev.Location != "" {
			line += " @ " + ev.Location
		}
		sb.WriteString(fmt.Sprintf("• %s\n", line))
	}
	if len(set.Instances) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more occurrences", len(set.Instances)-maxItemsToShow))
	}

	p.printBox("EVENT INSTANCES", strings.TrimSuffix(sb.String(), "\n"))
}
