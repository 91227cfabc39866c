// Package nlparse wraps a natural-language date/time parser and filters its false positives.
package nlparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/jonathan/venue-scout/internal/timefmt"
)

// Span is one parsed date/time mention.
type Span struct {
	MatchedText      string
	StartCertainHour bool
	Start            time.Time
	End              *time.Time
	// Context is the full line the match came from, used by Filter.
	Context string
}

// Options tunes a Parse call.
type Options struct {
	// ForwardBias rolls year-less dates that fall before the reference date into the next year.
	ForwardBias bool
}

// Parser is the natural-language date/time capability.
type Parser interface {
	Parse(text string, ref time.Time, opts Options) ([]Span, error)
}

var (
	yearRe     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	trailingRe = regexp.MustCompile(`(?i)^` + timefmt.RangeSeparator + `(` + timefmt.TimePattern + `)`)
)

// WhenParser adapts github.com/olebedev/when to the Parser interface.
type WhenParser struct {
	w *when.Parser
}

// NewWhenParser creates a parser with the English and common rule sets.
func NewWhenParser() *WhenParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &WhenParser{w: w}
}

// Parse scans text line by line and returns every span the rule set recognizes.
// when.Parse only yields its best match, so each line is re-scanned after the previous match.
func (p *WhenParser) Parse(text string, ref time.Time, opts Options) ([]Span, error) {
	var spans []Span
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		rest := line
		for rest != "" {
			r, err := p.w.Parse(rest, ref)
			if err != nil {
				return spans, &ParseError{Message: "when parse failed", Cause: err}
			}
			if r == nil || r.Text == "" {
				break
			}
			span := Span{
				MatchedText:      r.Text,
				StartCertainHour: timefmt.IsTimeToken(r.Text),
				Start:            r.Time,
				Context:          line,
			}
			if opts.ForwardBias && !yearRe.MatchString(r.Text) && span.Start.Before(startOfDay(ref)) {
				span.Start = span.Start.AddDate(1, 0, 0)
			}

			next := r.Index + len(r.Text)
			if next > len(rest) {
				next = len(rest)
			}
			after := rest[next:]
			if m := trailingRe.FindStringSubmatchIndex(after); m != nil {
				if end, ok := timefmt.NormalizeTime(after[m[2]:m[3]]); ok {
					mins := timefmt.Minutes(end)
					e := time.Date(span.Start.Year(), span.Start.Month(), span.Start.Day(), mins/60, mins%60, 0, 0, span.Start.Location())
					span.End = &e
					span.MatchedText += after[:m[1]]
				}
				next += m[1]
			}
			spans = append(spans, span)
			rest = rest[next:]
		}
	}
	return spans, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
