package crawling

import (
	"regexp"
	"strings"

	"github.com/jonathan/venue-scout/internal/extraction"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/nlparse"
	"github.com/jonathan/venue-scout/internal/types"
	"github.com/jonathan/venue-scout/internal/vocab"
)

const (
	maxFieldLines   = 10
	maxHoursLines   = 40
	maxFieldLineLen = 240
)

var digitRe = regexp.MustCompile(`\d`)

// JSONLDParser parses ld+json script bodies. *extraction.Engine satisfies it.
type JSONLDParser interface {
	ParseJSONLDScripts(url string, scripts []string) extraction.JSONLDResult
}

// BuildScrapedPage turns a rendered browser page into the immutable page record, with
// best-effort structured fields.
func BuildScrapedPage(requested string, p *fetch.Page, ld JSONLDParser) *types.ScrapedPage {
	pageURL := p.FinalURL
	if pageURL == "" {
		pageURL = requested
	}
	pageURL = fetch.MustNormalize(pageURL)

	page := &types.ScrapedPage{
		URL:           pageURL,
		Title:         fetch.Title(p.RenderedHTML),
		RawText:       p.VisibleText,
		HTML:          p.RenderedHTML,
		JSONLDScripts: p.JSONLDScripts,
	}

	fields := types.StructuredFields{
		Description: fetch.MetaDescription(p.RenderedHTML),
		Price:       keywordLines(p.VisibleText, vocab.MustGet("tasks", "price_text"), true),
		Age:         keywordLines(p.VisibleText, vocab.MustGet("tasks", "age_text"), true),
	}
	if hours := nlparse.RelevantLines(p.VisibleText); hours != "" {
		fields.HoursText = capLines(strings.Split(hours, "\n"), maxHoursLines)
	}
	if ld != nil && len(p.JSONLDScripts) > 0 {
		res := ld.ParseJSONLDScripts(pageURL, p.JSONLDScripts)
		fields.JSONLDSchedule = res.Schedule
		fields.JSONLDEvents = res.Events
	}
	page.StructuredFields = fields
	return page
}

// keywordLines returns short lines containing any keyword, optionally requiring a digit.
func keywordLines(text string, keywords []string, needDigit bool) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxFieldLineLen {
			continue
		}
		if needDigit && !digitRe.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, line)
				break
			}
		}
		if len(out) == maxFieldLines {
			break
		}
	}
	return out
}

func capLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
