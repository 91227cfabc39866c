// Package calendar detects JavaScript-rendered calendar widgets and drives them month by
// month, collecting raw time instances from each snapshot and from intercepted API calls.
package calendar

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/venue-scout/internal/vocab"
)

// Format is how a page exposes its dates.
type Format string

// Page formats.
const (
	FormatStatic  Format = "static"
	FormatJSONLD  Format = "jsonld"
	FormatDynamic Format = "dynamic"
)

// DetectFormat classifies a rendered page. JSON-LD carrying hours or events wins over widget
// markers, since the structured block is parsed without any interaction.
func DetectFormat(html string) Format {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return FormatStatic
	}
	if hasScheduleLD(doc) {
		return FormatJSONLD
	}
	if hasWidgetMarkers(doc) {
		return FormatDynamic
	}
	return FormatStatic
}

func hasScheduleLD(doc *goquery.Document) bool {
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()
		if strings.Contains(body, "openingHours") || strings.Contains(body, `"Event"`) ||
			strings.Contains(body, "startDate") {
			found = true
		}
		return !found
	})
	return found
}

func hasWidgetMarkers(doc *goquery.Document) bool {
	markers := vocab.MustGet("calendar", "dynamic_markers")
	matches := func(s string) bool {
		s = strings.ToLower(s)
		for _, m := range markers {
			if strings.Contains(s, m) {
				return true
			}
		}
		return false
	}

	found := false
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range s.Nodes[0].Attr {
			if matches(attr.Key + `="` + attr.Val + `"`) {
				found = true
				return false
			}
		}
		return true
	})
	if found {
		return true
	}
	return matches(doc.Find("button, a, [role='button']").Text())
}
