package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an outbound anchor with its visible text.
type Link struct {
	URL  string
	Text string
}

// ParseError represents an HTML parsing failure.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}
	return doc, nil
}

// ExtractAnchors returns every http(s) anchor in the page resolved against baseURL, with
// fragments removed. Duplicate URLs keep the first non-empty text.
func ExtractAnchors(html string, baseURL string) ([]Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ParseError{Message: "invalid base URL", Cause: err}
	}
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var links []Link
	index := make(map[string]int)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		u := abs.String()

		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			text, _ = s.Attr("aria-label")
		}
		if i, ok := index[u]; ok {
			if links[i].Text == "" {
				links[i].Text = text
			}
			return
		}
		index[u] = len(links)
		links = append(links, Link{URL: u, Text: text})
	})
	return links, nil
}

// ExtractJSONLD returns the bodies of every ld+json script tag.
func ExtractJSONLD(html string) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	var scripts []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if body := strings.TrimSpace(s.Text()); body != "" {
			scripts = append(scripts, body)
		}
	})
	return scripts, nil
}

// Title returns the page title, preferring og:title when the title tag is empty.
func Title(html string) string {
	doc, err := parseDocument(html)
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return strings.Join(strings.Fields(t), " ")
	}
	og, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	return strings.TrimSpace(og)
}

// MetaDescription returns the meta or og description.
func MetaDescription(html string) string {
	doc, err := parseDocument(html)
	if err != nil {
		return ""
	}
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if v, ok := doc.Find(sel).Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// VisibleText extracts readable text from the whole page, one block per line, stripping
// platform chrome when the site builder is recognised.
func VisibleText(html string) string {
	noise := append(VenueNoiseSelectors(), PlatformNoiseSelectors(DetectPlatform(html))...)
	text, err := ExtractMainText(html, nil, noise...)
	if err != nil {
		return ""
	}
	return text
}
