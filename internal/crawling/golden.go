package crawling

import (
	"regexp"
	"strings"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/research"
)

// goldenPatterns find prose that points at an hours page, e.g. "for opening hours see here".
var goldenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:opening\s+)?(?:hours|times)[^.\n]{0,80}?\b(?:see|find|view|check|click)\b[^.\n]{0,60}?\bhere\b`),
	regexp.MustCompile(`(?i)\b(?:see|find|view|check|click)\b[^.\n]{0,60}?\b(?:opening\s+)?(?:hours|times)\b[^.\n]{0,40}?\bhere\b`),
	regexp.MustCompile(`(?i)(?:opening\s+)?(?:hours|times)[^.\n]{0,40}?\bhere\b`),
}

// GoldenLinks returns same-site anchors that the page's own prose points to as carrying
// opening hours. An anchor qualifies when its visible text appears in a matched snippet, or
// a word of its path does.
func GoldenLinks(text string, links []fetch.Link, pageURL string) []string {
	var snippets []string
	for _, re := range goldenPatterns {
		for _, m := range re.FindAllString(text, -1) {
			snippets = append(snippets, research.FoldName(m))
		}
	}
	if len(snippets) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		if !fetch.SameSite(l.URL, pageURL) || seen[l.URL] {
			continue
		}
		if overlaps(snippets, l) {
			seen[l.URL] = true
			out = append(out, l.URL)
		}
	}
	return out
}

func overlaps(snippets []string, l fetch.Link) bool {
	anchor := research.FoldName(l.Text)
	var words []string
	for _, seg := range fetch.PathSegments(l.URL) {
		for _, w := range strings.Fields(research.FoldName(seg)) {
			if len(w) >= 4 {
				words = append(words, w)
			}
		}
	}
	for _, s := range snippets {
		if anchor != "" && strings.Contains(" "+s+" ", " "+anchor+" ") {
			return true
		}
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
	}
	return false
}
