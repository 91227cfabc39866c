package nlparse

import (
	"regexp"
	"strings"

	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/vocab"
)

// MinMatchLength is the shortest matched text kept by Filter.
const MinMatchLength = 6

var (
	exclusionRe = buildWordRe(vocab.MustGet("exclusions", "policy"))
	scheduleRe  = buildWordRe(vocab.MustGet("exclusions", "schedule"))
)

func buildWordRe(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`)
}

// Filter drops spans that are too short, lack a certain hour, or sit in policy language
// (refunds, expiry, delivery) that reads like a date but is not a schedule.
func Filter(spans []Span) []Span {
	out := spans[:0:0]
	for _, s := range spans {
		if len(strings.TrimSpace(s.MatchedText)) < MinMatchLength {
			continue
		}
		if !s.StartCertainHour {
			continue
		}
		if IsExcluded(s.MatchedText) || IsExcluded(s.Context) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// IsExcluded reports whether text contains exclusion vocabulary.
func IsExcluded(text string) bool {
	return exclusionRe.MatchString(text)
}

// RelevantLines keeps lines that mention schedule vocabulary and carry no exclusion vocabulary.
func RelevantLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || IsExcluded(line) {
			continue
		}
		if scheduleRe.MatchString(line) || timefmt.IsTimeToken(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
