package research

import (
	"net/url"
	"strings"

	"github.com/jonathan/venue-scout/internal/fetch"
)

// MaxPathDepth is the deepest path scored without penalty.
const MaxPathDepth = 3

// DepthPenalty is subtracted per path segment beyond MaxPathDepth.
const DepthPenalty = 40

type keywordWeight struct {
	keyword string
	weight  int
}

// pathWeights are applied once each when the lower-cased path contains the keyword.
var pathWeights = []keywordWeight{
	{"opening-hours", 250},
	{"opening-times", 250},
	{"openinghours", 250},
	{"hours", 200},
	{"times", 120},
	{"visit", 80},
	{"opening", 60},
	{"plan", 30},
	{"whats-on", 30},
	{"calendar", 30},
	{"book", -150},
	{"ticket", -120},
	{"checkout", -300},
	{"basket", -300},
	{"cart", -200},
	{"login", -200},
}

// ScoreURL scores a URL by path keywords. Higher means more likely to carry opening hours.
func ScoreURL(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	path := strings.ToLower(u.Path)

	score := 0
	for _, kw := range pathWeights {
		if strings.Contains(path, kw.keyword) {
			score += kw.weight
		}
	}
	if depth := len(fetch.PathSegments(rawURL)); depth > MaxPathDepth {
		score -= DepthPenalty * (depth - MaxPathDepth)
	}
	return score
}

// HostNameBonus is added to candidates whose hostname contains the entity name.
const HostNameBonus = 300

// RootBonus is added to candidates at the site root.
const RootBonus = 100

// ScoreCandidate ranks an official-URL candidate for an entity.
func ScoreCandidate(rawURL, entityName string) int {
	score := ScoreURL(rawURL)
	if HostMatchesName(fetch.Host(rawURL), entityName) {
		score += HostNameBonus
	}
	if len(fetch.PathSegments(rawURL)) == 0 {
		score += RootBonus
	}
	return score
}
