package crawling

import (
	"sort"

	"github.com/jonathan/venue-scout/internal/types"
)

// MaxGeneralPages is the size of the general-relevance track.
const MaxGeneralPages = 2

// SelectResults picks two disjoint tracks: the best hours page, and up to two of the
// highest-scoring remaining pages. The hours track is empty when no page scores for hours.
func SelectResults(pages []ScoredPage) (*ScoredPage, []ScoredPage) {
	var hours *ScoredPage
	for i := range pages {
		if pages[i].HoursScore <= 0 {
			continue
		}
		if hours == nil || pages[i].HoursScore > hours.HoursScore {
			hours = &pages[i]
		}
	}

	var rest []ScoredPage
	for i := range pages {
		if hours != nil && pages[i].Page == hours.Page {
			continue
		}
		rest = append(rest, pages[i])
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Score > rest[j].Score })
	if len(rest) > MaxGeneralPages {
		rest = rest[:MaxGeneralPages]
	}
	return hours, rest
}

// BestTaskPages picks the highest-scoring page for each of the age, price and description
// tasks. Hours is covered by SelectResults. Tasks no page scored for are absent; ties keep the
// page fetched first.
func BestTaskPages(pages []ScoredPage) map[string]*ScoredPage {
	out := make(map[string]*ScoredPage)
	for _, name := range []string{TaskAge, TaskPrice, TaskDescription} {
		for i := range pages {
			s := pages[i].TaskScores[name]
			if s <= 0 {
				continue
			}
			if best, ok := out[name]; !ok || s > best.TaskScores[name] {
				out[name] = &pages[i]
			}
		}
	}
	return out
}

// ScoredURLs lists every crawled URL by descending score.
func ScoredURLs(pages []ScoredPage) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, len(pages))
	for i, p := range pages {
		out[i] = types.ScoredCandidate{URL: p.Page.URL, Score: p.Score}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
