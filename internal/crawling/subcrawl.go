package crawling

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/types"
)

type rankedLink struct {
	link  fetch.Link
	depth int
	score int
	order int
}

func sortRanked(links []rankedLink) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].score != links[j].score {
			return links[i].score > links[j].score
		}
		return links[i].order < links[j].order
	})
}

// hoursSubCrawl re-ranks every seen but unvisited link for the hours task and visits the
// best few. Past the soft limit only links scoring at least HighPriorityScore are fetched.
// The first visited candidate without a schedule seeds one mini-crawl.
func (r *run) hoursSubCrawl(ctx context.Context) {
	if r.e.opts.HoursSubCrawl == 0 {
		return
	}
	task := TaskByName(TaskHours)

	var ranked []rankedLink
	for url, c := range r.candidates {
		if r.visited[url] {
			continue
		}
		score := TaskScore(url, c.link.Text, task)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, rankedLink{link: c.link, depth: c.depth, score: score, order: c.order})
	}
	sortRanked(ranked)
	if len(ranked) > r.e.opts.HoursSubCrawl {
		ranked = ranked[:r.e.opts.HoursSubCrawl]
	}
	r.logger.Debug("hours sub-crawl", zap.Int("candidates", len(ranked)))

	miniDone := false
	for _, c := range ranked {
		if ctx.Err() != nil {
			return
		}
		if r.visited[c.link.URL] {
			continue
		}
		item := Item{URL: c.link.URL, Depth: c.depth, Priority: c.score}
		sp, ok := r.visit(ctx, item, r.isHigh(item))
		if !ok {
			if r.budget.Status() == BudgetHard {
				return
			}
			continue
		}
		if r.e.extractor.HasSchedule(ctx, []*types.ScrapedPage{sp.Page}) {
			return
		}
		if !miniDone {
			miniDone = true
			if r.miniCrawl(ctx, sp) {
				return
			}
		}
	}
}

// miniCrawl follows the links of one hours candidate a single hop deeper, preferring links
// that match hours keywords. It reports whether a schedule was found.
func (r *run) miniCrawl(ctx context.Context, from *ScoredPage) bool {
	if r.e.opts.MiniCrawl == 0 {
		return false
	}
	task := TaskByName(TaskHours)

	seen := make(map[string]bool)
	var ranked []rankedLink
	for i, l := range r.links[from.Page.URL] {
		n, err := fetch.NormalizeURL(l.URL)
		if err != nil || r.visited[n] || seen[n] || !fetch.SameSite(n, r.origin) {
			continue
		}
		seen[n] = true
		ranked = append(ranked, rankedLink{
			link:  fetch.Link{URL: n, Text: l.Text},
			depth: from.Depth + 1,
			score: TaskScore(n, l.Text, task) + research.ScoreURL(n),
			order: i,
		})
	}
	sortRanked(ranked)
	if len(ranked) > r.e.opts.MiniCrawl {
		ranked = ranked[:r.e.opts.MiniCrawl]
	}
	r.logger.Debug("mini-crawl", zap.String("from", from.Page.URL), zap.Int("links", len(ranked)))

	for _, c := range ranked {
		if ctx.Err() != nil {
			return false
		}
		item := Item{URL: c.link.URL, Depth: c.depth, Priority: c.score}
		sp, ok := r.visit(ctx, item, r.isHigh(item))
		if !ok {
			if r.budget.Status() == BudgetHard {
				return false
			}
			continue
		}
		if r.e.extractor.HasSchedule(ctx, []*types.ScrapedPage{sp.Page}) {
			return true
		}
	}
	return false
}
