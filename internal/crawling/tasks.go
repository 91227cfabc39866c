package crawling

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
	"github.com/jonathan/venue-scout/internal/vocab"
)

// Task names.
const (
	TaskHours       = "hours"
	TaskAge         = "age"
	TaskPrice       = "price"
	TaskDescription = "description"
)

// Task is a targeted information need with its own keyword sets.
type Task struct {
	Name         string
	URLKeywords  []string
	TextKeywords []string
	Boost        int
}

var taskBoosts = map[string]int{
	TaskHours:       300,
	TaskAge:         120,
	TaskPrice:       120,
	TaskDescription: 60,
}

// Tasks returns the four crawl tasks.
func Tasks() []Task {
	names := []string{TaskHours, TaskAge, TaskPrice, TaskDescription}
	tasks := make([]Task, len(names))
	for i, n := range names {
		tasks[i] = TaskByName(n)
	}
	return tasks
}

// TaskByName returns the named task. Unknown names yield a task with no keywords.
func TaskByName(name string) Task {
	t := Task{Name: name, Boost: taskBoosts[name]}
	t.URLKeywords, _ = vocab.Get("tasks", name+"_url")
	t.TextKeywords, _ = vocab.Get("tasks", name+"_text")
	return t
}

// TaskScore scores a link or page for a task from its URL path and accompanying text. The
// boost applies once when anything matched.
func TaskScore(rawURL, text string, task Task) int {
	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(u.Path)
	}
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range task.URLKeywords {
		if strings.Contains(path, kw) {
			score += 100
		}
	}
	for _, kw := range task.TextKeywords {
		if strings.Contains(lower, kw) {
			score += 20
		}
	}
	if score > 0 {
		score += task.Boost
	}
	return score
}

// RelevanceKeywords is the union of every task's URL keywords; links deeper than the
// start page are followed only when their path contains one.
func RelevanceKeywords() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range Tasks() {
		for _, kw := range t.URLKeywords {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	return out
}

// IsRelevantPath reports whether a URL path contains a relevance keyword.
func IsRelevantPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, kw := range RelevanceKeywords() {
		if strings.Contains(path, kw) {
			return true
		}
	}
	return false
}

var (
	dayTokenRe  = regexp.MustCompile(`(?i)\b` + timefmt.DayPattern)
	timeTokenRe = regexp.MustCompile(`(?i)\b` + timefmt.TimePattern)
)

const (
	maxDensityHits = 20
	densityWeight  = 5
	commerceWeight = 250
	hoursTextBonus = 40
	titleURLBonus  = 60
	nameBonus      = 50
)

// ContentScore scores a fetched page for general relevance: hours vocabulary, day and time
// density, the entity name in the title, and a strong penalty for checkout language.
func ContentScore(page *types.ScrapedPage, entityName string) int {
	title := strings.ToLower(page.Title)
	text := strings.ToLower(page.RawText)

	score := 0
	for _, kw := range vocab.MustGet("tasks", "hours_text") {
		if strings.Contains(text, kw) {
			score += hoursTextBonus
		}
	}
	for _, kw := range vocab.MustGet("tasks", "hours_url") {
		if strings.Contains(title, kw) {
			score += titleURLBonus
		}
	}
	score += densityWeight * min(len(dayTokenRe.FindAllStringIndex(text, maxDensityHits)), maxDensityHits)
	score += densityWeight * min(len(timeTokenRe.FindAllStringIndex(text, maxDensityHits)), maxDensityHits)

	foldedTitle := research.FoldName(page.Title)
	for _, tok := range research.NameTokens(entityName) {
		if strings.Contains(foldedTitle, tok) {
			score += nameBonus
			break
		}
	}
	for _, kw := range vocab.MustGet("text", "commerce") {
		if strings.Contains(text, kw) {
			score -= commerceWeight
		}
	}
	return score
}

// PageTaskScores scores a fetched page against every task.
func PageTaskScores(page *types.ScrapedPage) map[string]int {
	text := page.Title + "\n" + page.RawText
	scores := make(map[string]int, len(taskBoosts))
	for _, t := range Tasks() {
		scores[t.Name] = TaskScore(page.URL, text, t)
	}
	return scores
}

// literalsBonus rewards hours pages that actually print days and times.
const literalsBonus = 150

// HoursScore scores a fetched page for the hours task.
func HoursScore(page *types.ScrapedPage) int {
	score := TaskScore(page.URL, page.Title+"\n"+page.RawText, TaskByName(TaskHours))
	if dayTokenRe.MatchString(page.RawText) && timeTokenRe.MatchString(page.RawText) {
		score += literalsBonus
	}
	return score
}
