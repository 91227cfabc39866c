package crawling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/types"
)

func TestTasks(t *testing.T) {
	tasks := Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, TaskHours, tasks[0].Name)
	assert.Contains(t, tasks[0].URLKeywords, "opening-hours")
	assert.NotEmpty(t, tasks[2].TextKeywords)

	unknown := TaskByName("parking")
	assert.Empty(t, unknown.URLKeywords)
	assert.Zero(t, unknown.Boost)
}

func TestTaskScore(t *testing.T) {
	hours := TaskByName(TaskHours)

	assert.Zero(t, TaskScore("https://x.org/shop", "Gifts", hours))
	assert.Equal(t, 100+hours.Boost, TaskScore("https://x.org/visit", "Visit", hours))
	assert.Greater(t,
		TaskScore("https://x.org/opening-times", "Opening times", hours),
		TaskScore("https://x.org/visit", "Visit", hours))
}

func TestPageTaskScores(t *testing.T) {
	page := &types.ScrapedPage{URL: "https://x.org/prices", Title: "Prices", RawText: "Admission: adult £12"}
	scores := PageTaskScores(page)

	require.Len(t, scores, 4)
	price := TaskByName(TaskPrice)
	assert.Equal(t, TaskScore(page.URL, page.Title+"\n"+page.RawText, price), scores[TaskPrice])
	assert.Greater(t, scores[TaskPrice], price.Boost)
	assert.Zero(t, scores[TaskAge])
}

func TestIsRelevantPath(t *testing.T) {
	assert.True(t, IsRelevantPath("https://x.org/visit/plan"))
	assert.True(t, IsRelevantPath("https://x.org/prices"))
	assert.False(t, IsRelevantPath("https://x.org/press"))
	assert.False(t, IsRelevantPath("https://x.org/"))
}

func TestContentScore(t *testing.T) {
	hours := &types.ScrapedPage{
		Title:   "Opening hours | The Old Mill",
		RawText: "Opening hours\nMonday closed\nTuesday 10am - 5pm\nWednesday 10am - 5pm",
	}
	shop := &types.ScrapedPage{
		Title:   "Basket",
		RawText: "Your basket\nProceed to checkout",
	}
	assert.Greater(t, ContentScore(hours, "The Old Mill"), 0)
	assert.Less(t, ContentScore(shop, "The Old Mill"), 0)
}

func TestHoursScore_RewardsLiterals(t *testing.T) {
	withTimes := &types.ScrapedPage{URL: "https://x.org/info", RawText: "We are open Tuesday 10am to 4pm"}
	without := &types.ScrapedPage{URL: "https://x.org/info", RawText: "We are open most days"}
	assert.Equal(t, HoursScore(without)+literalsBonus, HoursScore(withTimes))
}

func TestGoldenLinks(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		links []fetch.Link
		want  []string
	}{
		{
			name: "anchor text in prose",
			text: "For our opening hours please see here.",
			links: []fetch.Link{
				{URL: "https://oldmill.org/info/p7", Text: "here"},
				{URL: "https://oldmill.org/about", Text: "About"},
				{URL: "https://other.org/info", Text: "here"},
			},
			want: []string{"https://oldmill.org/info/p7"},
		},
		{
			name: "path word in prose",
			text: "Opening times are listed here",
			links: []fetch.Link{
				{URL: "https://oldmill.org/plan/times-and-prices", Text: "Plan your day"},
				{URL: "https://oldmill.org/about", Text: "About"},
			},
			want: []string{"https://oldmill.org/plan/times-and-prices"},
		},
		{
			name: "no pointer prose",
			text: "Open daily 10am - 5pm.",
			links: []fetch.Link{
				{URL: "https://oldmill.org/info/p7", Text: "here"},
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GoldenLinks(tt.text, tt.links, "https://oldmill.org/visit"))
		})
	}
}
