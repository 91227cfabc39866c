package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/venue-scout/internal/calendar"
	"github.com/jonathan/venue-scout/internal/crawling"
	"github.com/jonathan/venue-scout/internal/observability"
	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/types"
)

type fakeResolver struct {
	res *research.Resolution
	err error
}

func (f *fakeResolver) Resolve(context.Context, *types.Entity) (*research.Resolution, error) {
	return f.res, f.err
}

type fakeCrawler struct {
	res   *crawling.Result
	err   error
	calls []string
}

func (f *fakeCrawler) Run(_ context.Context, _ *types.Entity, startURL string) (*crawling.Result, error) {
	f.calls = append(f.calls, startURL)
	return f.res, f.err
}

type fakeExtractor struct {
	dates  *types.Dates
	source *types.ScrapedPage
	seen   []string
}

func (f *fakeExtractor) ExtractPages(_ context.Context, pages []*types.ScrapedPage) (*types.Dates, *types.ScrapedPage) {
	for _, p := range pages {
		f.seen = append(f.seen, p.URL)
	}
	return f.dates, f.source
}

type fakeCalendar struct {
	res   *calendar.Result
	err   error
	calls []string
}

func (f *fakeCalendar) Run(_ context.Context, pageURL string) (*calendar.Result, error) {
	f.calls = append(f.calls, pageURL)
	return f.res, f.err
}

var (
	homePage  = &types.ScrapedPage{URL: "https://oldmill.org/", HTML: "<html><body>Welcome</body></html>"}
	hoursPage = &types.ScrapedPage{URL: "https://oldmill.org/visit", HTML: "<html><body>Open daily</body></html>"}
	calPage   = &types.ScrapedPage{URL: "https://oldmill.org/whats-on", HTML: `<html><body><div class="fc-daygrid"></div></body></html>`}
)

func resolved() *fakeResolver {
	return &fakeResolver{res: &research.Resolution{
		OfficialURL: "https://oldmill.org/",
		Candidates:  []types.ScoredCandidate{{URL: "https://oldmill.org/", Score: 400}},
		Verified:    []string{"https://oldmill.org/"},
	}}
}

func crawled() *fakeCrawler {
	return &fakeCrawler{res: &crawling.Result{
		Pages:      []*types.ScrapedPage{homePage, calPage, hoursPage},
		HoursPage:  hoursPage,
		Selected:   []*types.ScrapedPage{hoursPage, homePage},
		ScoredURLs: []types.ScoredCandidate{{URL: hoursPage.URL, Score: 300}, {URL: homePage.URL, Score: 50}},
		Crawled:    3,
	}}
}

func schedule() *types.Dates {
	ws := types.NewWeeklySchedule()
	for _, d := range []string{"Monday", "Tuesday", "Wednesday", "Thursday"} {
		ws.Days[d] = types.DayHours{Open: "10:00", Close: "17:00"}
	}
	return &types.Dates{Schedule: ws}
}

var oldMill = &types.Entity{Name: "The Old Mill", Description: "A working water mill"}

func TestRun_ExtractsDates(t *testing.T) {
	crawler := crawled()
	extractor := &fakeExtractor{dates: schedule(), source: hoursPage}
	cal := &fakeCalendar{}
	var events []ProgressEvent
	var out bytes.Buffer

	p := New(Options{
		Resolver:   resolved(),
		Crawler:    crawler,
		Extractor:  extractor,
		Calendar:   cal,
		Printer:    observability.NewPrinter(&out),
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	res, err := p.Run(context.Background(), oldMill)
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	require.NotNil(t, res.ResolvedOfficialURL)
	assert.Equal(t, "https://oldmill.org/", *res.ResolvedOfficialURL)
	assert.Equal(t, []string{"https://oldmill.org/"}, crawler.calls)
	assert.Len(t, res.Pages, 3)
	assert.Same(t, hoursPage, res.PrimaryDatesPage)
	require.NotNil(t, res.Classification)
	assert.Equal(t, types.ClassificationPlace, *res.Classification)
	assert.Equal(t, 300, res.ScoredURLs[0].Score)
	assert.Empty(t, cal.calls)

	// selected tracks first, then the rest in fetch order
	assert.Equal(t, []string{hoursPage.URL, homePage.URL, calPage.URL}, extractor.seen)

	var steps []string
	for _, e := range events {
		assert.Equal(t, res.RunID, e.RunID)
		steps = append(steps, e.Step)
	}
	assert.Equal(t, []string{StepResolve, StepCrawl, StepExtract, StepDone}, steps)
	assert.Contains(t, out.String(), "WEEKLY SCHEDULE")
}

func TestRun_NoOfficialURL(t *testing.T) {
	crawler := crawled()
	resolver := &fakeResolver{res: &research.Resolution{
		Candidates: []types.ScoredCandidate{{URL: "https://a.org/", Score: 10}},
	}}
	p := New(Options{Resolver: resolver, Crawler: crawler, Extractor: &fakeExtractor{}})

	res, err := p.Run(context.Background(), oldMill)
	require.ErrorIs(t, err, ErrNoOfficialURL)
	require.NotNil(t, res)
	assert.Nil(t, res.ResolvedOfficialURL)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, resolver.res.Candidates, res.ScoredURLs)
	assert.Empty(t, res.Pages)
	assert.Empty(t, crawler.calls)
}

func TestRun_Dispersed(t *testing.T) {
	resolver := &fakeResolver{res: &research.Resolution{Dispersed: true}}
	p := New(Options{Resolver: resolver, Crawler: crawled(), Extractor: &fakeExtractor{}})

	_, err := p.Run(context.Background(), &types.Entity{Name: "Dune", Tags: []string{"film"}})
	require.ErrorIs(t, err, ErrNoOfficialURL)
	assert.Contains(t, err.Error(), "dispersed")
}

func TestRun_NoPagesFetched(t *testing.T) {
	crawler := &fakeCrawler{err: crawling.ErrNoPagesFetched}
	p := New(Options{Resolver: resolved(), Crawler: crawler, Extractor: &fakeExtractor{}})

	res, err := p.Run(context.Background(), oldMill)
	require.ErrorIs(t, err, crawling.ErrNoPagesFetched)
	require.NotNil(t, res)
	require.NotNil(t, res.ResolvedOfficialURL)
	assert.Nil(t, res.Dates)
}

func TestRun_ResolverError(t *testing.T) {
	resolver := &fakeResolver{err: context.Canceled}
	p := New(Options{Resolver: resolver, Crawler: crawled(), Extractor: &fakeExtractor{}})

	_, err := p.Run(context.Background(), oldMill)
	var pipeErr *Error
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, StepResolve, pipeErr.Step)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidEntity(t *testing.T) {
	p := New(Options{Resolver: resolved(), Crawler: crawled(), Extractor: &fakeExtractor{}})

	res, err := p.Run(context.Background(), &types.Entity{})
	require.Error(t, err)
	assert.Nil(t, res)

	_, err = p.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestRun_CalendarFallback(t *testing.T) {
	cal := &fakeCalendar{res: &calendar.Result{
		Instances: []types.RawTimeInstance{{Date: "2025-05-03", StartTime: "19:30", EndTime: "21:00", Note: "Concert"}},
		Dates: &types.Dates{Events: &types.EventInstanceSet{Instances: []types.EventInstance{
			{Date: "2025-05-03", StartTime: "19:30", EndTime: "21:00", Note: "Concert"},
		}}},
	}}
	crawler := crawled()
	p := New(Options{Resolver: resolved(), Crawler: crawler, Extractor: &fakeExtractor{}, Calendar: cal})

	res, err := p.Run(context.Background(), oldMill)
	require.NoError(t, err)

	// the hours page has no widget, so the first dynamic page is walked
	assert.Equal(t, []string{calPage.URL}, cal.calls)
	require.NotNil(t, res.Classification)
	assert.Equal(t, types.ClassificationEvent, *res.Classification)
	require.NotNil(t, res.PrimaryDatesPage)
	assert.Equal(t, calPage.URL, res.PrimaryDatesPage.URL)
	assert.Len(t, res.PrimaryDatesPage.RawInstances, 1)
	assert.Same(t, res.PrimaryDatesPage, res.Pages[1])

	// the crawl's own page record is untouched
	assert.Empty(t, calPage.RawInstances)
	assert.Same(t, calPage, crawler.res.Pages[1])
}

func TestRun_CalendarFailureIsNotFatal(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("chrome crashed")}
	p := New(Options{Resolver: resolved(), Crawler: crawled(), Extractor: &fakeExtractor{}, Calendar: cal})

	res, err := p.Run(context.Background(), oldMill)
	require.NoError(t, err)
	assert.Len(t, cal.calls, 1)
	assert.Nil(t, res.Dates)
	assert.Nil(t, res.Classification)
	assert.Same(t, hoursPage, res.PrimaryDatesPage)
}

func TestRun_NoDynamicPageSkipsCalendar(t *testing.T) {
	crawler := crawled()
	crawler.res.Pages = []*types.ScrapedPage{homePage, hoursPage}
	cal := &fakeCalendar{}
	p := New(Options{Resolver: resolved(), Crawler: crawler, Extractor: &fakeExtractor{}, Calendar: cal})

	_, err := p.Run(context.Background(), oldMill)
	require.NoError(t, err)
	assert.Empty(t, cal.calls)
}
