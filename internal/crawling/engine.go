package crawling

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/types"
)

// Crawl defaults.
const (
	DefaultSoftLimit         = 15
	DefaultHardLimit         = 25
	DefaultMaxPages          = 20
	DefaultMaxDepth          = 3
	DefaultHoursSubCrawl     = 8
	DefaultMiniCrawl         = 8
	DefaultFetchRetries      = 2
	DefaultRetryBackoff      = 500 * time.Millisecond
	DefaultHighPriorityScore = 150
)

// seedPriority keeps the start URL and origin ahead of everything but golden links.
const seedPriority = 5000

// Extractor is the part of the extraction engine the crawler needs.
type Extractor interface {
	JSONLDParser
	HasSchedule(ctx context.Context, pages []*types.ScrapedPage) bool
}

// Options configures an Engine.
type Options struct {
	SoftLimit     int
	HardLimit     int
	MaxPages      int
	MaxDepth      int
	HoursSubCrawl int
	MiniCrawl     int

	NavigationTimeout    time.Duration
	RenderWait           time.Duration
	BlockedResourceTypes []string
	FetchRetries         int
	RetryBackoff         time.Duration
	// HighPriorityScore is the queue priority at or above which a URL survives the soft limit
	HighPriorityScore int

	Sitemap  SitemapOptions
	Profiles func() fetch.Profile
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// DefaultOptions returns the standard crawl limits.
func DefaultOptions() Options {
	return Options{
		SoftLimit:            DefaultSoftLimit,
		HardLimit:            DefaultHardLimit,
		MaxPages:             DefaultMaxPages,
		MaxDepth:             DefaultMaxDepth,
		HoursSubCrawl:        DefaultHoursSubCrawl,
		MiniCrawl:            DefaultMiniCrawl,
		NavigationTimeout:    fetch.DefaultNavigationTimeout,
		RenderWait:           fetch.DefaultRenderWait,
		BlockedResourceTypes: fetch.DefaultBlockedResourceTypes(),
		FetchRetries:         DefaultFetchRetries,
		RetryBackoff:         DefaultRetryBackoff,
		HighPriorityScore:    DefaultHighPriorityScore,
		Sitemap:              SitemapOptions{Enabled: true},
	}
}

// ScoredPage is a fetched page with its relevance scores.
type ScoredPage struct {
	Page       *types.ScrapedPage
	Score      int
	HoursScore int
	// TaskScores holds TaskScore for every task, keyed by task name
	TaskScores map[string]int
	Depth      int
}

// Result is what one crawl run produced.
type Result struct {
	// Pages in fetch order
	Pages      []*types.ScrapedPage
	Scored     []ScoredPage
	HoursPage  *types.ScrapedPage
	Selected   []*types.ScrapedPage
	// TaskPages maps the age, price and description tasks to their best-scoring page
	TaskPages  map[string]*types.ScrapedPage
	ScoredURLs []types.ScoredCandidate
	Crawled    int
	Budget     BudgetStatus
}

// Engine crawls one site at a time. Each page fetch gets a fresh browser session.
type Engine struct {
	browser   fetch.Browser
	extractor Extractor
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a crawl engine.
func NewEngine(browser fetch.Browser, extractor Extractor, opts Options) *Engine {
	d := DefaultOptions()
	if opts.SoftLimit <= 0 {
		opts.SoftLimit = d.SoftLimit
	}
	if opts.HardLimit <= 0 {
		opts.HardLimit = d.HardLimit
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = d.MaxPages
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = d.MaxDepth
	}
	if opts.HoursSubCrawl < 0 {
		opts.HoursSubCrawl = 0
	}
	if opts.MiniCrawl < 0 {
		opts.MiniCrawl = 0
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = d.NavigationTimeout
	}
	if opts.FetchRetries < 0 {
		opts.FetchRetries = 0
	}
	if opts.HighPriorityScore == 0 {
		opts.HighPriorityScore = d.HighPriorityScore
	}
	if opts.Profiles == nil {
		opts.Profiles = fetch.RandomProfile
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Sitemap.Logger == nil {
		opts.Sitemap.Logger = logger
	}
	return &Engine{
		browser:   browser,
		extractor: extractor,
		opts:      opts,
		logger:    logger,
		metrics:   metrics.OrDefault(opts.Metrics),
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run holds the state of one entity's crawl.
type run struct {
	e       *Engine
	entity  *types.Entity
	origin  string
	budget  *Budget
	queue   *Queue
	visited map[string]bool
	pages   []ScoredPage
	links   map[string][]fetch.Link
	// same-site links seen on fetched pages but not yet visited
	candidates map[string]candidate
	logger     *zap.Logger
}

type candidate struct {
	link  fetch.Link
	depth int
	order int
}

// Run crawls from startURL. It returns ErrNoPagesFetched, along with the (empty) result,
// when not a single page could be fetched.
func (e *Engine) Run(ctx context.Context, entity *types.Entity, startURL string) (*Result, error) {
	start, err := fetch.NormalizeURL(startURL)
	if err != nil {
		return &Result{}, &CrawlError{Message: "invalid start URL", Cause: err}
	}
	origin, err := fetch.Origin(start)
	if err != nil {
		return &Result{}, &CrawlError{Message: "invalid start URL", Cause: err}
	}

	r := &run{
		e:          e,
		entity:     entity,
		origin:     origin,
		budget:     NewBudget(e.opts.SoftLimit, e.opts.HardLimit),
		queue:      NewQueue(),
		visited:    make(map[string]bool),
		links:      make(map[string][]fetch.Link),
		candidates: make(map[string]candidate),
		logger:     e.logger.With(zap.String("entity", entity.Name), zap.String("origin", origin)),
	}

	r.admit(Item{URL: origin, Priority: seedPriority})
	r.admit(Item{URL: start, Priority: seedPriority})
	if e.opts.Sitemap.Enabled {
		for _, u := range DiscoverSitemapURLs(ctx, origin, e.opts.Sitemap) {
			r.admit(Item{URL: u, Depth: 1, Priority: research.ScoreURL(u)})
		}
	}

	r.primary(ctx)
	if ctx.Err() == nil && !e.extractor.HasSchedule(ctx, r.scrapedPages()) {
		r.hoursSubCrawl(ctx)
	}

	res := r.result()
	r.logger.Info("crawl finished",
		zap.Int("pages", len(res.Pages)),
		zap.String("budget", res.Budget.String()),
		zap.Bool("hours_page", res.HoursPage != nil))
	if len(res.Pages) == 0 {
		return res, ErrNoPagesFetched
	}
	return res, nil
}

func (r *run) primary(ctx context.Context) {
	for r.queue.Len() > 0 && len(r.pages) < r.e.opts.MaxPages {
		if ctx.Err() != nil {
			return
		}
		item, _ := r.queue.Pop()
		if r.visited[item.URL] {
			continue
		}
		sp, ok := r.visit(ctx, item, r.isHigh(item))
		if !ok {
			if r.budget.Status() == BudgetHard {
				return
			}
			continue
		}
		r.expand(sp, item)
	}
}

func (r *run) isHigh(item Item) bool {
	return item.Golden || item.Priority >= r.e.opts.HighPriorityScore
}

// admit queues an item if the budget allows it.
func (r *run) admit(item Item) {
	if r.visited[item.URL] || r.queue.Contains(item.URL) {
		return
	}
	if !r.budget.AdmitFunc(r.isHigh(item), func() { r.queue.Push(item) }) {
		r.refused(item.URL)
	}
}

func (r *run) refused(url string) {
	level := r.budget.Status().String()
	r.e.metrics.BudgetRefusals.WithLabelValues(level).Inc()
	r.logger.Debug("budget refused URL", zap.String("url", url), zap.String("level", level))
}

// visit fetches one URL under the budget and records the scored page.
func (r *run) visit(ctx context.Context, item Item, high bool) (*ScoredPage, bool) {
	if !r.budget.Admit(high) {
		r.refused(item.URL)
		return nil, false
	}
	r.visited[item.URL] = true
	delete(r.candidates, item.URL)

	p, err := r.e.fetchPage(ctx, item.URL)
	if err != nil {
		r.logger.Debug("page abandoned", zap.String("url", item.URL), zap.Int("depth", item.Depth), zap.Error(err))
		return nil, false
	}
	r.budget.Record()

	page := BuildScrapedPage(item.URL, p, r.e.extractor)
	// a redirect can land on a page already crawled
	if page.URL != item.URL && r.visited[page.URL] {
		return nil, false
	}
	r.visited[page.URL] = true
	delete(r.candidates, page.URL)

	sp := ScoredPage{
		Page:       page,
		Score:      ContentScore(page, r.entity.Name) + research.ScoreURL(page.URL),
		HoursScore: HoursScore(page),
		TaskScores: PageTaskScores(page),
		Depth:      item.Depth,
	}
	r.pages = append(r.pages, sp)
	r.links[page.URL] = p.OutboundLinks
	r.logger.Debug("page crawled",
		zap.String("url", page.URL), zap.Int("depth", item.Depth),
		zap.Int("score", sp.Score), zap.Int("hours_score", sp.HoursScore))
	return &sp, true
}

// expand queues golden links first, then same-site links that pass the relevance filter.
func (r *run) expand(sp *ScoredPage, from Item) {
	links := r.links[sp.Page.URL]
	depth := from.Depth + 1

	for _, g := range GoldenLinks(sp.Page.RawText, links, sp.Page.URL) {
		n, err := fetch.NormalizeURL(g)
		if err != nil || r.visited[n] {
			continue
		}
		item := Item{URL: n, Depth: depth}
		if !r.budget.AdmitFunc(true, func() { r.queue.PushFront(item) }) {
			r.refused(n)
			continue
		}
		r.logger.Debug("golden link", zap.String("url", n), zap.String("from", sp.Page.URL))
	}

	for _, l := range links {
		n, err := fetch.NormalizeURL(l.URL)
		if err != nil || r.visited[n] || !fetch.SameSite(n, r.origin) {
			continue
		}
		if _, ok := r.candidates[n]; !ok {
			r.candidates[n] = candidate{link: fetch.Link{URL: n, Text: l.Text}, depth: depth, order: len(r.candidates)}
		}
		if depth > r.e.opts.MaxDepth {
			continue
		}
		if from.Depth > 0 && !IsRelevantPath(n) {
			continue
		}
		r.admit(Item{URL: n, Depth: depth, Priority: research.ScoreURL(n)})
	}
}

func (r *run) scrapedPages() []*types.ScrapedPage {
	out := make([]*types.ScrapedPage, len(r.pages))
	for i, sp := range r.pages {
		out[i] = sp.Page
	}
	return out
}

func (r *run) result() *Result {
	res := &Result{
		Pages:   r.scrapedPages(),
		Scored:  append([]ScoredPage(nil), r.pages...),
		Crawled: r.budget.Crawled(),
		Budget:  r.budget.Status(),
	}
	hours, general := SelectResults(r.pages)
	if hours != nil {
		res.HoursPage = hours.Page
		res.Selected = append(res.Selected, hours.Page)
	}
	for _, g := range general {
		res.Selected = append(res.Selected, g.Page)
	}
	res.TaskPages = make(map[string]*types.ScrapedPage)
	for name, sp := range BestTaskPages(r.pages) {
		res.TaskPages[name] = sp.Page
	}
	res.ScoredURLs = ScoredURLs(r.pages)
	return res
}

// fetchPage retries transient failures with exponential backoff. Error statuses are not
// retried.
func (e *Engine) fetchPage(ctx context.Context, url string) (*fetch.Page, error) {
	var lastErr error
	for attempt := 0; attempt <= e.opts.FetchRetries; attempt++ {
		if attempt > 0 {
			e.metrics.PagesFetched.WithLabelValues("retried").Inc()
			if err := e.sleep(ctx, e.opts.RetryBackoff<<(attempt-1)); err != nil {
				return nil, err
			}
		}
		page, err := e.fetchOnce(ctx, url)
		if err == nil {
			e.metrics.PagesFetched.WithLabelValues("ok").Inc()
			return page, nil
		}
		lastErr = err
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) || ctx.Err() != nil {
			break
		}
	}
	e.metrics.PagesFetched.WithLabelValues("failed").Inc()
	return nil, lastErr
}

func (e *Engine) fetchOnce(ctx context.Context, url string) (*fetch.Page, error) {
	started := time.Now()
	defer func() { e.metrics.FetchDuration.Observe(time.Since(started).Seconds()) }()

	profile := e.opts.Profiles()
	session, err := e.browser.Launch(ctx, fetch.LaunchOptions{UserAgent: profile.UserAgent, Viewport: profile.Viewport})
	if err != nil {
		return nil, &CrawlError{Message: "browser launch failed", Cause: err}
	}
	defer func() { _ = session.Close() }()

	page, err := session.Fetch(ctx, url, fetch.FetchOptions{
		Timeout:              e.opts.NavigationTimeout,
		BlockedResourceTypes: e.opts.BlockedResourceTypes,
		RenderWait:           e.opts.RenderWait,
	})
	if err != nil {
		return nil, &CrawlError{Message: "fetch failed", Cause: err}
	}
	if page.StatusCode >= 400 {
		return nil, &HTTPStatusError{URL: url, Status: page.StatusCode}
	}
	return page, nil
}
