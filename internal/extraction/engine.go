// Package extraction turns scraped pages into a canonical weekly schedule or event list.
//
// Each page runs through an ordered chain of strategies (JSON-LD, natural-language parsing,
// regex tables, calendar grids); the first that yields a weekly schedule wins. When none does,
// every raw instance gathered along the way is classified as a whole.
package extraction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/nlparse"
	"github.com/jonathan/venue-scout/internal/types"
)

// Engine runs the strategy chain.
type Engine struct {
	strategies []Strategy
	parser     nlparse.Parser
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithParser sets the natural-language parser. Without one the NL strategy is a no-op.
func WithParser(p nlparse.Parser) Option {
	return func(e *Engine) { e.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithReferenceTime fixes the reference date used for year-less dates.
func WithReferenceTime(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStrategies replaces the default chain.
func WithStrategies(s ...Strategy) Option {
	return func(e *Engine) { e.strategies = s }
}

// NewEngine creates an engine with the default strategy order.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.metrics = metrics.OrDefault(e.metrics)
	if e.strategies == nil {
		e.strategies = []Strategy{
			JSONLDStrategy{Logger: e.logger},
			NLStrategy{Parser: e.parser, Logger: e.logger},
			RegexStrategy{},
			GridStrategy{},
		}
	}
	return e
}

// chain runs the strategies over one page. It returns the first schedule found, and the
// raw instances gathered until then.
func (e *Engine) chain(ctx context.Context, page *types.ScrapedPage) (*types.WeeklySchedule, string, []types.RawTimeInstance) {
	ref := e.now()
	var gathered []types.RawTimeInstance
	gathered = append(gathered, page.RawInstances...)
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}
		out := s.Extract(page, ref)
		gathered = append(gathered, out.Instances...)
		if out.Schedule != nil {
			return out.Schedule, s.Name(), gathered
		}
	}
	return nil, "", gathered
}

// Extract runs the chain over a single page. It returns nil when the page has no dates.
func (e *Engine) Extract(ctx context.Context, page *types.ScrapedPage) *types.Dates {
	if page == nil {
		return nil
	}
	ws, name, gathered := e.chain(ctx, page)
	if ws != nil {
		e.record(name, page.URL)
		return &types.Dates{Schedule: ws}
	}
	dates := Classify(gathered)
	if dates != nil {
		e.record("classified", page.URL)
	}
	return dates
}

// ExtractPages tries each page in order and returns the first weekly schedule. When no page
// yields one, instances from all pages are classified together and the page contributing the
// most instances is reported as the source.
func (e *Engine) ExtractPages(ctx context.Context, pages []*types.ScrapedPage) (*types.Dates, *types.ScrapedPage) {
	var all []types.RawTimeInstance
	var best *types.ScrapedPage
	bestCount := 0

	for _, page := range pages {
		if page == nil {
			continue
		}
		ws, name, gathered := e.chain(ctx, page)
		if ws != nil {
			e.record(name, page.URL)
			return &types.Dates{Schedule: ws}, page
		}
		if n := len(Dedupe(gathered)); n > bestCount {
			best, bestCount = page, n
		}
		all = append(all, gathered...)
	}

	dates := Classify(all)
	if dates == nil {
		e.metrics.ExtractionOutcomes.WithLabelValues("none").Inc()
		return nil, nil
	}
	e.record("classified", best.URL)
	return dates, best
}

// HasSchedule reports whether any page yields a weekly schedule on its own.
func (e *Engine) HasSchedule(ctx context.Context, pages []*types.ScrapedPage) bool {
	for _, page := range pages {
		if ws, _, _ := e.chain(ctx, page); ws != nil {
			return true
		}
	}
	return false
}

// RawInstances gathers every raw instance a page offers, without choosing a schedule.
// The dynamic calendar driver calls this once per snapshot.
func (e *Engine) RawInstances(ctx context.Context, page *types.ScrapedPage) []types.RawTimeInstance {
	ref := e.now()
	var out []types.RawTimeInstance
	out = append(out, page.RawInstances...)
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}
		if _, ok := s.(RegexStrategy); ok {
			continue
		}
		out = append(out, s.Extract(page, ref).Instances...)
	}
	return Dedupe(out)
}

// ParseJSONLDScripts exposes the JSON-LD parser for page construction.
func (e *Engine) ParseJSONLDScripts(url string, scripts []string) JSONLDResult {
	res := ParseJSONLD(scripts)
	for _, err := range res.Errors {
		e.logger.Debug("skipping ld+json block", zap.String("url", url), zap.Error(err))
	}
	return res
}

func (e *Engine) record(strategy, url string) {
	e.metrics.ExtractionOutcomes.WithLabelValues(strategy).Inc()
	e.logger.Debug("dates extracted", zap.String("strategy", strategy), zap.String("url", url))
}
