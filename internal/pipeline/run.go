// Package pipeline provides the per-entity orchestration: official-URL resolution, the site
// crawl, structured extraction, and the dynamic calendar fallback.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/calendar"
	"github.com/jonathan/venue-scout/internal/crawling"
	"github.com/jonathan/venue-scout/internal/observability"
	"github.com/jonathan/venue-scout/internal/research"
	"github.com/jonathan/venue-scout/internal/types"
)

// ErrNoOfficialURL is returned when no candidate verified, or the entity is dispersed across
// cinema chains.
var ErrNoOfficialURL = errors.New("pipeline error: no official URL")

// Pipeline steps reported through ProgressCallback.
const (
	StepResolve  = "resolve"
	StepCrawl    = "crawl"
	StepExtract  = "extract"
	StepCalendar = "calendar"
	StepDone     = "done"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Resolver picks the official URL for an entity.
type Resolver interface {
	Resolve(ctx context.Context, entity *types.Entity) (*research.Resolution, error)
}

// Crawler crawls a site from its official URL.
type Crawler interface {
	Run(ctx context.Context, entity *types.Entity, startURL string) (*crawling.Result, error)
}

// Extractor reconciles dates across pages.
type Extractor interface {
	ExtractPages(ctx context.Context, pages []*types.ScrapedPage) (*types.Dates, *types.ScrapedPage)
}

// CalendarDriver walks a dynamic calendar page.
type CalendarDriver interface {
	Run(ctx context.Context, pageURL string) (*calendar.Result, error)
}

// Options holds the collaborators of a Pipeline. Calendar, Printer and OnProgress are
// optional.
type Options struct {
	Resolver   Resolver
	Crawler    Crawler
	Extractor  Extractor
	Calendar   CalendarDriver
	Printer    *observability.Printer
	OnProgress ProgressCallback
	Logger     *zap.Logger
}

// Pipeline resolves one entity at a time. It holds no per-run state.
type Pipeline struct {
	opts     Options
	newRunID func() string
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{opts: opts, newRunID: uuid.NewString}
}

// Error represents a pipeline failure that is not one of the sentinel outcomes.
type Error struct {
	Step    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pipeline error in %s: %s: %v", e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("pipeline error in %s: %s", e.Step, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type run struct {
	*Pipeline
	id     string
	logger *zap.Logger
	result *types.Result
}

func (r *run) emit(step, message string, content any) {
	r.logger.Info(message, zap.String("step", step))
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{Step: step, Message: message, RunID: r.id, Content: content})
	}
}

// Run resolves, crawls and extracts one entity. A non-nil partial result accompanies
// ErrNoOfficialURL and crawling.ErrNoPagesFetched.
func (p *Pipeline) Run(ctx context.Context, entity *types.Entity) (*types.Result, error) {
	if entity == nil {
		return nil, &Error{Step: StepResolve, Message: "entity is required"}
	}
	if err := entity.Validate(); err != nil {
		return nil, &Error{Step: StepResolve, Message: "invalid entity", Cause: err}
	}

	id := p.newRunID()
	r := &run{
		Pipeline: p,
		id:       id,
		logger:   p.opts.Logger.With(zap.String("run_id", id), zap.String("entity", entity.Name)),
		result:   &types.Result{RunID: id, Pages: []*types.ScrapedPage{}, ScoredURLs: []types.ScoredCandidate{}},
	}

	res, err := p.opts.Resolver.Resolve(ctx, entity)
	if err != nil {
		return r.result, &Error{Step: StepResolve, Message: "resolution failed", Cause: err}
	}
	if res.Candidates != nil {
		r.result.ScoredURLs = res.Candidates
	}
	if p.opts.Printer != nil {
		p.opts.Printer.PrintResolution(entity, res)
	}
	if !res.Resolved() {
		r.emit(StepResolve, "no official URL", res)
		if res.Dispersed {
			return r.result, fmt.Errorf("%w: dispersed across cinema chains", ErrNoOfficialURL)
		}
		return r.result, ErrNoOfficialURL
	}
	official := res.OfficialURL
	r.result.ResolvedOfficialURL = &official
	r.emit(StepResolve, fmt.Sprintf("resolved official URL %s", official), res)

	crawl, err := p.opts.Crawler.Run(ctx, entity, official)
	if err != nil {
		if errors.Is(err, crawling.ErrNoPagesFetched) {
			r.emit(StepCrawl, "no pages fetched", nil)
			return r.result, err
		}
		return r.result, &Error{Step: StepCrawl, Message: "crawl failed", Cause: err}
	}
	r.result.Pages = append([]*types.ScrapedPage(nil), crawl.Pages...)
	if len(crawl.ScoredURLs) > 0 {
		r.result.ScoredURLs = crawl.ScoredURLs
	}
	r.emit(StepCrawl, fmt.Sprintf("crawled %d pages", crawl.Crawled), crawl.ScoredURLs)

	dates, source := p.opts.Extractor.ExtractPages(ctx, orderPages(crawl))
	if dates.IsEmpty() {
		dates, source = r.calendarFallback(ctx, crawl)
	}

	r.result.SetDates(dates)
	if r.result.Dates != nil {
		r.result.PrimaryDatesPage = source
		r.emit(StepExtract, fmt.Sprintf("extracted %s dates", r.result.Dates.Classification()), r.result.Dates)
	} else {
		r.result.PrimaryDatesPage = crawl.HoursPage
		r.emit(StepExtract, "no dates found", nil)
	}

	if p.opts.Printer != nil {
		p.opts.Printer.PrintScoredURLs(r.result.ScoredURLs)
		p.opts.Printer.PrintDates(r.result.Dates)
	}
	r.emit(StepDone, "run complete", nil)
	return r.result, nil
}

// orderPages puts the selected tracks first, then every other crawled page in fetch order.
func orderPages(crawl *crawling.Result) []*types.ScrapedPage {
	seen := make(map[*types.ScrapedPage]bool)
	var out []*types.ScrapedPage
	for _, p := range crawl.Selected {
		if p != nil && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range crawl.Pages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// calendarTarget returns the page the calendar driver should walk: the hours page when it
// renders a dynamic widget, otherwise the first crawled page that does.
func calendarTarget(crawl *crawling.Result) *types.ScrapedPage {
	if hp := crawl.HoursPage; hp != nil && calendar.DetectFormat(hp.HTML) == calendar.FormatDynamic {
		return hp
	}
	for _, p := range crawl.Pages {
		if calendar.DetectFormat(p.HTML) == calendar.FormatDynamic {
			return p
		}
	}
	return nil
}

func (r *run) calendarFallback(ctx context.Context, crawl *crawling.Result) (*types.Dates, *types.ScrapedPage) {
	if r.opts.Calendar == nil {
		return nil, nil
	}
	target := calendarTarget(crawl)
	if target == nil {
		return nil, nil
	}
	r.emit(StepCalendar, fmt.Sprintf("walking calendar at %s", target.URL), nil)

	cal, err := r.opts.Calendar.Run(ctx, target.URL)
	if err != nil {
		r.logger.Warn("calendar fallback failed", zap.String("url", target.URL), zap.Error(err))
		return nil, nil
	}
	if cal.Dates.IsEmpty() {
		return nil, nil
	}

	// pages are immutable; the calendar instances go on a copy that replaces the original
	withInstances := *target
	withInstances.RawInstances = cal.Instances
	for i, p := range r.result.Pages {
		if p == target {
			r.result.Pages[i] = &withInstances
		}
	}
	return cal.Dates, &withInstances
}
