package calendar

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/extraction"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
	"github.com/jonathan/venue-scout/internal/vocab"
)

// Driver defaults.
const (
	DefaultMaxMonths       = 12
	DefaultMaxAttempts     = 30
	DefaultMinInteractions = 10
	DefaultMinMonths       = 3
	DefaultRetries         = 3
	DefaultRetryBackoff    = time.Second
	DefaultRenderWait      = 800 * time.Millisecond

	// staleLimit is how many unchanged snapshots in a row end the walk once the minimum
	// interaction count is met.
	staleLimit = 3
)

const (
	kindClick    = "click"
	kindKeypress = "keypress"
	kindAPI      = "api"
)

var monthHeadingRe = regexp.MustCompile(`(?i)\b(` + timefmt.MonthPattern + `)\s+(\d{4})\b`)

// Extractor gathers raw instances from one snapshot. *extraction.Engine satisfies it.
type Extractor interface {
	RawInstances(ctx context.Context, page *types.ScrapedPage) []types.RawTimeInstance
}

// Options configures a Driver.
type Options struct {
	MaxMonths       int
	MaxAttempts     int
	MinInteractions int
	MinMonths       int
	Retries         int
	RetryBackoff    time.Duration
	// RenderWait is the pause after each interaction before re-snapshotting
	RenderWait time.Duration
	Fetch      fetch.FetchOptions
	// APIPattern selects which JSON responses are intercepted
	APIPattern    *regexp.Regexp
	NextSelectors []string
	Profiles      func() fetch.Profile
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// DefaultOptions returns the driver limits.
func DefaultOptions() Options {
	return Options{
		MaxMonths:       DefaultMaxMonths,
		MaxAttempts:     DefaultMaxAttempts,
		MinInteractions: DefaultMinInteractions,
		MinMonths:       DefaultMinMonths,
		Retries:         DefaultRetries,
		RetryBackoff:    DefaultRetryBackoff,
		RenderWait:      DefaultRenderWait,
	}
}

// Result is what one calendar walk gathered.
type Result struct {
	Instances    []types.RawTimeInstance
	Dates        *types.Dates
	Months       int
	Interactions int
	APIPayloads  int
}

// Driver walks a dynamic calendar in an exclusive browser session.
type Driver struct {
	browser   fetch.Browser
	extractor Extractor
	opts      Options
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewDriver creates a driver. Zero limits take their defaults; MinInteractions and
// RenderWait may be zero.
func NewDriver(browser fetch.Browser, extractor Extractor, opts Options) *Driver {
	def := DefaultOptions()
	if opts.MaxMonths <= 0 {
		opts.MaxMonths = def.MaxMonths
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.MinInteractions < 0 {
		opts.MinInteractions = 0
	}
	if opts.MinMonths <= 0 {
		opts.MinMonths = def.MinMonths
	}
	if opts.Retries <= 0 {
		opts.Retries = def.Retries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.RenderWait < 0 {
		opts.RenderWait = 0
	}
	if opts.Fetch.Timeout <= 0 {
		opts.Fetch.Timeout = fetch.DefaultNavigationTimeout
	}
	if opts.APIPattern == nil {
		opts.APIPattern = APIPattern()
	}
	if opts.NextSelectors == nil {
		opts.NextSelectors = vocab.MustGet("calendar", "next_selectors")
	}
	if opts.Profiles == nil {
		opts.Profiles = fetch.RandomProfile
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Metrics = metrics.OrDefault(opts.Metrics)
	return &Driver{browser: browser, extractor: extractor, opts: opts, sleep: sleepContext}
}

// Run drives the calendar at pageURL, retrying the whole walk with exponential backoff when
// the session fails. Finding no dates is not an error.
func (d *Driver) Run(ctx context.Context, pageURL string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < d.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := d.sleep(ctx, d.opts.RetryBackoff<<(attempt-1)); err != nil {
				break
			}
		}
		res, err := d.runOnce(ctx, pageURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		d.opts.Logger.Warn("calendar walk failed",
			zap.String("url", pageURL), zap.Int("attempt", attempt+1), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &Error{URL: pageURL, Message: "calendar walk abandoned", Cause: lastErr}
}

func (d *Driver) runOnce(ctx context.Context, pageURL string) (*Result, error) {
	profile := d.opts.Profiles()
	sess, err := d.browser.Launch(ctx, fetch.LaunchOptions{UserAgent: profile.UserAgent, Viewport: profile.Viewport})
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "launch failed", Cause: err}
	}
	defer func() { _ = sess.Close() }()

	w := &walk{
		driver:    d,
		sess:      sess,
		url:       pageURL,
		responses: sess.OnResponse(d.opts.APIPattern),
		months:    make(map[string]bool),
	}

	page, err := sess.Fetch(ctx, pageURL, d.opts.Fetch)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "navigation failed", Cause: err}
	}
	w.absorb(ctx, page)
	w.drain()

	w.step(ctx)
	w.drain()

	res := &Result{
		Instances:    extraction.Dedupe(w.instances),
		Months:       len(w.months),
		Interactions: w.interactions,
		APIPayloads:  w.payloads,
	}
	res.Dates = extraction.Classify(res.Instances)
	d.opts.Logger.Info("calendar walk finished",
		zap.String("url", pageURL),
		zap.Int("months", res.Months),
		zap.Int("interactions", res.Interactions),
		zap.Int("api_payloads", res.APIPayloads),
		zap.Int("instances", len(res.Instances)))
	return res, nil
}

// walk is the mutable state of one session's traversal.
type walk struct {
	driver    *Driver
	sess      fetch.Session
	url       string
	responses <-chan fetch.Response

	instances    []types.RawTimeInstance
	months       map[string]bool
	lastText     string
	stale        int
	interactions int
	payloads     int
	// preferred is the selector that last advanced the widget
	preferred string
}

func (w *walk) step(ctx context.Context) {
	opts := w.driver.opts
	for attempts := 0; attempts < opts.MaxAttempts && len(w.months) < opts.MaxMonths; attempts++ {
		if ctx.Err() != nil {
			return
		}
		kind, err := w.advance(ctx)
		if err != nil {
			opts.Logger.Debug("calendar interaction failed", zap.String("url", w.url), zap.Error(err))
			if ctx.Err() != nil {
				return
			}
			continue
		}
		w.interactions++
		opts.Metrics.CalendarInteractions.WithLabelValues(kind).Inc()

		if opts.RenderWait > 0 {
			if err := w.driver.sleep(ctx, opts.RenderWait); err != nil {
				return
			}
		}
		page, err := w.sess.Snapshot(ctx)
		if err != nil {
			opts.Logger.Debug("calendar snapshot failed", zap.String("url", w.url), zap.Error(err))
			continue
		}
		w.absorb(ctx, page)
		w.drain()

		if w.stale >= staleLimit && (w.interactions >= opts.MinInteractions || len(w.months) >= opts.MinMonths) {
			return
		}
	}
}

// advance clicks the first next-control that matches, trying the last one that worked
// first, and falls back to a page-down key press.
func (w *walk) advance(ctx context.Context) (string, error) {
	selectors := w.driver.opts.NextSelectors
	if w.preferred != "" {
		selectors = append([]string{w.preferred}, selectors...)
	}
	for _, sel := range selectors {
		ok, err := w.sess.Interact(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			continue
		}
		if ok {
			w.preferred = sel
			return kindClick, nil
		}
	}
	if err := w.sess.PressKey(ctx, fetch.KeyPageDown); err != nil {
		return "", err
	}
	return kindKeypress, nil
}

func (w *walk) absorb(ctx context.Context, page *fetch.Page) {
	if page.VisibleText == w.lastText {
		w.stale++
	} else {
		w.stale = 0
		w.lastText = page.VisibleText
	}

	if m := monthHeadingRe.FindStringSubmatch(page.VisibleText); m != nil {
		if month, ok := timefmt.ParseMonth(m[1]); ok {
			w.months[m[2]+"-"+month.String()] = true
		}
	}

	snap := &types.ScrapedPage{
		URL:           fetch.MustNormalize(w.url),
		Title:         fetch.Title(page.RenderedHTML),
		RawText:       page.VisibleText,
		HTML:          page.RenderedHTML,
		JSONLDScripts: page.JSONLDScripts,
	}
	w.instances = append(w.instances, w.driver.extractor.RawInstances(ctx, snap)...)
}

// drain consumes every intercepted response queued so far without blocking.
func (w *walk) drain() {
	for w.responses != nil {
		select {
		case r, ok := <-w.responses:
			if !ok {
				w.responses = nil
				return
			}
			if !strings.Contains(strings.ToLower(r.MIMEType), "json") {
				continue
			}
			insts := ParseAPIPayload(r.Body)
			if len(insts) == 0 {
				continue
			}
			w.payloads++
			w.driver.opts.Metrics.CalendarInteractions.WithLabelValues(kindAPI).Inc()
			w.instances = append(w.instances, insts...)
		default:
			return
		}
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
