package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// DefaultNavigationTimeout bounds a single rendered page load.
const DefaultNavigationTimeout = 15 * time.Second

// DefaultRenderWait is how long a page is given to run scripts after the body is ready.
const DefaultRenderWait = 1500 * time.Millisecond

// KeyPageDown is the key name accepted by Session.PressKey for scrolling one screen.
const KeyPageDown = kb.PageDown

// responseBuffer is the capacity of each OnResponse channel. Responses arriving while the
// buffer is full are dropped.
const responseBuffer = 64

// DefaultBlockedResourceTypes lists resource types that never carry venue data.
func DefaultBlockedResourceTypes() []string {
	return []string{"image", "font", "media"}
}

// LaunchOptions configures a browser session.
type LaunchOptions struct {
	UserAgent string
	Viewport  Viewport
}

// FetchOptions configures one navigation.
type FetchOptions struct {
	Timeout              time.Duration
	BlockedResourceTypes []string
	RenderWait           time.Duration
}

// Page is the rendered state of a browser tab.
type Page struct {
	FinalURL      string
	StatusCode    int
	RenderedHTML  string
	VisibleText   string
	OutboundLinks []Link
	JSONLDScripts []string
}

// Response is an intercepted network response body.
type Response struct {
	URL      string
	Status   int
	MIMEType string
	Body     []byte
}

// Browser launches isolated sessions.
type Browser interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one exclusive browser tab. Callers must Close it on every path.
type Session interface {
	// Fetch navigates to url and returns the rendered page.
	Fetch(ctx context.Context, url string, opts FetchOptions) (*Page, error)
	// Interact clicks the first visible element matching selector. It reports false when
	// nothing matched.
	Interact(ctx context.Context, selector string) (bool, error)
	// PressKey dispatches a key press to the focused document.
	PressKey(ctx context.Context, key string) error
	// Snapshot returns the current rendered page without navigating.
	Snapshot(ctx context.Context) (*Page, error)
	// OnResponse subscribes to JSON responses whose URL matches pattern. The channel is
	// closed when the session closes.
	OnResponse(pattern *regexp.Regexp) <-chan Response
	Close() error
}

// BuildPage derives links, JSON-LD, and visible text from rendered HTML.
func BuildPage(pageURL, html string) *Page {
	page := &Page{
		FinalURL:     pageURL,
		RenderedHTML: html,
		VisibleText:  VisibleText(html),
	}
	if links, err := ExtractAnchors(html, pageURL); err == nil {
		page.OutboundLinks = links
	}
	if scripts, err := ExtractJSONLD(html); err == nil {
		page.JSONLDScripts = scripts
	}
	return page
}

// BrowserError represents a failure in the browser session.
type BrowserError struct {
	Message string
	Cause   error
}

func (e *BrowserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser error: %s", e.Message)
}

func (e *BrowserError) Unwrap() error {
	return e.Cause
}

// ChromeConfig configures the chromedp allocator.
type ChromeConfig struct {
	ExecPath string
	Headless bool
	Logger   *zap.Logger
}

// ChromeBrowser launches sessions on a shared Chrome allocator. Each session gets its own
// browser process and profile.
type ChromeBrowser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

// NewChromeBrowser creates the allocator. No browser process starts until Launch.
func NewChromeBrowser(ctx context.Context, cfg ChromeConfig) *ChromeBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeBrowser{allocCtx: allocCtx, cancel: cancel, logger: logger}
}

// Close shuts down the allocator and every session still attached to it.
func (b *ChromeBrowser) Close() {
	b.cancel()
}

// Launch starts a browser with the given fingerprint.
func (b *ChromeBrowser) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	s := &chromeSession{
		ctx:     tabCtx,
		cancel:  cancel,
		logger:  b.logger,
		pending: make(map[network.RequestID]pendingResponse),
		blocked: make(map[network.ResourceType]bool),
	}
	chromedp.ListenTarget(tabCtx, s.handleEvent)

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	actions := []chromedp.Action{
		network.Enable(),
		emulation.SetUserAgentOverride(ua),
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		actions = append(actions, chromedp.EmulateViewport(opts.Viewport.Width, opts.Viewport.Height))
	}
	// The first Run starts the browser and must use the tab context itself, otherwise a
	// derived timeout would tear the browser down.
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		cancel()
		return nil, &BrowserError{Message: "failed to launch browser", Cause: err}
	}
	return s, nil
}

type subscription struct {
	pattern *regexp.Regexp
	ch      chan Response
}

type pendingResponse struct {
	sub      *subscription
	url      string
	status   int
	mimeType string
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu        sync.Mutex
	closed    bool
	subs      []*subscription
	pending   map[network.RequestID]pendingResponse
	blocked   map[network.ResourceType]bool
	docStatus int
}

func (s *chromeSession) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *cdpfetch.EventRequestPaused:
		s.mu.Lock()
		block := s.blocked[e.ResourceType]
		s.mu.Unlock()
		go s.resolvePaused(e.RequestID, block)

	case *network.EventResponseReceived:
		if e.Response == nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if e.Type == network.ResourceTypeDocument {
			s.docStatus = int(e.Response.Status)
		}
		if !strings.Contains(strings.ToLower(e.Response.MimeType), "json") {
			return
		}
		for _, sub := range s.subs {
			if sub.pattern.MatchString(e.Response.URL) {
				s.pending[e.RequestID] = pendingResponse{
					sub:      sub,
					url:      e.Response.URL,
					status:   int(e.Response.Status),
					mimeType: e.Response.MimeType,
				}
				break
			}
		}

	case *network.EventLoadingFinished:
		s.mu.Lock()
		info, ok := s.pending[e.RequestID]
		delete(s.pending, e.RequestID)
		s.mu.Unlock()
		if ok {
			go s.deliver(e.RequestID, info)
		}
	}
}

// executor returns a context that can issue CDP commands from outside chromedp.Run.
func (s *chromeSession) executor() context.Context {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return s.ctx
	}
	return cdp.WithExecutor(s.ctx, c.Target)
}

func (s *chromeSession) resolvePaused(id cdpfetch.RequestID, block bool) {
	ctx := s.executor()
	var err error
	if block {
		err = cdpfetch.FailRequest(id, network.ErrorReasonBlockedByClient).Do(ctx)
	} else {
		err = cdpfetch.ContinueRequest(id).Do(ctx)
	}
	if err != nil && s.ctx.Err() == nil {
		s.logger.Debug("paused request not resolved", zap.String("request_id", string(id)), zap.Error(err))
	}
}

func (s *chromeSession) deliver(id network.RequestID, info pendingResponse) {
	body, err := network.GetResponseBody(id).Do(s.executor())
	if err != nil {
		s.logger.Debug("intercepted response body unavailable", zap.String("url", info.url), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case info.sub.ch <- Response{URL: info.url, Status: info.status, MIMEType: info.mimeType, Body: body}:
	default:
		s.logger.Debug("response buffer full, dropping", zap.String("url", info.url))
	}
}

func (s *chromeSession) setBlocked(types []string) []*cdpfetch.RequestPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = make(map[network.ResourceType]bool, len(types))
	var patterns []*cdpfetch.RequestPattern
	for _, t := range types {
		rt, ok := resourceTypes[strings.ToLower(t)]
		if !ok {
			continue
		}
		s.blocked[rt] = true
		patterns = append(patterns, &cdpfetch.RequestPattern{
			URLPattern:   "*",
			ResourceType: rt,
			RequestStage: cdpfetch.RequestStageRequest,
		})
	}
	return patterns
}

var resourceTypes = map[string]network.ResourceType{
	"image":      network.ResourceTypeImage,
	"font":       network.ResourceTypeFont,
	"media":      network.ResourceTypeMedia,
	"stylesheet": network.ResourceTypeStylesheet,
	"other":      network.ResourceTypeOther,
}

// bounded derives a per-call context from the tab, cancelled by the caller's ctx too.
func (s *chromeSession) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	callCtx, cancel := withTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) Fetch(ctx context.Context, url string, opts FetchOptions) (*Page, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	wait := opts.RenderWait
	if wait <= 0 {
		wait = DefaultRenderWait
	}

	callCtx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	var actions []chromedp.Action
	if patterns := s.setBlocked(opts.BlockedResourceTypes); len(patterns) > 0 {
		actions = append(actions, cdpfetch.Enable().WithPatterns(patterns))
	}

	s.mu.Lock()
	s.docStatus = 0
	s.mu.Unlock()

	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(wait),
	)
	if err := chromedp.Run(callCtx, actions...); err != nil {
		return nil, &BrowserError{Message: fmt.Sprintf("navigation to %s failed", url), Cause: err}
	}

	page, err := s.snapshot(callCtx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	page.StatusCode = s.docStatus
	s.mu.Unlock()
	return page, nil
}

func (s *chromeSession) Interact(ctx context.Context, selector string) (bool, error) {
	callCtx, cancel := s.bounded(ctx, DefaultNavigationTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(callCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return false, &BrowserError{Message: fmt.Sprintf("query %q failed", selector), Cause: err}
	}
	if len(nodes) == 0 {
		return false, nil
	}
	if err := chromedp.Run(callCtx, chromedp.MouseClickNode(nodes[0])); err != nil {
		return false, &BrowserError{Message: fmt.Sprintf("click %q failed", selector), Cause: err}
	}
	return true, nil
}

func (s *chromeSession) PressKey(ctx context.Context, key string) error {
	callCtx, cancel := s.bounded(ctx, DefaultNavigationTimeout)
	defer cancel()
	if err := chromedp.Run(callCtx, chromedp.KeyEvent(key)); err != nil {
		return &BrowserError{Message: "key press failed", Cause: err}
	}
	return nil
}

func (s *chromeSession) Snapshot(ctx context.Context) (*Page, error) {
	callCtx, cancel := s.bounded(ctx, DefaultNavigationTimeout)
	defer cancel()
	page, err := s.snapshot(callCtx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	page.StatusCode = s.docStatus
	s.mu.Unlock()
	return page, nil
}

func (s *chromeSession) snapshot(ctx context.Context) (*Page, error) {
	var html, location, innerText string
	err := chromedp.Run(ctx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &innerText),
	)
	if err != nil {
		return nil, &BrowserError{Message: "snapshot failed", Cause: err}
	}
	page := BuildPage(location, html)
	if text := strings.TrimSpace(innerText); text != "" {
		page.VisibleText = cleanWhitespace(text)
	}
	return page, nil
}

func (s *chromeSession) OnResponse(pattern *regexp.Regexp) <-chan Response {
	ch := make(chan Response, responseBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, &subscription{pattern: pattern, ch: ch})
	return ch
}

func (s *chromeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
	s.mu.Unlock()

	s.cancel()
	return nil
}
