package crawling

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/cache"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/research"
)

// Sitemap defaults.
const (
	DefaultSitemapMaxURLs   = 200
	DefaultSitemapMaxDepth  = 3
	DefaultSitemapPreScore  = 180
	DefaultSitemapTimeout   = 8 * time.Second
	maxSitemapBytes         = 8 << 20
	maxSitemapsPerDiscovery = 50
)

// SitemapOptions configures sitemap seeding.
type SitemapOptions struct {
	Enabled  bool
	MaxURLs  int
	MaxDepth int
	// PreScore is the minimum path score a URL needs before it is probed
	PreScore  int
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Cache     cache.ValidityCache
	Logger    *zap.Logger
}

func (o SitemapOptions) withDefaults() SitemapOptions {
	if o.MaxURLs <= 0 {
		o.MaxURLs = DefaultSitemapMaxURLs
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultSitemapMaxDepth
	}
	if o.PreScore == 0 {
		o.PreScore = DefaultSitemapPreScore
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultSitemapTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = fetch.DefaultUserAgent
	}
	if o.Cache == nil {
		o.Cache = cache.NewMemory(cache.DefaultCapacity)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// sitemapDoc decodes both <urlset> and <sitemapindex> roots.
type sitemapDoc struct {
	XMLName  xml.Name
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapWalker struct {
	opts    SitemapOptions
	origin  string
	visited map[string]bool
	seen    map[string]bool
	out     []string
}

// DiscoverSitemapURLs reads the site's sitemaps (from robots.txt, then /sitemap.xml),
// following sitemap indexes up to MaxDepth, and returns same-site pages that pass the
// path pre-score and a HEAD probe.
func DiscoverSitemapURLs(ctx context.Context, origin string, opts SitemapOptions) []string {
	opts = opts.withDefaults()
	root, err := fetch.Origin(origin)
	if err != nil {
		return nil
	}
	w := &sitemapWalker{
		opts:    opts,
		origin:  root,
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
	}

	sitemaps := w.robotsSitemaps(ctx)
	sitemaps = append(sitemaps, root+"sitemap.xml")
	for _, s := range sitemaps {
		if ctx.Err() != nil || len(w.out) >= opts.MaxURLs {
			break
		}
		w.walk(ctx, s, 1)
	}

	opts.Logger.Debug("sitemap discovery finished",
		zap.String("origin", root), zap.Int("urls", len(w.out)), zap.Int("sitemaps", len(w.visited)))
	return w.out
}

func (w *sitemapWalker) fetchOptions() *fetch.Options {
	return &fetch.Options{
		Timeout:   w.opts.Timeout,
		UserAgent: w.opts.UserAgent,
		MaxBytes:  maxSitemapBytes,
		Client:    w.opts.Client,
	}
}

func (w *sitemapWalker) robotsSitemaps(ctx context.Context) []string {
	res, err := fetch.URL(ctx, w.origin+"robots.txt", w.fetchOptions())
	if err != nil {
		return nil
	}
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(res.HTML))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 8 && strings.EqualFold(line[:8], "sitemap:") {
			if loc := strings.TrimSpace(line[8:]); loc != "" {
				out = append(out, loc)
			}
		}
	}
	return out
}

func (w *sitemapWalker) walk(ctx context.Context, sitemapURL string, depth int) {
	if depth > w.opts.MaxDepth || w.visited[sitemapURL] || len(w.visited) >= maxSitemapsPerDiscovery {
		return
	}
	w.visited[sitemapURL] = true

	doc, err := w.load(ctx, sitemapURL)
	if err != nil {
		w.opts.Logger.Debug("sitemap skipped", zap.String("url", sitemapURL), zap.Error(err))
		return
	}

	for _, u := range doc.URLs {
		if ctx.Err() != nil || len(w.out) >= w.opts.MaxURLs {
			return
		}
		w.consider(ctx, strings.TrimSpace(u.Loc))
	}
	for _, s := range doc.Sitemaps {
		if ctx.Err() != nil || len(w.out) >= w.opts.MaxURLs {
			return
		}
		w.walk(ctx, strings.TrimSpace(s.Loc), depth+1)
	}
}

func (w *sitemapWalker) load(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	res, err := fetch.URL(ctx, sitemapURL, w.fetchOptions())
	if err != nil {
		return nil, &SitemapError{URL: sitemapURL, Message: "fetch failed", Cause: err}
	}

	var body io.Reader = strings.NewReader(res.HTML)
	if strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") || strings.Contains(res.ContentType, "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, &SitemapError{URL: sitemapURL, Message: "invalid gzip", Cause: err}
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}

	var doc sitemapDoc
	if err := xml.NewDecoder(body).Decode(&doc); err != nil {
		return nil, &SitemapError{URL: sitemapURL, Message: "invalid XML", Cause: err}
	}
	return &doc, nil
}

func (w *sitemapWalker) consider(ctx context.Context, loc string) {
	n, err := fetch.NormalizeURL(loc)
	if err != nil || w.seen[n] || !fetch.SameSite(n, w.origin) {
		return
	}
	w.seen[n] = true
	if research.ScoreURL(n) < w.opts.PreScore {
		return
	}
	headOpts := &fetch.Options{Timeout: w.opts.Timeout, UserAgent: w.opts.UserAgent, Client: w.opts.Client}
	if !research.ProbeHTML(ctx, n, w.opts.Cache, headOpts) {
		return
	}
	w.out = append(w.out, n)
}
