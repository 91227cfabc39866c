package main

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/cache"
	"github.com/jonathan/venue-scout/internal/calendar"
	"github.com/jonathan/venue-scout/internal/config"
	"github.com/jonathan/venue-scout/internal/crawling"
	"github.com/jonathan/venue-scout/internal/extraction"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/nlparse"
	"github.com/jonathan/venue-scout/internal/observability"
	"github.com/jonathan/venue-scout/internal/pipeline"
	"github.com/jonathan/venue-scout/internal/research"
)

// components holds the wired pipeline and the resources that must be released after a run.
type components struct {
	pipeline *pipeline.Pipeline
	browser  *fetch.ChromeBrowser
	redis    *redis.Client
}

func (c *components) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

// validityCache returns the bounded in-memory cache, layered over Redis when an address is
// configured.
func validityCache(cfg *config.Config, logger *zap.Logger) (cache.ValidityCache, *redis.Client) {
	mem := cache.NewMemory(cfg.CacheCapacity)
	if cfg.RedisAddr == "" {
		return mem, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return cache.Layered{mem, cache.NewRedis(client, cache.DefaultKeyPrefix, cfg.RedisTTL, logger)}, client
}

func newExtractor(logger *zap.Logger, m *metrics.Metrics, opts ...extraction.Option) *extraction.Engine {
	base := []extraction.Option{
		extraction.WithParser(nlparse.NewWhenParser()),
		extraction.WithLogger(logger),
		extraction.WithMetrics(m),
	}
	return extraction.NewEngine(append(base, opts...)...)
}

func crawlOptions(cfg *config.Config, vc cache.ValidityCache, logger *zap.Logger, m *metrics.Metrics) crawling.Options {
	opts := crawling.DefaultOptions()
	opts.SoftLimit = cfg.SoftLimit
	opts.HardLimit = cfg.HardLimit
	opts.MaxPages = cfg.MaxPages
	opts.MaxDepth = cfg.MaxDepth
	opts.HoursSubCrawl = cfg.HoursSubCrawl
	opts.MiniCrawl = cfg.MiniCrawl
	opts.NavigationTimeout = cfg.NavigationTimeout
	opts.Sitemap = crawling.SitemapOptions{
		Enabled:  cfg.SitemapEnabled,
		MaxURLs:  cfg.SitemapMaxURLs,
		MaxDepth: cfg.SitemapMaxDepth,
		PreScore: cfg.SitemapPreScore,
		Timeout:  cfg.SitemapTimeout,
		Cache:    vc,
		Logger:   logger,
	}
	opts.Logger = logger
	opts.Metrics = m
	return opts
}

func calendarOptions(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) calendar.Options {
	opts := calendar.DefaultOptions()
	opts.MaxMonths = cfg.CalendarMonths
	opts.MaxAttempts = cfg.CalendarAttempts
	opts.MinInteractions = cfg.CalendarMinInteractions
	opts.Retries = cfg.CalendarRetries
	opts.Fetch = fetch.FetchOptions{
		Timeout:              cfg.NavigationTimeout,
		BlockedResourceTypes: fetch.DefaultBlockedResourceTypes(),
		RenderWait:           fetch.DefaultRenderWait,
	}
	opts.Logger = logger
	opts.Metrics = m
	return opts
}

// buildComponents wires the full resolution pipeline. Console summaries go to out.
func buildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, out io.Writer) (*components, error) {
	vc, redisClient := validityCache(cfg, logger)

	var searcher research.Searcher
	if cfg.HasSearch() {
		gs, err := research.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, err
		}
		searcher = gs
	} else {
		logger.Info("no search credentials configured, using known links only")
	}

	verifier := research.NewVerifier(research.VerifierOptions{
		HeadTimeout: cfg.HeadTimeout,
		GetTimeout:  cfg.GetTimeout,
		Cache:       vc,
		Logger:      logger,
		Metrics:     m,
	})
	resolver := research.NewResolver(searcher, verifier, cfg.VerifyWorkers, logger)

	extractor := newExtractor(logger, m)
	browser := fetch.NewChromeBrowser(ctx, fetch.ChromeConfig{
		ExecPath: cfg.ChromePath,
		Headless: cfg.Headless,
		Logger:   logger,
	})

	p := pipeline.New(pipeline.Options{
		Resolver:  resolver,
		Crawler:   crawling.NewEngine(browser, extractor, crawlOptions(cfg, vc, logger, m)),
		Extractor: extractor,
		Calendar:  calendar.NewDriver(browser, extractor, calendarOptions(cfg, logger, m)),
		Printer:   observability.NewPrinter(out),
		Logger:    logger,
	})
	return &components{pipeline: p, browser: browser, redis: redisClient}, nil
}
