package research

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/cache"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/vocab"
)

// MinBodyBytes is the smallest page body that can pass verification.
const MinBodyBytes = 5 * 1024

// MaxVerifyBytes caps the verification GET.
const MaxVerifyBytes = 512 * 1024

// RequiredSignals is how many of the four verification signals must hold.
const RequiredSignals = 3

// VerifierOptions configures a Verifier.
type VerifierOptions struct {
	HeadTimeout time.Duration
	GetTimeout  time.Duration
	UserAgent   string
	Client      *http.Client
	Cache       cache.ValidityCache
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Verifier decides whether a page is the official page of an entity.
type Verifier struct {
	opts    VerifierOptions
	signals *regexp.Regexp
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewVerifier creates a Verifier.
func NewVerifier(opts VerifierOptions) *Verifier {
	if opts.HeadTimeout <= 0 {
		opts.HeadTimeout = fetch.DefaultHeadTimeout
	}
	if opts.GetTimeout <= 0 {
		opts.GetTimeout = fetch.DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = fetch.DefaultUserAgent
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory(cache.DefaultCapacity)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		opts:    opts,
		signals: wordAlternation(vocab.MustGet("domains", "official_signals")),
		logger:  logger,
		metrics: metrics.OrDefault(opts.Metrics),
	}
}

func wordAlternation(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

// Verify fetches the page and checks it. Any failure is a rejection, never an error.
func (v *Verifier) Verify(ctx context.Context, rawURL, entityName string, descriptionTokens []string) bool {
	ok := v.verify(ctx, rawURL, entityName, descriptionTokens)
	result := "rejected"
	if ok {
		result = "accepted"
	}
	v.metrics.Verifications.WithLabelValues(result).Inc()
	return ok
}

func (v *Verifier) verify(ctx context.Context, rawURL, entityName string, descriptionTokens []string) bool {
	log := v.logger.With(zap.String("url", rawURL))

	if !ProbeHTML(ctx, rawURL, v.opts.Cache, &fetch.Options{
		Timeout:   v.opts.HeadTimeout,
		UserAgent: v.opts.UserAgent,
		Client:    v.opts.Client,
	}) {
		log.Debug("verification rejected: HEAD probe")
		return false
	}

	res, err := fetch.URL(ctx, rawURL, &fetch.Options{
		Timeout:   v.opts.GetTimeout,
		UserAgent: v.opts.UserAgent,
		MaxBytes:  MaxVerifyBytes,
		Client:    v.opts.Client,
	})
	if err != nil {
		log.Debug("verification rejected: GET failed", zap.Error(err))
		return false
	}
	if !fetch.IsHTML(res.ContentType) {
		log.Debug("verification rejected: not HTML", zap.String("content_type", res.ContentType))
		return false
	}
	if len(res.HTML) < MinBodyBytes {
		log.Debug("verification rejected: body too small", zap.Int("bytes", len(res.HTML)))
		return false
	}

	text, err := fetch.ExtractMainText(res.HTML, nil)
	if err != nil {
		log.Debug("verification rejected: unparseable HTML", zap.Error(err))
		return false
	}
	folded := FoldName(fetch.Title(res.HTML) + " " + text)
	lowerHTML := strings.ToLower(res.HTML)

	signals := 0
	if nameTokensPresent(folded, entityName) {
		signals++
	}
	if descriptionOverlap(folded, descriptionTokens) {
		signals++
	}
	if v.signals.MatchString(lowerHTML) {
		signals++
	}
	final := res.FinalURL
	if final == "" {
		final = rawURL
	}
	if !IsAggregator(rawURL) && !IsAggregator(final) {
		signals++
	}

	if host := fetch.Host(final); !HostMatchesName(host, entityName) {
		// tolerated: name, description and signal evidence can outweigh the hostname
		log.Info("hostname does not contain entity name",
			zap.String("host", host), zap.String("entity", CompactName(entityName)))
	}

	log.Debug("verification signals", zap.Int("signals", signals))
	return signals >= RequiredSignals
}

// nameTokensPresent requires at least half of the name tokens as whole words.
func nameTokensPresent(folded, name string) bool {
	tokens := NameTokens(name)
	if len(tokens) == 0 {
		return false
	}
	words := wordSet(folded)
	hits := 0
	for _, t := range tokens {
		if words[t] {
			hits++
		}
	}
	return hits*2 >= len(tokens)
}

func descriptionOverlap(folded string, tokens []string) bool {
	words := wordSet(folded)
	for _, t := range tokens {
		if words[t] {
			return true
		}
	}
	return false
}

func wordSet(folded string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(folded) {
		set[w] = true
	}
	return set
}

// ProbeHTML issues a HEAD request and reports whether the URL serves HTML, caching the
// verdict. Servers that refuse HEAD are given the benefit of the doubt.
func ProbeHTML(ctx context.Context, rawURL string, c cache.ValidityCache, opts *fetch.Options) bool {
	key := fetch.MustNormalize(rawURL)
	if c != nil {
		if valid, found := c.Get(ctx, key); found {
			return valid
		}
	}

	var valid bool
	res, err := fetch.Head(ctx, rawURL, opts)
	switch {
	case err != nil:
		// transient: not cached so a later probe can retry
		return false
	case res.StatusCode == http.StatusMethodNotAllowed || res.StatusCode == http.StatusNotImplemented:
		valid = true
	case res.StatusCode >= 400:
		valid = false
	default:
		valid = res.ContentType == "" || fetch.IsHTML(res.ContentType)
	}

	if c != nil {
		c.Put(ctx, key, valid)
	}
	return valid
}
