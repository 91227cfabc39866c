package research

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/types"
)

// DefaultWorkers bounds concurrent verifications.
const DefaultWorkers = 10

// MaxCandidates caps how many ranked candidates are verified.
const MaxCandidates = 20

// URLVerifier checks a single candidate.
type URLVerifier interface {
	Verify(ctx context.Context, rawURL, entityName string, descriptionTokens []string) bool
}

// Resolver picks the official URL for an entity.
type Resolver struct {
	searcher Searcher
	verifier URLVerifier
	workers  int
	logger   *zap.Logger
}

// NewResolver creates a Resolver. searcher may be nil, in which case only the entity's known
// links are considered.
func NewResolver(searcher Searcher, verifier URLVerifier, workers int, logger *zap.Logger) *Resolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{searcher: searcher, verifier: verifier, workers: workers, logger: logger}
}

// Resolve gathers, ranks and verifies candidates. A Resolution without an official URL is a
// normal outcome; the error is only set when ctx is cancelled.
func (r *Resolver) Resolve(ctx context.Context, entity *types.Entity) (*Resolution, error) {
	res := &Resolution{}
	candidates := r.gather(ctx, entity, res)

	tokens := DescriptionTokens(entity.Description)
	verified := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, c := range candidates {
		g.Go(func() error {
			verified[i] = r.verifier.Verify(gctx, c.URL, entity.Name, tokens)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return res, &Error{Message: "resolution cancelled", Cause: err}
	}

	for i, c := range candidates {
		if verified[i] {
			res.Verified = append(res.Verified, c.URL)
		}
	}

	if IsDispersed(entity, res.Verified) {
		res.Dispersed = true
		r.logger.Info("entity is dispersed across cinema chains",
			zap.String("entity", entity.Name), zap.Strings("verified", res.Verified))
		return res, nil
	}
	if len(res.Verified) > 0 {
		res.OfficialURL = res.Verified[0]
	}
	r.logger.Info("official URL resolution finished",
		zap.String("entity", entity.Name),
		zap.String("official_url", res.OfficialURL),
		zap.Int("candidates", len(candidates)),
		zap.Int("verified", len(res.Verified)))
	return res, nil
}

// gather collects search results and known links, drops aggregators, and ranks the rest.
func (r *Resolver) gather(ctx context.Context, entity *types.Entity, res *Resolution) []Candidate {
	var raw []Candidate
	if r.searcher != nil {
		for _, q := range SearchQueries(entity) {
			links, err := r.searcher.Search(ctx, q)
			if err != nil {
				r.logger.Warn("search failed", zap.String("query", q), zap.Error(err))
				continue
			}
			for _, l := range links {
				raw = append(raw, Candidate{URL: l, Source: "search"})
			}
		}
	}
	for _, l := range entity.KnownLinks {
		raw = append(raw, Candidate{URL: l, Source: "known_link"})
	}

	seen := make(map[string]bool)
	var out []Candidate
	for _, c := range raw {
		n, err := fetch.NormalizeURL(c.URL)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedURL{URL: c.URL, Reason: "invalid"})
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		if IsAggregator(n) {
			res.Skipped = append(res.Skipped, SkippedURL{URL: n, Reason: "aggregator"})
			continue
		}
		c.URL = n
		c.Score = ScoreCandidate(n, entity.Name)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	for _, c := range out {
		res.Candidates = append(res.Candidates, types.ScoredCandidate{URL: c.URL, Score: c.Score})
	}
	return out
}
