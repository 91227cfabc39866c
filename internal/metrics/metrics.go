// Package metrics holds the Prometheus instruments for crawl, verification and extraction.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the resolver.
type Metrics struct {
	PagesFetched         *prometheus.CounterVec // outcome: ok, failed, retried
	Verifications        *prometheus.CounterVec // result: accepted, rejected
	BudgetRefusals       *prometheus.CounterVec // level: soft, hard
	ExtractionOutcomes   *prometheus.CounterVec // strategy: jsonld, nl, regex, grid, classified, none
	CalendarInteractions *prometheus.CounterVec // kind: click, keypress, api
	FetchDuration        prometheus.Histogram
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// New registers a fresh set of metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_scout_pages_fetched_total",
			Help: "Page fetch attempts by outcome.",
		}, []string{"outcome"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_scout_verifications_total",
			Help: "Official-URL candidate verifications by result.",
		}, []string{"result"}),
		BudgetRefusals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_scout_budget_refusals_total",
			Help: "URLs refused admission by the crawl budget.",
		}, []string{"level"}),
		ExtractionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_scout_extraction_outcomes_total",
			Help: "Which extraction strategy produced the final dates.",
		}, []string{"strategy"}),
		CalendarInteractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_scout_calendar_interactions_total",
			Help: "Dynamic calendar interactions and intercepted API payloads.",
		}, []string{"kind"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "venue_scout_fetch_duration_seconds",
			Help:    "Duration of browser page fetches.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30},
		}),
	}
}

// Default returns the process-wide metrics registered with the default registerer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// OrDefault returns m, or Default when m is nil.
func OrDefault(m *Metrics) *Metrics {
	if m == nil {
		return Default()
	}
	return m
}
