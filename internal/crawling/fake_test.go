package crawling

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonathan/venue-scout/internal/extraction"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
)

// fakeSite serves canned HTML through the Browser capability.
type fakeSite struct {
	mu        sync.Mutex
	pages     map[string]string
	status    map[string]int
	failures  map[string]int
	launchErr error
	launches  int
	closes    int
	fetched   []string
}

func newFakeSite(pages map[string]string) *fakeSite {
	return &fakeSite{pages: pages, status: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeSite) Launch(_ context.Context, _ fetch.LaunchOptions) (fetch.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.launches++
	return &fakeSession{site: f}, nil
}

func (f *fakeSite) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == url {
			n++
		}
	}
	return n
}

type fakeSession struct {
	site *fakeSite
}

func (s *fakeSession) Fetch(_ context.Context, url string, _ fetch.FetchOptions) (*fetch.Page, error) {
	f := s.site
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	if f.failures[url] > 0 {
		f.failures[url]--
		return nil, errors.New("navigation timeout")
	}
	if code, ok := f.status[url]; ok {
		return &fetch.Page{FinalURL: url, StatusCode: code}, nil
	}
	html, ok := f.pages[url]
	if !ok {
		return &fetch.Page{FinalURL: url, StatusCode: 404}, nil
	}
	page := fetch.BuildPage(url, html)
	page.StatusCode = 200
	return page, nil
}

func (s *fakeSession) Interact(context.Context, string) (bool, error) { return false, nil }
func (s *fakeSession) PressKey(context.Context, string) error         { return nil }
func (s *fakeSession) Snapshot(context.Context) (*fetch.Page, error)  { return &fetch.Page{}, nil }
func (s *fakeSession) OnResponse(*regexp.Regexp) <-chan fetch.Response {
	ch := make(chan fetch.Response)
	close(ch)
	return ch
}

func (s *fakeSession) Close() error {
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	s.site.closes++
	return nil
}

var testRef = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func testExtractor() *extraction.Engine {
	return extraction.NewEngine(
		extraction.WithMetrics(metrics.New(prometheus.NewRegistry())),
		extraction.WithReferenceTime(func() time.Time { return testRef }),
	)
}

func testEngine(site *fakeSite, mutate func(*Options)) *Engine {
	opts := DefaultOptions()
	opts.Sitemap.Enabled = false
	opts.Metrics = metrics.New(prometheus.NewRegistry())
	if mutate != nil {
		mutate(&opts)
	}
	e := NewEngine(site, testExtractor(), opts)
	e.sleep = func(context.Context, time.Duration) error { return nil }
	return e
}
