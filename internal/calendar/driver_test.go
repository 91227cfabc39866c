package calendar

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/types"
)

const nextSelector = ".fc-next-button"

// fakeCalendar is a browser whose single page advances one state per click.
type fakeCalendar struct {
	mu sync.Mutex

	states   []string
	selector string
	// responses pushed after navigation, and after the click that reaches a state
	onFetch []fetch.Response
	onState map[int][]fetch.Response

	launchFailures int
	fetchErr       error

	launches int
	closes   int
	clicks   int
	keys     int
}

func (f *fakeCalendar) Launch(ctx context.Context, _ fetch.LaunchOptions) (fetch.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.launchFailures > 0 {
		f.launchFailures--
		return nil, errors.New("chrome did not start")
	}
	return &fakeSession{site: f, ch: make(chan fetch.Response, 64)}, nil
}

type fakeSession struct {
	site   *fakeCalendar
	state  int
	ch     chan fetch.Response
	closed bool
}

func (s *fakeSession) page() *fetch.Page {
	return fetch.BuildPage("https://mill.org/calendar", s.site.states[s.state])
}

func (s *fakeSession) push(rs []fetch.Response) {
	for _, r := range rs {
		s.ch <- r
	}
}

func (s *fakeSession) Fetch(_ context.Context, _ string, _ fetch.FetchOptions) (*fetch.Page, error) {
	if s.site.fetchErr != nil {
		return nil, s.site.fetchErr
	}
	s.push(s.site.onFetch)
	return s.page(), nil
}

func (s *fakeSession) Interact(_ context.Context, selector string) (bool, error) {
	if s.site.selector == "" || selector != s.site.selector {
		return false, nil
	}
	s.site.mu.Lock()
	s.site.clicks++
	s.site.mu.Unlock()
	if s.state < len(s.site.states)-1 {
		s.state++
		s.push(s.site.onState[s.state])
	}
	return true, nil
}

func (s *fakeSession) PressKey(_ context.Context, key string) error {
	if key != fetch.KeyPageDown {
		return fmt.Errorf("unexpected key %q", key)
	}
	s.site.mu.Lock()
	s.site.keys++
	s.site.mu.Unlock()
	return nil
}

func (s *fakeSession) Snapshot(context.Context) (*fetch.Page, error) {
	return s.page(), nil
}

func (s *fakeSession) OnResponse(*regexp.Regexp) <-chan fetch.Response {
	return s.ch
}

func (s *fakeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	s.site.mu.Lock()
	s.site.closes++
	s.site.mu.Unlock()
	return nil
}

var instanceRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2})-(\d{2}:\d{2})`)

// lineExtractor reads "YYYY-MM-DD HH:MM-HH:MM" lines.
type lineExtractor struct{}

func (lineExtractor) RawInstances(_ context.Context, page *types.ScrapedPage) []types.RawTimeInstance {
	var out []types.RawTimeInstance
	for _, m := range instanceRe.FindAllStringSubmatch(page.RawText, -1) {
		out = append(out, types.RawTimeInstance{Date: m[1], StartTime: m[2], EndTime: m[3]})
	}
	return out
}

func monthStates(n int, withHeading bool) []string {
	var states []string
	for i := range n {
		month := time.Date(2025, time.March+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		heading := ""
		if withHeading {
			heading = "<h2>" + month.Format("January 2006") + "</h2>"
		}
		states = append(states, fmt.Sprintf(`<html><body>%s<p>Tour %s 10:00-12:00</p></body></html>`,
			heading, month.AddDate(0, 0, 7).Format(time.DateOnly)))
	}
	return states
}

func testDriver(site *fakeCalendar, mutate func(*Options)) (*Driver, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	opts := DefaultOptions()
	opts.RenderWait = 0
	opts.NextSelectors = []string{".calendar-next", nextSelector}
	opts.Metrics = m
	if mutate != nil {
		mutate(&opts)
	}
	d := NewDriver(site, lineExtractor{}, opts)
	d.sleep = func(context.Context, time.Duration) error { return nil }
	return d, m
}

func TestDriver_StopsAtMaxMonths(t *testing.T) {
	site := &fakeCalendar{states: monthStates(14, true), selector: nextSelector}
	d, m := testDriver(site, nil)

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxMonths, res.Months)
	assert.Equal(t, DefaultMaxMonths-1, res.Interactions)
	assert.Equal(t, DefaultMaxMonths-1, site.clicks)
	assert.Zero(t, site.keys)
	assert.Len(t, res.Instances, DefaultMaxMonths)
	require.NotNil(t, res.Dates)
	require.NotNil(t, res.Dates.Events)
	assert.Len(t, res.Dates.Events.Instances, DefaultMaxMonths)
	assert.Equal(t, float64(DefaultMaxMonths-1), testutil.ToFloat64(m.CalendarInteractions.WithLabelValues("click")))
	assert.Equal(t, 1, site.launches)
	assert.Equal(t, 1, site.closes)
}

func TestDriver_KeypressFallbackAndMinimumInteractions(t *testing.T) {
	site := &fakeCalendar{states: monthStates(1, true)}
	d, m := testDriver(site, nil)

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.NoError(t, err)

	// the page never changes, but the walk keeps going until the minimum interaction count
	assert.Equal(t, DefaultMinInteractions, site.keys)
	assert.Equal(t, DefaultMinInteractions, res.Interactions)
	assert.Equal(t, 1, res.Months)
	assert.Len(t, res.Instances, 1)
	assert.Equal(t, float64(DefaultMinInteractions), testutil.ToFloat64(m.CalendarInteractions.WithLabelValues("keypress")))
	assert.Equal(t, 1, site.closes)
}

func TestDriver_StaleStopsOnceMonthsSeen(t *testing.T) {
	site := &fakeCalendar{states: monthStates(3, true), selector: nextSelector}
	d, _ := testDriver(site, nil)

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.NoError(t, err)

	// two clicks reach the last month, three more stale snapshots end the walk
	assert.Equal(t, 3, res.Months)
	assert.Equal(t, 5, res.Interactions)
}

func TestDriver_MaxAttempts(t *testing.T) {
	site := &fakeCalendar{states: monthStates(40, false), selector: nextSelector}
	d, _ := testDriver(site, func(o *Options) { o.MaxAttempts = 5 })

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Interactions)
	assert.Zero(t, res.Months)
	assert.Len(t, res.Instances, 6)
}

func TestDriver_InterceptsAPIResponses(t *testing.T) {
	payload := func(date string) []byte {
		return []byte(fmt.Sprintf(`{"events":[{"start":"%sT14:00:00","end":"%sT15:30:00","title":"Talk"}]}`, date, date))
	}
	site := &fakeCalendar{
		states:   monthStates(2, true),
		selector: nextSelector,
		onFetch: []fetch.Response{
			{URL: "https://mill.org/api/events?m=3", MIMEType: "application/json", Body: payload("2025-03-20")},
			{URL: "https://mill.org/api/banner", MIMEType: "text/html", Body: []byte(`{"start":"2025-03-01"}`)},
		},
		onState: map[int][]fetch.Response{
			1: {{URL: "https://mill.org/api/events?m=4", MIMEType: "application/json; charset=utf-8", Body: payload("2025-04-17")}},
		},
	}
	d, m := testDriver(site, func(o *Options) { o.MaxMonths = 2 })

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.NoError(t, err)

	assert.Equal(t, 2, res.APIPayloads)
	assert.Contains(t, res.Instances, types.RawTimeInstance{Date: "2025-03-20", StartTime: "14:00", EndTime: "15:30", Note: "Talk"})
	assert.Contains(t, res.Instances, types.RawTimeInstance{Date: "2025-04-17", StartTime: "14:00", EndTime: "15:30", Note: "Talk"})
	assert.NotContains(t, res.Instances, types.RawTimeInstance{Date: "2025-03-01"})
	assert.Len(t, res.Instances, 4)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CalendarInteractions.WithLabelValues("api")))
}

func TestDriver_RetriesLaunchWithBackoff(t *testing.T) {
	site := &fakeCalendar{states: monthStates(1, true), launchFailures: 2}
	d, _ := testDriver(site, func(o *Options) { o.RetryBackoff = time.Second })
	var waits []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) error {
		waits = append(waits, dur)
		return nil
	}

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 3, site.launches)
	assert.Equal(t, 1, site.closes)
	assert.Equal(t, time.Second, waits[0])
	assert.Equal(t, 2*time.Second, waits[1])
}

func TestDriver_GivesUpAfterRetries(t *testing.T) {
	site := &fakeCalendar{states: monthStates(1, true), launchFailures: 10}
	d, _ := testDriver(site, nil)

	res, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.Error(t, err)
	assert.Nil(t, res)

	var calErr *Error
	require.ErrorAs(t, err, &calErr)
	assert.Equal(t, DefaultRetries, site.launches)
	assert.Contains(t, err.Error(), "chrome did not start")
}

func TestDriver_ClosesSessionOnNavigationFailure(t *testing.T) {
	site := &fakeCalendar{states: monthStates(1, true), fetchErr: errors.New("net::ERR_TIMED_OUT")}
	d, _ := testDriver(site, nil)

	_, err := d.Run(context.Background(), "https://mill.org/calendar")
	require.Error(t, err)
	assert.Equal(t, DefaultRetries, site.launches)
	assert.Equal(t, DefaultRetries, site.closes)
}

func TestDriver_CancelledContext(t *testing.T) {
	site := &fakeCalendar{states: monthStates(1, true)}
	d, _ := testDriver(site, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, "https://mill.org/calendar")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, site.launches)
}
