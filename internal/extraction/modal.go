package extraction

import (
	"sort"
	"strings"
	"time"

	"github.com/jonathan/venue-scout/internal/timefmt"
	"github.com/jonathan/venue-scout/internal/types"
)

// Exception noise thresholds. Calendar-grid scraping tends to produce long runs of bogus
// closures, so a list over either threshold is dropped as a whole.
const (
	MaxExceptions  = 40
	MaxClosedRatio = 0.5
)

// NoteClosed marks an instance that records a closure rather than a time range.
const NoteClosed = "closed"

type rangeCount struct {
	open, close string
	n           int
}

// ReduceModal buckets instances by weekday and time range, assigns each weekday its most
// frequent range (ties go to the later close), and keeps disagreeing dates as exceptions.
func ReduceModal(instances []types.RawTimeInstance) *types.WeeklySchedule {
	buckets := make(map[time.Weekday]map[string]*rangeCount)
	byDate := make(map[string][]types.RawTimeInstance)
	weekdayOf := make(map[string]time.Weekday)

	for _, inst := range instances {
		d, err := time.Parse("2006-01-02", inst.Date)
		if err != nil {
			continue
		}
		weekdayOf[inst.Date] = d.Weekday()
		byDate[inst.Date] = append(byDate[inst.Date], inst)
		if inst.StartTime == "" || inst.EndTime == "" {
			continue
		}
		wd := d.Weekday()
		if buckets[wd] == nil {
			buckets[wd] = make(map[string]*rangeCount)
		}
		key := inst.StartTime + "-" + inst.EndTime
		rc, ok := buckets[wd][key]
		if !ok {
			rc = &rangeCount{open: inst.StartTime, close: inst.EndTime}
			buckets[wd][key] = rc
		}
		rc.n++
	}

	ws := types.NewWeeklySchedule()
	for wd, ranges := range buckets {
		best := pickModal(ranges)
		ws.Days[timefmt.WeekdayLabel(wd)] = types.DayHours{Open: best.open, Close: best.close}
	}

	for date, insts := range byDate {
		wd := weekdayOf[date]
		modal, ok := ws.Days[timefmt.WeekdayLabel(wd)]
		if !ok {
			continue
		}
		if exc, deviates := deviation(date, insts, modal); deviates {
			ws.Exceptions = append(ws.Exceptions, exc)
		}
	}

	SanitizeExceptions(ws)
	return ws
}

func pickModal(ranges map[string]*rangeCount) *rangeCount {
	all := make([]*rangeCount, 0, len(ranges))
	for _, rc := range ranges {
		all = append(all, rc)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.n != b.n {
			return a.n > b.n
		}
		if ca, cb := closeMinutes(a), closeMinutes(b); ca != cb {
			return ca > cb
		}
		if a.open != b.open {
			return a.open < b.open
		}
		return a.close < b.close
	})
	return all[0]
}

// closeMinutes places a close at or before the open on the following day, so "10:00-00:00"
// ranks as closing after "10:00-22:00".
func closeMinutes(rc *rangeCount) int {
	c := timefmt.Minutes(rc.close)
	if c >= 0 && c <= timefmt.Minutes(rc.open) {
		c += 24 * 60
	}
	return c
}

// deviation reports the exception for a date whose observations all disagree with the modal range.
func deviation(date string, insts []types.RawTimeInstance, modal types.DayHours) (types.Exception, bool) {
	var first *types.RawTimeInstance
	closed := false
	for i := range insts {
		inst := insts[i]
		if strings.EqualFold(inst.Note, NoteClosed) && inst.StartTime == "" {
			closed = true
			continue
		}
		if inst.StartTime == "" || inst.EndTime == "" {
			continue
		}
		if inst.StartTime == modal.Open && inst.EndTime == modal.Close {
			return types.Exception{}, false
		}
		if first == nil || inst.StartTime < first.StartTime {
			first = &insts[i]
		}
	}
	if first != nil {
		return types.Exception{Date: date, Status: types.StatusOpen, Open: first.StartTime, Close: first.EndTime}, true
	}
	if closed && !modal.Closed {
		return types.Exception{Date: date, Status: types.StatusClosed}, true
	}
	return types.Exception{}, false
}

// SanitizeExceptions drops exceptions that repeat the weekly pattern, keeps one per date,
// and discards the whole list when it is larger than MaxExceptions or mostly closures.
func SanitizeExceptions(ws *types.WeeklySchedule) {
	if ws == nil || len(ws.Exceptions) == 0 {
		return
	}

	seen := make(map[string]bool)
	kept := ws.Exceptions[:0:0]
	for _, exc := range ws.Exceptions {
		if seen[exc.Date] || matchesPattern(ws, exc) {
			continue
		}
		seen[exc.Date] = true
		kept = append(kept, exc)
	}

	closed := 0
	for _, exc := range kept {
		if exc.Status == types.StatusClosed {
			closed++
		}
	}
	if len(kept) > MaxExceptions || (len(kept) > 0 && float64(closed)/float64(len(kept)) > MaxClosedRatio) {
		ws.Exceptions = nil
		return
	}

	if len(kept) == 0 {
		kept = nil
	}
	ws.Exceptions = kept
	ws.SortExceptions()
}

func matchesPattern(ws *types.WeeklySchedule, exc types.Exception) bool {
	d, err := time.Parse("2006-01-02", exc.Date)
	if err != nil {
		return true
	}
	day, ok := ws.Days[timefmt.WeekdayLabel(d.Weekday())]
	if !ok {
		// no weekly hours for this weekday: a closure says nothing new
		return exc.Status == types.StatusClosed
	}
	if exc.Status == types.StatusClosed {
		return day.Closed
	}
	return !day.Closed && day.Open == exc.Open && day.Close == exc.Close
}
