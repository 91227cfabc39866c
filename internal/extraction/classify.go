package extraction

import (
	"sort"
	"strings"

	"github.com/jonathan/venue-scout/internal/types"
)

// Classification thresholds
const (
	MinScheduleInstances = 20
	MinScheduleWeekdays  = 4
)

// Classify turns raw instances into a weekly schedule when at least MinScheduleInstances share
// one location and the modal reduction populates at least MinScheduleWeekdays; otherwise into
// an event set. It returns nil when there is nothing to classify.
func Classify(instances []types.RawTimeInstance) *types.Dates {
	deduped := Dedupe(instances)
	if len(deduped) == 0 {
		return nil
	}

	if ws := modalSchedule(deduped); ws != nil {
		return &types.Dates{Schedule: ws}
	}

	set := &types.EventInstanceSet{}
	for _, inst := range deduped {
		if strings.EqualFold(inst.Note, NoteClosed) && inst.StartTime == "" {
			continue
		}
		ev := types.EventInstance{
			Date:      inst.Date,
			StartTime: inst.StartTime,
			EndTime:   inst.EndTime,
			Location:  inst.Location,
			Note:      inst.Note,
		}
		if ev.EndTime == "" {
			ev.EndTime = ev.StartTime
		}
		set.Instances = append(set.Instances, ev)
	}
	if len(set.Instances) == 0 {
		return nil
	}
	return &types.Dates{Events: set}
}

// modalSchedule returns the modal schedule of the dominant location, or nil when the
// instances do not qualify as a weekly pattern.
func modalSchedule(instances []types.RawTimeInstance) *types.WeeklySchedule {
	loc, n := dominantLocation(instances)
	if n < MinScheduleInstances {
		return nil
	}
	var at []types.RawTimeInstance
	for _, inst := range instances {
		if inst.Location == loc {
			at = append(at, inst)
		}
	}
	ws := ReduceModal(at)
	if ws.PopulatedDays() < MinScheduleWeekdays {
		return nil
	}
	return ws
}

func dominantLocation(instances []types.RawTimeInstance) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, inst := range instances {
		if _, ok := counts[inst.Location]; !ok {
			order = append(order, inst.Location)
		}
		counts[inst.Location]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) == 0 {
		return "", 0
	}
	return order[0], counts[order[0]]
}
