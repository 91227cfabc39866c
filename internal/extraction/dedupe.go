package extraction

import (
	"sort"

	"github.com/jonathan/venue-scout/internal/types"
)

// Dedupe removes instances sharing a (date, start, end, note) key, keeping the first seen.
// The output is a new slice sorted by date then start time.
func Dedupe(instances []types.RawTimeInstance) []types.RawTimeInstance {
	seen := make(map[string]bool, len(instances))
	out := make([]types.RawTimeInstance, 0, len(instances))
	for _, inst := range instances {
		k := inst.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, inst)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// Merge concatenates instance lists and deduplicates the result.
func Merge(lists ...[]types.RawTimeInstance) []types.RawTimeInstance {
	var all []types.RawTimeInstance
	for _, l := range lists {
		all = append(all, l...)
	}
	return Dedupe(all)
}
