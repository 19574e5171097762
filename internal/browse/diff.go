package browse

import (
	"sort"

	"stallhub/internal/presence"
)

// Delta is what changed between two snapshots for one selector.
type Delta struct {
	// Added and Removed are vendors entering or leaving the active set
	// (live and matching the selector).
	Added   []string
	Removed []string
	// Changed lists, per vendor active in both snapshots, the categories whose
	// flag changed value or whose key appeared or disappeared.
	Changed map[string][]string
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares two snapshots. It does no I/O.
func Diff(prev, next presence.Snapshot, sel Selector) Delta {
	before := sel.active(prev)
	after := sel.active(next)

	var d Delta
	for id := range after {
		if !before[id] {
			d.Added = append(d.Added, id)
		}
	}
	for id := range before {
		if !after[id] {
			d.Removed = append(d.Removed, id)
		}
	}
	for id := range after {
		if !before[id] {
			continue
		}
		if changed := changedCategories(prev.CategoryStatus[id], next.CategoryStatus[id]); len(changed) > 0 {
			if d.Changed == nil {
				d.Changed = map[string][]string{}
			}
			d.Changed[id] = changed
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d
}

func changedCategories(prev, next map[string]bool) []string {
	var out []string
	for id, v := range next {
		if old, ok := prev[id]; !ok || old != v {
			out = append(out, id)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
