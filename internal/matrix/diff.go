package matrix

import "sort"

type DiffSummary struct {
	Selected        []string
	Deselected      []string
	AvailabilityOn  []string
	AvailabilityOff []string
}

func (d DiffSummary) Count() int {
	return len(d.Selected) + len(d.Deselected) + len(d.AvailabilityOn) + len(d.AvailabilityOff)
}

func (d DiffSummary) Empty() bool {
	return d.Count() == 0
}

// Diff compares two states by effective value; a key missing on one side
// reads as false, so absent and explicit false are the same.
func Diff(before, after State) DiffSummary {
	summary := DiffSummary{}
	summary.Selected, summary.Deselected = diffBools(before.Mappings, after.Mappings)
	summary.AvailabilityOn, summary.AvailabilityOff = diffBools(before.Availability, after.Availability)
	return summary
}

func diffBools(before, after map[string]bool) (on []string, off []string) {
	for k, v := range after {
		if v && !before[k] {
			on = append(on, k)
		}
	}
	for k, v := range before {
		if v && !after[k] {
			off = append(off, k)
		}
	}
	sort.Strings(on)
	sort.Strings(off)
	return on, off
}
