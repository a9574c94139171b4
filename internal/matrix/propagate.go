package matrix

import "github.com/jbonatakis/reqmatrix/internal/location"

// Propagator fans a single edit out over a hierarchy. It reads the hierarchy
// indices and never modifies them.
type Propagator struct {
	h *location.Hierarchy
}

func NewPropagator(h *location.Hierarchy) *Propagator {
	if h == nil {
		h = location.Build(nil)
	}
	return &Propagator{h: h}
}

// SetRequirement applies checked to requirementID at locationID and keeps the
// selection map consistent:
//   - true sets every descendant true, then marks each ancestor true while all
//     of its children are true;
//   - false sets every descendant and every ancestor, up to the root, false.
//
// Only keys whose value actually changes are written (an absent key reads as
// false); the written keys are returned in write order. Unknown locations
// only get their own key.
func (p *Propagator) SetRequirement(s State, locationID, requirementID string, checked bool) []string {
	return p.propagate(s.Mappings, locationID, checked, func(id string) string {
		return Key(id, requirementID)
	})
}

// SetAvailability applies the same rules to the availability map. Selections
// are left untouched so re-enabling a location restores its configuration.
func (p *Propagator) SetAvailability(s State, locationID string, checked bool) []string {
	return p.propagate(s.Availability, locationID, checked, func(id string) string {
		return id
	})
}

func (p *Propagator) propagate(values map[string]bool, locationID string, checked bool, keyOf func(string) string) []string {
	var written []string
	set := func(id string, v bool) {
		k := keyOf(id)
		if values[k] == v {
			return
		}
		values[k] = v
		written = append(written, k)
	}

	set(locationID, checked)
	if !p.h.Contains(locationID) {
		return written
	}
	for _, id := range p.h.Descendants(locationID) {
		set(id, checked)
	}

	ancestors := p.h.Ancestors(locationID)
	if !checked {
		for _, id := range ancestors {
			set(id, false)
		}
		return written
	}
	for _, id := range ancestors {
		if !p.allChildren(values, id, keyOf) {
			break
		}
		set(id, true)
	}
	return written
}

func (p *Propagator) allChildren(values map[string]bool, id string, keyOf func(string) string) bool {
	children := p.h.Children[id]
	if len(children) == 0 {
		return false
	}
	for _, childID := range children {
		if !values[keyOf(childID)] {
			return false
		}
	}
	return true
}

// RootSelected is the derived ALL-row value for a requirement: true if and
// only if every top-level location has it selected.
func RootSelected(h *location.Hierarchy, s State, requirementID string) bool {
	return allTopLevel(h, func(id string) bool { return s.IsSelected(id, requirementID) })
}

// RootAvailable is the derived ALL-row availability.
func RootAvailable(h *location.Hierarchy, s State) bool {
	return allTopLevel(h, s.IsAvailable)
}

func allTopLevel(h *location.Hierarchy, pred func(string) bool) bool {
	if h == nil {
		return false
	}
	top := h.TopLevel()
	if len(top) == 0 {
		return false
	}
	for _, id := range top {
		if !pred(id) {
			return false
		}
	}
	return true
}
