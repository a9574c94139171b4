package matrix

import "github.com/jbonatakis/reqmatrix/internal/location"

// State holds the selection map (keyed by Key(location, requirement)) and the
// availability map (keyed by location id). It only stores and retrieves;
// propagation lives in Propagator.
type State struct {
	Mappings     map[string]bool `json:"mappings"`
	Availability map[string]bool `json:"availability"`
}

func NewState() State {
	return State{
		Mappings:     map[string]bool{},
		Availability: map[string]bool{},
	}
}

func (s State) IsSelected(locationID, requirementID string) bool {
	return s.Mappings[Key(locationID, requirementID)]
}

func (s State) IsAvailable(locationID string) bool {
	return s.Availability[locationID]
}

// Clone deep-copies both maps. Nil maps come back empty so the copy is always
// writable.
func (s State) Clone() State {
	return State{
		Mappings:     copyBools(s.Mappings),
		Availability: copyBools(s.Availability),
	}
}

// WithoutRoot returns a copy with every synthetic-root entry removed.
func (s State) WithoutRoot() State {
	out := NewState()
	for k, v := range s.Mappings {
		if IsRootKey(k) {
			continue
		}
		out.Mappings[k] = v
	}
	for k, v := range s.Availability {
		if k == location.RootID {
			continue
		}
		out.Availability[k] = v
	}
	return out
}

func (s State) Equal(other State) bool {
	return boolsEqual(s.Mappings, other.Mappings) && boolsEqual(s.Availability, other.Availability)
}

func copyBools(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func boolsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || other != v {
			return false
		}
	}
	return true
}
