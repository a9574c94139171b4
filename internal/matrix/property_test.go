package matrix

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jbonatakis/reqmatrix/internal/location"
)

var propertyRequirements = []string{"req0", "req1", "req2"}

// randomHierarchy builds a tree where node i picks its parent among the
// nodes before it (or none), so the input is always acyclic.
func randomHierarchy(parents []int) *location.Hierarchy {
	records := make([]*location.Location, 0, len(parents))
	for i, sel := range parents {
		loc := &location.Location{ID: fmt.Sprintf("n%d", i), Name: fmt.Sprintf("Node %d", i)}
		if i > 0 {
			if p := sel % (i + 1); p < i {
				loc.ParentID = strPtr(fmt.Sprintf("n%d", p))
			}
		}
		records = append(records, loc)
	}
	return location.Build(records)
}

type edit struct {
	locationID    string
	requirementID string
	availability  bool
	checked       bool
}

func decodeEdit(h *location.Hierarchy, v uint32) edit {
	ids := h.IDs()
	return edit{
		locationID:    ids[int(v%uint32(len(ids)))],
		requirementID: propertyRequirements[int((v/64)%uint32(len(propertyRequirements)))],
		checked:       (v/256)%2 == 1,
		availability:  (v/512)%4 == 0,
	}
}

func (e edit) apply(c *Controller) {
	if e.availability {
		c.HandleAvailabilityChange(e.locationID, e.checked)
		return
	}
	c.HandleRequirementChange(e.locationID, e.requirementID, e.checked)
}

func loadedController(h *location.Hierarchy, initial State) *Controller {
	c := NewStandalone(PersisterFunc(func(context.Context, string, State) error { return nil }))
	c.Load("svc", h, initial)
	return c
}

// closed reports whether every selected node has all descendants selected,
// which is equivalent to every unselected node having no selected ancestor.
func closed(h *location.Hierarchy, read func(string) bool) bool {
	for _, id := range h.IDs() {
		if !read(id) {
			continue
		}
		for _, d := range h.Descendants(id) {
			if !read(d) {
				return false
			}
		}
	}
	return true
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return parameters
}

func treeGen() gopter.Gen  { return gen.SliceOfN(9, gen.IntRange(0, 1000)) }
func editsGen() gopter.Gen { return gen.SliceOf(gen.UInt32()) }

func TestPropertyRequirementChangeIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("applying the same edit twice equals applying it once", prop.ForAll(
		func(parents []int, edits []uint32, last uint32) bool {
			h := randomHierarchy(parents)
			c := loadedController(h, NewState())
			for _, v := range edits {
				decodeEdit(h, v).apply(c)
			}
			e := decodeEdit(h, last)
			e.apply(c)
			once := c.Local()
			e.apply(c)
			return c.Local().Equal(once)
		},
		treeGen(), editsGen(), gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestPropertyTreeClosure(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("selected nodes imply selected descendants after every edit", prop.ForAll(
		func(parents []int, edits []uint32) bool {
			h := randomHierarchy(parents)
			c := loadedController(h, NewState())
			for _, v := range edits {
				decodeEdit(h, v).apply(c)
				local := c.Local()
				for _, req := range propertyRequirements {
					if !closed(h, func(id string) bool { return local.IsSelected(id, req) }) {
						return false
					}
				}
				if !closed(h, local.IsAvailable) {
					return false
				}
			}
			return true
		},
		treeGen(), editsGen(),
	))

	properties.TestingRun(t)
}

func TestPropertyAvailabilityLeavesSelections(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("availability edits never change selections", prop.ForAll(
		func(parents []int, edits []uint32, target uint32, checked bool) bool {
			h := randomHierarchy(parents)
			c := loadedController(h, NewState())
			for _, v := range edits {
				decodeEdit(h, v).apply(c)
			}
			before := c.Local().Mappings
			ids := h.IDs()
			if _, err := c.HandleAvailabilityChange(ids[int(target%uint32(len(ids)))], checked); err != nil {
				return false
			}
			return boolsEqual(before, c.Local().Mappings)
		},
		treeGen(), editsGen(), gen.UInt32(), gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestPropertySaveAndCancel(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("save never emits root keys", prop.ForAll(
		func(parents []int, edits []uint32) bool {
			h := randomHierarchy(parents)
			var saved State
			c := NewStandalone(PersisterFunc(func(_ context.Context, _ string, s State) error {
				saved = s
				return nil
			}))
			c.Load("svc", h, NewState())
			for _, v := range edits {
				decodeEdit(h, v).apply(c)
			}
			if _, err := c.Save(context.Background()); err != nil {
				return false
			}
			for k := range saved.Mappings {
				if IsRootKey(k) {
					return false
				}
			}
			_, rootAvailability := saved.Availability[location.RootID]
			return !rootAvailability && !c.HasUnsavedChanges()
		},
		treeGen(), editsGen(),
	))

	properties.Property("cancel restores the initial maps exactly", prop.ForAll(
		func(parents []int, seed []uint32, edits []uint32) bool {
			h := randomHierarchy(parents)
			initial := NewState()
			for _, v := range seed {
				e := decodeEdit(h, v)
				if e.availability {
					initial.Availability[e.locationID] = e.checked
				} else {
					initial.Mappings[Key(e.locationID, e.requirementID)] = e.checked
				}
			}
			c := loadedController(h, initial)
			for _, v := range edits {
				decodeEdit(h, v).apply(c)
			}
			if err := c.Cancel(); err != nil {
				return false
			}
			local := c.Local()
			return boolsEqual(local.Mappings, initial.Mappings) &&
				boolsEqual(local.Availability, initial.Availability) &&
				!c.HasUnsavedChanges()
		},
		treeGen(), editsGen(), editsGen(),
	))

	properties.TestingRun(t)
}
