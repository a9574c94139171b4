package matrix

import (
	"context"
	"errors"
	"fmt"

	"github.com/jbonatakis/reqmatrix/internal/location"
)

var ErrNotLoaded = errors.New("matrix controller used before Load")

type Mode int

const (
	// ModeStandalone saves through a Persister and derives the ALL row from
	// the top-level locations.
	ModeStandalone Mode = iota
	// ModeControlled hands saved maps to callbacks; the owner supplies the
	// committed snapshot, including any ALL-row values, on Load.
	ModeControlled
)

func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModeControlled:
		return "controlled"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Persister is the durable side of a standalone controller.
type Persister interface {
	Save(ctx context.Context, serviceID string, s State) error
}

type PersisterFunc func(ctx context.Context, serviceID string, s State) error

func (f PersisterFunc) Save(ctx context.Context, serviceID string, s State) error {
	return f(ctx, serviceID, s)
}

// Callbacks receive the filtered maps when a controlled controller saves.
type Callbacks struct {
	OnMappingChange      func(map[string]bool)
	OnAvailabilityChange func(map[string]bool)
}

// Controller buffers edits to one service's requirement matrix between loads
// and saves. It is not safe for concurrent use.
type Controller struct {
	mode      Mode
	persister Persister
	callbacks Callbacks

	loaded     bool
	serviceID  string
	hierarchy  *location.Hierarchy
	propagator *Propagator
	committed  State
	local      State
	dirty      bool
	expansion  *Expansion
}

func NewStandalone(p Persister) *Controller {
	return &Controller{mode: ModeStandalone, persister: p, expansion: NewExpansion()}
}

func NewControlled(cb Callbacks) *Controller {
	return &Controller{mode: ModeControlled, callbacks: cb, expansion: NewExpansion()}
}

// Load installs a hierarchy and committed snapshot, discarding any edits in
// progress. Expansion state survives reloads of the same service and is reset
// when the service changes.
func (c *Controller) Load(serviceID string, h *location.Hierarchy, committed State) {
	if h == nil {
		h = location.Build(nil)
	}
	if !c.loaded || c.serviceID != serviceID {
		c.expansion = NewExpansion()
	}
	c.loaded = true
	c.serviceID = serviceID
	c.hierarchy = h
	c.propagator = NewPropagator(h)
	c.committed = committed.Clone()
	c.local = committed.Clone()
	c.dirty = false
}

func (c *Controller) Loaded() bool                   { return c.loaded }
func (c *Controller) Mode() Mode                     { return c.mode }
func (c *Controller) ServiceID() string              { return c.serviceID }
func (c *Controller) Hierarchy() *location.Hierarchy { return c.hierarchy }
func (c *Controller) HasUnsavedChanges() bool        { return c.dirty }

// HandleRequirementChange propagates one selection edit and returns the keys
// it wrote.
func (c *Controller) HandleRequirementChange(locationID, requirementID string, checked bool) ([]string, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	written := c.propagator.SetRequirement(c.local, locationID, requirementID, checked)
	c.dirty = true
	return written, nil
}

// HandleAvailabilityChange propagates one availability edit and returns the
// location ids it wrote.
func (c *Controller) HandleAvailabilityChange(locationID string, checked bool) ([]string, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	written := c.propagator.SetAvailability(c.local, locationID, checked)
	c.dirty = true
	return written, nil
}

// IsSelected reads the in-progress value. In standalone mode the ALL row is
// derived from the top-level locations; in controlled mode it is read from
// the maps like any other row.
func (c *Controller) IsSelected(locationID, requirementID string) bool {
	if locationID == location.RootID && c.mode == ModeStandalone {
		return RootSelected(c.hierarchy, c.local, requirementID)
	}
	return c.local.IsSelected(locationID, requirementID)
}

func (c *Controller) IsAvailable(locationID string) bool {
	if locationID == location.RootID && c.mode == ModeStandalone {
		return RootAvailable(c.hierarchy, c.local)
	}
	return c.local.IsAvailable(locationID)
}

// Save strips every synthetic-root entry and hands the result to the
// persister or callbacks. The change-set is only marked clean once the
// persister accepts; on failure it stays dirty and untouched. A controlled
// controller keeps the owner's ALL-row values in its committed snapshot
// since it reads that row from the maps.
func (c *Controller) Save(ctx context.Context) (State, error) {
	if !c.loaded {
		return State{}, ErrNotLoaded
	}
	filtered := c.local.WithoutRoot()

	switch c.mode {
	case ModeStandalone:
		if c.persister == nil {
			return State{}, errors.New("standalone controller has no persister")
		}
		if err := c.persister.Save(ctx, c.serviceID, filtered.Clone()); err != nil {
			return State{}, fmt.Errorf("save %s: %w", c.serviceID, err)
		}
	case ModeControlled:
		if c.callbacks.OnMappingChange != nil {
			c.callbacks.OnMappingChange(copyBools(filtered.Mappings))
		}
		if c.callbacks.OnAvailabilityChange != nil {
			c.callbacks.OnAvailabilityChange(copyBools(filtered.Availability))
		}
	}

	if c.mode == ModeControlled {
		c.committed = c.local.Clone()
	} else {
		c.committed = filtered
	}
	c.dirty = false
	return filtered.Clone(), nil
}

// Cancel restores exactly the last committed snapshot.
func (c *Controller) Cancel() error {
	if !c.loaded {
		return ErrNotLoaded
	}
	c.local = c.committed.Clone()
	c.dirty = false
	return nil
}

// Local returns a copy of the in-progress maps.
func (c *Controller) Local() State { return c.local.Clone() }

// Committed returns a copy of the last committed snapshot.
func (c *Controller) Committed() State { return c.committed.Clone() }

// Changes summarizes what a save would change, ignoring ALL-row entries.
func (c *Controller) Changes() DiffSummary {
	return Diff(c.committed.WithoutRoot(), c.local.WithoutRoot())
}

func (c *Controller) Expansion() *Expansion { return c.expansion }

func (c *Controller) ToggleExpansion(locationID string) {
	c.expansion.Toggle(locationID)
}

// Rows returns the visible rows for the current expansion state.
func (c *Controller) Rows() []Row {
	if c.hierarchy == nil {
		return nil
	}
	return Flatten(c.hierarchy.Roots(), c.expansion)
}
