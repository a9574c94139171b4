package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jbonatakis/reqmatrix/internal/catalog"
	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
	"github.com/jbonatakis/reqmatrix/internal/store"
)

var errUnknownService = errors.New("unknown service")

// entry is one service's controller. Controllers are not safe for
// concurrent use, so every call goes through mu.
type entry struct {
	mu           sync.Mutex
	service      catalog.Service
	requirements []location.Requirement
	ctrl         *matrix.Controller
	revision     string
	savedAt      time.Time
}

func (e *entry) hasRequirement(id string) bool {
	for _, r := range e.requirements {
		if r.ID == id {
			return true
		}
	}
	return false
}

type registry struct {
	catalog   catalog.Catalog
	hierarchy *location.Hierarchy
	store     store.Store
	logger    *log.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

func newRegistry(c catalog.Catalog, st store.Store, logger *log.Logger) *registry {
	if st == nil {
		st = store.NewMemoryStore()
	}
	return &registry{
		catalog:   c,
		hierarchy: c.Hierarchy(),
		store:     st,
		logger:    logger,
		entries:   map[string]*entry{},
	}
}

// get returns the service's entry, loading it from the store on first use.
// The store load runs outside r.mu; when two requests race to load the same
// service the first entry stored wins.
func (r *registry) get(ctx context.Context, serviceID string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[serviceID]
	r.mu.Unlock()
	if ok {
		return e, nil
	}

	svc, ok := r.catalog.Service(serviceID)
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownService, serviceID)
	}
	rec, err := r.store.Load(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", serviceID, err)
	}
	normalized, migration := matrix.NormalizeKeys(rec.State.Mappings, r.hierarchy, r.catalog.AllRequirementIDs())

	e = &entry{
		service:      svc,
		requirements: r.catalog.RequirementsFor(serviceID),
		revision:     rec.Revision,
		savedAt:      rec.SavedAt,
	}
	e.ctrl = matrix.NewStandalone(matrix.PersisterFunc(func(ctx context.Context, id string, s matrix.State) error {
		saved, err := r.store.Save(ctx, id, s)
		if err != nil {
			return err
		}
		e.revision = saved.Revision
		e.savedAt = saved.SavedAt
		return nil
	}))
	committed := matrix.State{Mappings: normalized, Availability: rec.State.Availability}.Clone()
	e.ctrl.Load(serviceID, r.hierarchy, committed)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[serviceID]; ok {
		return existing, nil
	}
	r.entries[serviceID] = e
	if migration.Changed() {
		r.logger.Info("legacy mapping keys normalized in memory", "service", serviceID, "migrated", migration.Migrated)
	}
	r.logger.Debug("service loaded", "service", serviceID, "revision", rec.Revision)
	return e, nil
}

// unsaved lists the loaded services holding edits that were never saved.
func (r *registry) unsaved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, e := range r.entries {
		e.mu.Lock()
		dirty := e.ctrl.HasUnsavedChanges()
		e.mu.Unlock()
		if dirty {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
