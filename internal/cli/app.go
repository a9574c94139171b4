package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/jbonatakis/reqmatrix/internal/catalog"
	"github.com/jbonatakis/reqmatrix/internal/config"
	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
	"github.com/jbonatakis/reqmatrix/internal/store"
)

// app carries the state shared by every command: resolved config, flag
// overrides and the output stream.
type app struct {
	out io.Writer

	root              string
	catalogOverride   string
	backendOverride   string
	storePathOverride string

	cfg config.ResolvedConfig
}

func (a *app) loadConfig(logger *log.Logger) error {
	if a.root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		a.root = wd
	}
	cfg, err := config.LoadConfig(a.root)
	if err != nil {
		return err
	}
	if a.catalogOverride != "" {
		cfg.Catalog.Path = a.catalogOverride
	}
	if a.backendOverride != "" {
		cfg.Store.Backend = a.backendOverride
		if a.storePathOverride == "" && cfg.Store.Backend == store.BackendSQLite && cfg.Store.Path == config.DefaultFileStorePath {
			cfg.Store.Path = config.DefaultSQLiteStorePath
		}
	}
	if a.storePathOverride != "" {
		cfg.Store.Path = a.storePathOverride
	}
	a.cfg = cfg
	logger.Debug("config resolved", "root", a.root, "catalog", cfg.Catalog.Path, "store", cfg.Store.Backend)
	return nil
}

// resolvePath anchors relative config paths at the project root.
func (a *app) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root, p)
}

func (a *app) catalogPath() string {
	return a.resolvePath(a.cfg.Catalog.Path)
}

func (a *app) loadCatalog() (catalog.Catalog, error) {
	path := a.catalogPath()
	c, err := catalog.Load(path)
	if err != nil {
		if errors.Is(err, catalog.ErrCatalogNotFound) {
			return catalog.Catalog{}, fmt.Errorf("catalog file not found: %s (run `reqmatrix init`)", path)
		}
		return catalog.Catalog{}, err
	}
	return c, nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Backend:     a.cfg.Store.Backend,
		Path:        a.resolvePath(a.cfg.Store.Path),
		RedisAddr:   a.cfg.Store.RedisAddr,
		RedisDB:     a.cfg.Store.RedisDB,
		RedisPrefix: a.cfg.Store.RedisPrefix,
	})
}

// session is one service loaded from the catalog and the store.
type session struct {
	catalog      catalog.Catalog
	service      catalog.Service
	hierarchy    *location.Hierarchy
	requirements []location.Requirement
	record       store.Record
	migration    matrix.Migration
	store        store.Store
}

func (s *session) hasRequirement(id string) bool {
	for _, r := range s.requirements {
		if r.ID == id {
			return true
		}
	}
	return false
}

// committedState is the stored state with legacy keys rewritten.
func (s *session) committedState(normalized map[string]bool) matrix.State {
	return matrix.State{Mappings: normalized, Availability: s.record.State.Availability}.Clone()
}

// openSession loads the catalog, the service and its saved state. The caller
// must close s.store.
func (a *app) openSession(ctx context.Context, serviceID string) (*session, matrix.State, error) {
	logger := loggerFromContext(ctx)

	c, err := a.loadCatalog()
	if err != nil {
		return nil, matrix.State{}, err
	}
	svc, ok := c.Service(serviceID)
	if !ok {
		return nil, matrix.State{}, fmt.Errorf("unknown service %q", serviceID)
	}

	h := c.Hierarchy()
	if h.Err != "" {
		for _, failure := range h.Failures {
			logger.Warn("location skipped", "err", failure)
		}
		logger.Warn(h.Err, "loaded", h.Len(), "failed", len(h.Failures))
	}
	if h.Skipped > 0 {
		logger.Warn("malformed location rows skipped", "count", h.Skipped)
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, matrix.State{}, err
	}
	rec, err := st.Load(ctx, serviceID)
	if err != nil {
		_ = st.Close()
		return nil, matrix.State{}, err
	}

	s := &session{
		catalog:      c,
		service:      svc,
		hierarchy:    h,
		requirements: c.RequirementsFor(serviceID),
		record:       rec,
		store:        st,
	}
	normalized, migration := matrix.NormalizeKeys(rec.State.Mappings, h, c.AllRequirementIDs())
	s.migration = migration
	if migration.Changed() {
		logger.Info("legacy mapping keys normalized in memory",
			"service", serviceID, "migrated", migration.Migrated, "hint", "run `reqmatrix migrate-keys "+serviceID+"` to persist")
	}
	for _, key := range migration.Ambiguous {
		logger.Warn("ambiguous legacy key split at first hyphen", "key", key)
	}
	logger.Debug("service loaded", "service", serviceID, "revision", rec.Revision,
		"locations", h.Len(), "requirements", len(s.requirements))
	return s, s.committedState(normalized), nil
}

func (a *app) standaloneController(s *session, committed matrix.State) *matrix.Controller {
	ctrl := matrix.NewStandalone(store.Persister(s.store))
	ctrl.Load(s.service.ID, s.hierarchy, committed)
	return ctrl
}
