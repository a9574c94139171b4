package config

import "strings"

// ResolveConfig merges project/global configs with built-in defaults.
// Precedence per key: project > global > defaults. Ints are clamped to their
// bounds; unknown store backends fall through to the next layer.
func ResolveConfig(project RawConfig, global RawConfig) ResolvedConfig {
	defaults := DefaultResolvedConfig()

	catalogPath := resolveString(
		catalogValue(project), catalogValue(global), defaults.Catalog.Path,
	)

	backend := resolveBackend(
		storeString(project, func(s RawStore) *string { return s.Backend }),
		storeString(global, func(s RawStore) *string { return s.Backend }),
		defaults.Store.Backend,
	)
	storePath := resolveString(
		storeString(project, func(s RawStore) *string { return s.Path }),
		storeString(global, func(s RawStore) *string { return s.Path }),
		defaultStorePath(backend),
	)
	redisAddr := resolveString(
		storeString(project, func(s RawStore) *string { return s.RedisAddr }),
		storeString(global, func(s RawStore) *string { return s.RedisAddr }),
		defaults.Store.RedisAddr,
	)
	redisDB := resolveIntWithBounds(
		storeInt(project, func(s RawStore) *int { return s.RedisDB }),
		storeInt(global, func(s RawStore) *int { return s.RedisDB }),
		defaults.Store.RedisDB,
		MinRedisDB,
		MaxRedisDB,
	)
	redisPrefix := resolveString(
		storeString(project, func(s RawStore) *string { return s.RedisPrefix }),
		storeString(global, func(s RawStore) *string { return s.RedisPrefix }),
		defaults.Store.RedisPrefix,
	)

	listenAddr := resolveString(
		serverValue(project), serverValue(global), defaults.Server.ListenAddr,
	)

	expandCountries := resolveBool(
		tuiBool(project, func(t RawTUI) *bool { return t.ExpandCountries }),
		tuiBool(global, func(t RawTUI) *bool { return t.ExpandCountries }),
		defaults.TUI.ExpandCountries,
	)
	pageSize := resolveIntWithBounds(
		tuiInt(project, func(t RawTUI) *int { return t.PageSize }),
		tuiInt(global, func(t RawTUI) *int { return t.PageSize }),
		defaults.TUI.PageSize,
		MinPageSize,
		MaxPageSize,
	)

	return ResolvedConfig{
		SchemaVersion: SchemaVersion,
		Catalog:       ResolvedCatalog{Path: catalogPath},
		Store: ResolvedStore{
			Backend:     backend,
			Path:        storePath,
			RedisAddr:   redisAddr,
			RedisDB:     redisDB,
			RedisPrefix: redisPrefix,
		},
		Server: ResolvedServer{ListenAddr: listenAddr},
		TUI: ResolvedTUI{
			ExpandCountries: expandCountries,
			PageSize:        pageSize,
		},
	}
}

func catalogValue(cfg RawConfig) *string {
	if cfg.Catalog == nil {
		return nil
	}
	return cfg.Catalog.Path
}

func serverValue(cfg RawConfig) *string {
	if cfg.Server == nil {
		return nil
	}
	return cfg.Server.ListenAddr
}

func storeString(cfg RawConfig, pick func(RawStore) *string) *string {
	if cfg.Store == nil {
		return nil
	}
	return pick(*cfg.Store)
}

func storeInt(cfg RawConfig, pick func(RawStore) *int) *int {
	if cfg.Store == nil {
		return nil
	}
	return pick(*cfg.Store)
}

func tuiBool(cfg RawConfig, pick func(RawTUI) *bool) *bool {
	if cfg.TUI == nil {
		return nil
	}
	return pick(*cfg.TUI)
}

func tuiInt(cfg RawConfig, pick func(RawTUI) *int) *int {
	if cfg.TUI == nil {
		return nil
	}
	return pick(*cfg.TUI)
}

func resolveBackend(projectVal *string, globalVal *string, defaultVal string) string {
	if backend, ok := normalizeBackend(projectVal); ok {
		return backend
	}
	if backend, ok := normalizeBackend(globalVal); ok {
		return backend
	}
	return defaultVal
}

func normalizeBackend(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	backend := strings.ToLower(strings.TrimSpace(*value))
	for _, known := range StoreBackends {
		if backend == known {
			return backend, true
		}
	}
	return "", false
}

func resolveString(projectVal *string, globalVal *string, defaultVal string) string {
	if value := normalizeString(projectVal); value != "" {
		return value
	}
	if value := normalizeString(globalVal); value != "" {
		return value
	}
	return defaultVal
}

func resolveBool(projectVal *bool, globalVal *bool, defaultVal bool) bool {
	if projectVal != nil {
		return *projectVal
	}
	if globalVal != nil {
		return *globalVal
	}
	return defaultVal
}

func resolveIntWithBounds(projectVal *int, globalVal *int, defaultVal int, min int, max int) int {
	if projectVal != nil {
		return clampInt(*projectVal, min, max)
	}
	if globalVal != nil {
		return clampInt(*globalVal, min, max)
	}
	return clampInt(defaultVal, min, max)
}

func clampInt(value int, min int, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func normalizeString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
