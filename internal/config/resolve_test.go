package config

import "testing"

func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }
func stringPtr(v string) *string { return &v }

func TestResolveConfigPrecedence(t *testing.T) {
	project := RawConfig{
		TUI: &RawTUI{
			ExpandCountries: boolPtr(true),
		},
		Store: &RawStore{
			Path: stringPtr("  /var/lib/reqmatrix  "),
		},
	}
	global := RawConfig{
		TUI: &RawTUI{
			ExpandCountries: boolPtr(false),
			PageSize:        intPtr(50),
		},
		Store: &RawStore{
			Backend:     stringPtr("FILE"),
			RedisPrefix: stringPtr("svc"),
		},
	}

	resolved := ResolveConfig(project, global)
	if !resolved.TUI.ExpandCountries {
		t.Fatalf("expandCountries = false, want true")
	}
	if resolved.TUI.PageSize != 50 {
		t.Fatalf("pageSize = %d, want 50", resolved.TUI.PageSize)
	}
	if resolved.Store.Backend != "file" {
		t.Fatalf("backend = %q, want file", resolved.Store.Backend)
	}
	if resolved.Store.Path != "/var/lib/reqmatrix" {
		t.Fatalf("path = %q", resolved.Store.Path)
	}
	if resolved.Store.RedisPrefix != "svc" {
		t.Fatalf("redisPrefix = %q", resolved.Store.RedisPrefix)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	resolved := ResolveConfig(RawConfig{}, RawConfig{})
	if resolved != DefaultResolvedConfig() {
		t.Fatalf("resolved = %#v, want %#v", resolved, DefaultResolvedConfig())
	}
}

func TestResolveConfigClampsAndFallsThrough(t *testing.T) {
	project := RawConfig{
		TUI:   &RawTUI{PageSize: intPtr(1)},
		Store: &RawStore{Backend: stringPtr("mongo"), RedisDB: intPtr(99)},
	}
	global := RawConfig{
		Store: &RawStore{Backend: stringPtr("redis")},
	}

	resolved := ResolveConfig(project, global)
	if resolved.TUI.PageSize != MinPageSize {
		t.Fatalf("pageSize = %d, want %d", resolved.TUI.PageSize, MinPageSize)
	}
	if resolved.Store.RedisDB != MaxRedisDB {
		t.Fatalf("redisDB = %d, want %d", resolved.Store.RedisDB, MaxRedisDB)
	}
	if resolved.Store.Backend != "redis" {
		t.Fatalf("backend = %q, want redis from the global layer", resolved.Store.Backend)
	}

	resolved = ResolveConfig(RawConfig{TUI: &RawTUI{PageSize: intPtr(1000)}}, RawConfig{})
	if resolved.TUI.PageSize != MaxPageSize {
		t.Fatalf("pageSize = %d, want %d", resolved.TUI.PageSize, MaxPageSize)
	}
}
