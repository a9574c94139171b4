package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func withHome(t *testing.T, dir string) {
	t.Helper()
	restore := SetUserHomeDirForTest(func() (string, error) { return dir, nil })
	t.Cleanup(restore)
}

func TestLoadGlobalConfigReadsFile(t *testing.T) {
	home := t.TempDir()
	withHome(t, home)
	writeConfig(t, filepath.Join(home, ".reqmatrix", "config.json"), `{"schemaVersion":1,"tui":{"pageSize":40}}`)

	cfg, present, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !present {
		t.Fatalf("expected config to be present")
	}
	if cfg.TUI == nil || cfg.TUI.PageSize == nil || *cfg.TUI.PageSize != 40 {
		t.Fatalf("expected pageSize 40, got %#v", cfg.TUI)
	}
	if cfg.TUI.ExpandCountries != nil {
		t.Fatalf("expected expandCountries to be nil, got %#v", cfg.TUI.ExpandCountries)
	}
}

func TestLoadGlobalConfigMissingHomeSkips(t *testing.T) {
	restore := SetUserHomeDirForTest(func() (string, error) { return "", errors.New("no home") })
	t.Cleanup(restore)

	cfg, present, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if present {
		t.Fatalf("expected config to be missing")
	}
	if cfg != (RawConfig{}) {
		t.Fatalf("expected empty config, got %#v", cfg)
	}
}

func TestLoadConfigSkipsUnreadableLayers(t *testing.T) {
	cases := map[string]string{
		"invalid json":       `{"schemaVersion":1,`,
		"trailing data":      `{"schemaVersion":1} {}`,
		"unsupported schema": `{"schemaVersion":2,"tui":{"pageSize":40}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			withHome(t, t.TempDir())
			root := t.TempDir()
			writeConfig(t, ProjectConfigPath(root), content)

			cfg, present, err := LoadProjectConfig(root)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if present || cfg != (RawConfig{}) {
				t.Fatalf("expected layer to be skipped, got present=%v cfg=%#v", present, cfg)
			}

			resolved, err := LoadConfig(root)
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if resolved != DefaultResolvedConfig() {
				t.Fatalf("resolved = %#v, want defaults", resolved)
			}
		})
	}
}

func TestLoadConfigProjectOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	withHome(t, home)
	root := t.TempDir()

	writeConfig(t, filepath.Join(home, ".reqmatrix", "config.json"), `{
  "schemaVersion": 1,
  "store": {"backend": "redis", "redisAddr": "cache:6379", "redisDB": 3},
  "server": {"listenAddr": ":9000"}
}`)
	writeConfig(t, ProjectConfigPath(root), `{
  "catalog": {"path": "data/catalog.yaml"},
  "store": {"backend": "sqlite"}
}`)

	resolved, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if resolved.Catalog.Path != "data/catalog.yaml" {
		t.Fatalf("catalog path = %q", resolved.Catalog.Path)
	}
	if resolved.Store.Backend != "sqlite" {
		t.Fatalf("backend = %q, want sqlite", resolved.Store.Backend)
	}
	if resolved.Store.Path != DefaultSQLiteStorePath {
		t.Fatalf("store path = %q, want sqlite default", resolved.Store.Path)
	}
	if resolved.Store.RedisAddr != "cache:6379" || resolved.Store.RedisDB != 3 {
		t.Fatalf("redis = %q/%d", resolved.Store.RedisAddr, resolved.Store.RedisDB)
	}
	if resolved.Server.ListenAddr != ":9000" {
		t.Fatalf("listen addr = %q", resolved.Server.ListenAddr)
	}
}
