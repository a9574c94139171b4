package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var userHomeDir = os.UserHomeDir

// layerFile is one config file as found on disk. A file that exists but
// cannot be used carries a problem and an empty config; callers skip it.
type layerFile struct {
	cfg     RawConfig
	present bool
	problem LayerWarningKind
}

func (l layerFile) usable() bool {
	return l.present && l.problem == ""
}

// readLayer returns an error only for I/O failures other than a missing file.
func readLayer(path string) (layerFile, error) {
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return layerFile{}, nil
	case err != nil:
		return layerFile{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg RawConfig
	dec := json.NewDecoder(bytes.NewReader(b))
	if dec.Decode(&cfg) != nil || dec.Decode(&struct{}{}) != io.EOF {
		return layerFile{present: true, problem: LayerWarningInvalidJSON}, nil
	}
	if cfg.SchemaVersion != nil && *cfg.SchemaVersion != SchemaVersion {
		return layerFile{present: true, problem: LayerWarningUnsupportedSchema}, nil
	}
	return layerFile{cfg: cfg, present: true}, nil
}

func loadLayer(path string) (RawConfig, bool, error) {
	l, err := readLayer(path)
	if err != nil || !l.usable() {
		return RawConfig{}, false, err
	}
	return l.cfg, true, nil
}

func LoadGlobalConfig() (RawConfig, bool, error) {
	path, ok := GlobalConfigPath()
	if !ok {
		return RawConfig{}, false, nil
	}
	return loadLayer(path)
}

func LoadProjectConfig(projectRoot string) (RawConfig, bool, error) {
	if projectRoot == "" {
		return RawConfig{}, false, nil
	}
	return loadLayer(ProjectConfigPath(projectRoot))
}

// LoadConfig resolves every option as project > global > default. Layers
// that are malformed or carry an unknown schemaVersion are ignored.
func LoadConfig(projectRoot string) (ResolvedConfig, error) {
	global, _, err := LoadGlobalConfig()
	if err != nil {
		return ResolvedConfig{}, err
	}
	project, _, err := LoadProjectConfig(projectRoot)
	if err != nil {
		return ResolvedConfig{}, err
	}
	return ResolveConfig(project, global), nil
}

// ProjectConfigPath is <root>/.reqmatrix/config.json, or "" without a root.
func ProjectConfigPath(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	return filepath.Join(projectRoot, DirName, FileName)
}

// GlobalConfigPath is ~/.reqmatrix/config.json; ok is false when no home
// directory can be determined.
func GlobalConfigPath() (path string, ok bool) {
	home, err := userHomeDir()
	if err != nil || home == "" {
		return "", false
	}
	return filepath.Join(home, DirName, FileName), true
}
