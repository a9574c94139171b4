package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jbonatakis/reqmatrix/internal/fsutil"
)

type RawOptionValue struct {
	Int    *int
	Bool   *bool
	String *string
}

func (v RawOptionValue) isSet() bool {
	return v.Int != nil || v.Bool != nil || v.String != nil
}

func (v RawOptionValue) Display() string {
	switch {
	case v.Int != nil:
		return strconv.Itoa(*v.Int)
	case v.Bool != nil:
		return strconv.FormatBool(*v.Bool)
	case v.String != nil:
		return *v.String
	default:
		return ""
	}
}

// optionField reads and writes one key of a RawConfig.
type optionField struct {
	get func(RawConfig) RawOptionValue
	set func(*RawConfig, RawOptionValue)
}

func stringField(pick func(*RawConfig) **string) optionField {
	return optionField{
		get: func(cfg RawConfig) RawOptionValue {
			p := pick(&cfg)
			if p == nil || *p == nil {
				return RawOptionValue{}
			}
			return RawOptionValue{String: copyString(**p)}
		},
		set: func(cfg *RawConfig, v RawOptionValue) { *pick(cfg) = v.String },
	}
}

func intField(pick func(*RawConfig) **int) optionField {
	return optionField{
		get: func(cfg RawConfig) RawOptionValue {
			p := pick(&cfg)
			if p == nil || *p == nil {
				return RawOptionValue{}
			}
			return RawOptionValue{Int: copyInt(**p)}
		},
		set: func(cfg *RawConfig, v RawOptionValue) { *pick(cfg) = v.Int },
	}
}

func boolField(pick func(*RawConfig) **bool) optionField {
	return optionField{
		get: func(cfg RawConfig) RawOptionValue {
			p := pick(&cfg)
			if p == nil || *p == nil {
				return RawOptionValue{}
			}
			return RawOptionValue{Bool: copyBool(**p)}
		},
		set: func(cfg *RawConfig, v RawOptionValue) { *pick(cfg) = v.Bool },
	}
}

// The pickers allocate the enclosing section on demand; get works on a copy
// of the config so reads never mutate the caller's value.
func catalogSection(cfg *RawConfig) *RawCatalog {
	if cfg.Catalog == nil {
		cfg.Catalog = &RawCatalog{}
	}
	return cfg.Catalog
}

func storeSection(cfg *RawConfig) *RawStore {
	if cfg.Store == nil {
		cfg.Store = &RawStore{}
	}
	return cfg.Store
}

func serverSection(cfg *RawConfig) *RawServer {
	if cfg.Server == nil {
		cfg.Server = &RawServer{}
	}
	return cfg.Server
}

func tuiSection(cfg *RawConfig) *RawTUI {
	if cfg.TUI == nil {
		cfg.TUI = &RawTUI{}
	}
	return cfg.TUI
}

var optionFields = map[string]optionField{
	keyCatalogPath:        stringField(func(c *RawConfig) **string { return &catalogSection(c).Path }),
	keyStoreBackend:       stringField(func(c *RawConfig) **string { return &storeSection(c).Backend }),
	keyStorePath:          stringField(func(c *RawConfig) **string { return &storeSection(c).Path }),
	keyStoreRedisAddr:     stringField(func(c *RawConfig) **string { return &storeSection(c).RedisAddr }),
	keyStoreRedisDB:       intField(func(c *RawConfig) **int { return &storeSection(c).RedisDB }),
	keyStoreRedisPrefix:   stringField(func(c *RawConfig) **string { return &storeSection(c).RedisPrefix }),
	keyServerListenAddr:   stringField(func(c *RawConfig) **string { return &serverSection(c).ListenAddr }),
	keyTUIExpandCountries: boolField(func(c *RawConfig) **bool { return &tuiSection(c).ExpandCountries }),
	keyTUIPageSize:        intField(func(c *RawConfig) **int { return &tuiSection(c).PageSize }),
}

// RawOptionValues extracts known raw option values from a config layer.
func RawOptionValues(cfg RawConfig) map[string]RawOptionValue {
	values := map[string]RawOptionValue{}
	for key, field := range optionFields {
		if v := field.get(cfg); v.isSet() {
			values[key] = v
		}
	}
	return values
}

func ResolvedOptionValues(cfg ResolvedConfig) map[string]RawOptionValue {
	return map[string]RawOptionValue{
		keyCatalogPath:        {String: copyString(cfg.Catalog.Path)},
		keyStoreBackend:       {String: copyString(cfg.Store.Backend)},
		keyStorePath:          {String: copyString(cfg.Store.Path)},
		keyStoreRedisAddr:     {String: copyString(cfg.Store.RedisAddr)},
		keyStoreRedisDB:       {Int: copyInt(cfg.Store.RedisDB)},
		keyStoreRedisPrefix:   {String: copyString(cfg.Store.RedisPrefix)},
		keyServerListenAddr:   {String: copyString(cfg.Server.ListenAddr)},
		keyTUIExpandCountries: {Bool: copyBool(cfg.TUI.ExpandCountries)},
		keyTUIPageSize:        {Int: copyInt(cfg.TUI.PageSize)},
	}
}

// ParseOptionValue converts command-line text into a typed value for key.
func ParseOptionValue(keyPath string, text string) (RawOptionValue, error) {
	option, ok := LookupOption(keyPath)
	if !ok {
		return RawOptionValue{}, fmt.Errorf("unknown config key %q", keyPath)
	}
	text = strings.TrimSpace(text)
	switch option.Type {
	case OptionTypeInt:
		v, err := strconv.Atoi(text)
		if err != nil {
			return RawOptionValue{}, fmt.Errorf("config key %q expects int value", keyPath)
		}
		return RawOptionValue{Int: &v}, nil
	case OptionTypeBool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return RawOptionValue{}, fmt.Errorf("config key %q expects bool value", keyPath)
		}
		return RawOptionValue{Bool: &v}, nil
	default:
		if text == "" {
			return RawOptionValue{}, fmt.Errorf("config key %q expects a non-empty value", keyPath)
		}
		if len(option.Choices) > 0 {
			lowered := strings.ToLower(text)
			for _, choice := range option.Choices {
				if lowered == choice {
					return RawOptionValue{String: &lowered}, nil
				}
			}
			return RawOptionValue{}, fmt.Errorf("config key %q must be one of %s", keyPath, strings.Join(option.Choices, ", "))
		}
		return RawOptionValue{String: &text}, nil
	}
}

// SaveConfigValues writes the provided raw option values to disk.
// The file includes schemaVersion and only set keys; empty layers remove the file.
func SaveConfigValues(path string, values map[string]RawOptionValue) error {
	if path == "" {
		return errors.New("config path is empty")
	}

	cfg, hasValues, err := buildRawConfig(values)
	if err != nil {
		return err
	}
	if !hasValues {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove config %s: %w", path, err)
		}
		return nil
	}

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// SetConfigValue updates one key in the config file at path, keeping the
// other keys. An empty text removes the key.
func SetConfigValue(path string, keyPath string, text string) error {
	if _, ok := LookupOption(keyPath); !ok {
		return fmt.Errorf("unknown config key %q", keyPath)
	}
	existing, err := readLayer(path)
	if err != nil {
		return err
	}
	if existing.problem != "" {
		return fmt.Errorf("refusing to rewrite unreadable config %s (%s)", path, existing.problem)
	}
	values := RawOptionValues(existing.cfg)
	if strings.TrimSpace(text) == "" {
		delete(values, keyPath)
	} else {
		value, err := ParseOptionValue(keyPath, text)
		if err != nil {
			return err
		}
		values[keyPath] = value
	}
	return SaveConfigValues(path, values)
}

func buildRawConfig(values map[string]RawOptionValue) (RawConfig, bool, error) {
	var cfg RawConfig
	hasValues := false

	for key, value := range values {
		if !value.isSet() {
			continue
		}
		option, ok := LookupOption(key)
		if !ok {
			return RawConfig{}, false, fmt.Errorf("unknown config key %q", key)
		}
		var matches bool
		switch option.Type {
		case OptionTypeInt:
			matches = value.Int != nil && value.Bool == nil && value.String == nil
		case OptionTypeBool:
			matches = value.Bool != nil && value.Int == nil && value.String == nil
		default:
			matches = value.String != nil && value.Int == nil && value.Bool == nil
		}
		if !matches {
			return RawConfig{}, false, fmt.Errorf("config key %q expects %s value", key, option.Type)
		}
		optionFields[key].set(&cfg, value)
		hasValues = true
	}

	if !hasValues {
		return RawConfig{}, false, nil
	}
	version := SchemaVersion
	cfg.SchemaVersion = &version
	return cfg, true, nil
}

func copyInt(v int) *int {
	return &v
}

func copyBool(v bool) *bool {
	return &v
}

func copyString(v string) *string {
	return &v
}
