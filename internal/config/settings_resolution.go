package config

import "sort"

// ConfigSource names where an applied value came from.
type ConfigSource string

const (
	ConfigSourceLocal   ConfigSource = "local"
	ConfigSourceGlobal  ConfigSource = "global"
	ConfigSourceDefault ConfigSource = "default"
)

type LayerWarningKind string

const (
	LayerWarningInvalidJSON       LayerWarningKind = "invalid_json"
	LayerWarningUnsupportedSchema LayerWarningKind = "unsupported_schema"
)

type OptionWarningKind string

const (
	OptionWarningOutOfRange   OptionWarningKind = "out_of_range"
	OptionWarningInvalidValue OptionWarningKind = "invalid_value"
)

// LayerWarning reports a whole config file that was ignored.
type LayerWarning struct {
	Source ConfigSource
	Kind   LayerWarningKind
}

// OptionWarning reports one value that was clamped or ignored.
type OptionWarning struct {
	Source     ConfigSource
	KeyPath    string
	Kind       OptionWarningKind
	ClampedInt *int
}

type AppliedOption struct {
	Value  RawOptionValue
	Source ConfigSource
}

type SettingsLayer struct {
	Available bool
	Path      string
	Present   bool
	Values    map[string]RawOptionValue
}

// SettingsResolution is what `reqmatrix config` prints: both layers, the
// resolved config, the winning source per key and every warning.
type SettingsResolution struct {
	Project        SettingsLayer
	Global         SettingsLayer
	Resolved       ResolvedConfig
	Applied        map[string]AppliedOption
	OptionWarnings []OptionWarning
	LayerWarnings  []LayerWarning
}

// settingsSource is one layer being resolved.
type settingsSource struct {
	source   ConfigSource
	layer    SettingsLayer
	raw      RawConfig
	warnings []OptionWarning
}

func openSettingsSource(source ConfigSource, path string, available bool) (settingsSource, *LayerWarning, error) {
	s := settingsSource{
		source: source,
		layer:  SettingsLayer{Available: available, Path: path, Values: map[string]RawOptionValue{}},
	}
	if !available {
		return s, nil, nil
	}
	l, err := readLayer(path)
	if err != nil {
		return settingsSource{}, nil, err
	}
	if l.problem != "" {
		return s, &LayerWarning{Source: source, Kind: l.problem}, nil
	}
	if l.present {
		s.raw = l.cfg
		s.layer.Present = true
		s.layer.Values = RawOptionValues(l.cfg)
		s.warnings = checkOptionValues(source, s.layer.Values)
	}
	return s, nil, nil
}

// supplies reports whether the layer provides a usable value for key.
// Blank strings and rejected choices fall through to the next layer.
func (s settingsSource) supplies(key string) bool {
	v, ok := s.layer.Values[key]
	if !ok {
		return false
	}
	if v.String != nil && normalizeString(v.String) == "" {
		return false
	}
	for _, w := range s.warnings {
		if w.KeyPath == key && w.Kind == OptionWarningInvalidValue {
			return false
		}
	}
	return true
}

// ResolveSettings loads both layers and records, per option, which layer won.
func ResolveSettings(projectRoot string) (SettingsResolution, error) {
	var layerWarnings []LayerWarning

	project, lw, err := openSettingsSource(ConfigSourceLocal, ProjectConfigPath(projectRoot), projectRoot != "")
	if err != nil {
		return SettingsResolution{}, err
	}
	if lw != nil {
		layerWarnings = append(layerWarnings, *lw)
	}
	globalPath, hasHome := GlobalConfigPath()
	global, lw, err := openSettingsSource(ConfigSourceGlobal, globalPath, hasHome)
	if err != nil {
		return SettingsResolution{}, err
	}
	if lw != nil {
		layerWarnings = append(layerWarnings, *lw)
	}

	resolved := ResolveConfig(project.raw, global.raw)
	values := ResolvedOptionValues(resolved)
	applied := make(map[string]AppliedOption, len(values))
	for _, option := range OptionRegistry() {
		source := ConfigSourceDefault
		for _, layer := range []settingsSource{project, global} {
			if layer.supplies(option.KeyPath) {
				source = layer.source
				break
			}
		}
		applied[option.KeyPath] = AppliedOption{Value: values[option.KeyPath], Source: source}
	}

	warnings := append([]OptionWarning{}, project.warnings...)
	return SettingsResolution{
		Project:        project.layer,
		Global:         global.layer,
		Resolved:       resolved,
		Applied:        applied,
		OptionWarnings: append(warnings, global.warnings...),
		LayerWarnings:  layerWarnings,
	}, nil
}

// checkOptionValues flags out-of-range ints and strings outside an option's
// choices, in key order.
func checkOptionValues(source ConfigSource, values map[string]RawOptionValue) []OptionWarning {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []OptionWarning
	for _, key := range keys {
		option, ok := LookupOption(key)
		if !ok {
			continue
		}
		v := values[key]
		if v.Int != nil && option.Bounds != nil {
			if clamped := clampInt(*v.Int, option.Bounds.Min, option.Bounds.Max); clamped != *v.Int {
				out = append(out, OptionWarning{Source: source, KeyPath: key, Kind: OptionWarningOutOfRange, ClampedInt: copyInt(clamped)})
			}
		}
		if v.String != nil && len(option.Choices) > 0 {
			if _, ok := normalizeBackend(v.String); !ok {
				out = append(out, OptionWarning{Source: source, KeyPath: key, Kind: OptionWarningInvalidValue})
			}
		}
	}
	return out
}
