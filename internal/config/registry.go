package config

type OptionType string

const (
	OptionTypeBool   OptionType = "bool"
	OptionTypeInt    OptionType = "int"
	OptionTypeString OptionType = "string"
)

type IntBounds struct {
	Min int
	Max int
}

type OptionMetadata struct {
	KeyPath       string
	DisplayName   string
	Type          OptionType
	DefaultInt    int
	DefaultBool   bool
	DefaultString string
	Bounds        *IntBounds
	Choices       []string
	Description   string
}

const (
	keyCatalogPath        = "catalog.path"
	keyStoreBackend       = "store.backend"
	keyStorePath          = "store.path"
	keyStoreRedisAddr     = "store.redisAddr"
	keyStoreRedisDB       = "store.redisDB"
	keyStoreRedisPrefix   = "store.redisPrefix"
	keyServerListenAddr   = "server.listenAddr"
	keyTUIExpandCountries = "tui.expandCountries"
	keyTUIPageSize        = "tui.pageSize"
)

// OptionRegistry returns the known config options in display order.
func OptionRegistry() []OptionMetadata {
	defaults := DefaultResolvedConfig()

	backend := newStringOption(
		keyStoreBackend,
		"Store Backend",
		defaults.Store.Backend,
		"Where saved mappings live",
	)
	backend.Choices = append([]string(nil), StoreBackends...)

	return []OptionMetadata{
		newStringOption(keyCatalogPath, "Catalog Path", defaults.Catalog.Path, "Location/requirement/service catalog (JSON or YAML)"),
		backend,
		newStringOption(keyStorePath, "Store Path", defaults.Store.Path, "Mapping directory (file) or database file (sqlite)"),
		newStringOption(keyStoreRedisAddr, "Redis Address", defaults.Store.RedisAddr, "host:port of the redis server"),
		newIntOption(keyStoreRedisDB, "Redis DB", defaults.Store.RedisDB, MinRedisDB, MaxRedisDB, "Redis logical database"),
		newStringOption(keyStoreRedisPrefix, "Redis Key Prefix", defaults.Store.RedisPrefix, "Prefix for every redis key"),
		newStringOption(keyServerListenAddr, "Server Listen Address", defaults.Server.ListenAddr, "Address for `reqmatrix serve`"),
		newBoolOption(keyTUIExpandCountries, "TUI Expand Countries", defaults.TUI.ExpandCountries, "Start the editor with every country expanded"),
		newIntOption(keyTUIPageSize, "TUI Page Size", defaults.TUI.PageSize, MinPageSize, MaxPageSize, "Rows moved by page up/down"),
	}
}

// LookupOption finds a registry entry by key path.
func LookupOption(keyPath string) (OptionMetadata, bool) {
	for _, option := range OptionRegistry() {
		if option.KeyPath == keyPath {
			return option, true
		}
	}
	return OptionMetadata{}, false
}

func newIntOption(keyPath string, displayName string, defaultValue int, min int, max int, description string) OptionMetadata {
	return OptionMetadata{
		KeyPath:     keyPath,
		DisplayName: displayName,
		Type:        OptionTypeInt,
		DefaultInt:  defaultValue,
		Bounds: &IntBounds{
			Min: min,
			Max: max,
		},
		Description: description,
	}
}

func newBoolOption(keyPath string, displayName string, defaultValue bool, description string) OptionMetadata {
	return OptionMetadata{
		KeyPath:     keyPath,
		DisplayName: displayName,
		Type:        OptionTypeBool,
		DefaultBool: defaultValue,
		Description: description,
	}
}

func newStringOption(keyPath string, displayName string, defaultValue string, description string) OptionMetadata {
	return OptionMetadata{
		KeyPath:       keyPath,
		DisplayName:   displayName,
		Type:          OptionTypeString,
		DefaultString: defaultValue,
		Description:   description,
	}
}
