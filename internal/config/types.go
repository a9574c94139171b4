package config

const (
	SchemaVersion = 1

	DirName  = ".reqmatrix"
	FileName = "config.json"

	DefaultCatalogPath     = "reqmatrix.catalog.json"
	DefaultStoreBackend    = "file"
	DefaultFileStorePath   = ".reqmatrix/mappings"
	DefaultSQLiteStorePath = ".reqmatrix/reqmatrix.db"
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisDB         = 0
	DefaultRedisPrefix     = "reqmatrix"
	DefaultListenAddr      = "127.0.0.1:8089"
	DefaultExpandCountries = false
	DefaultPageSize        = 20

	MinPageSize = 5
	MaxPageSize = 200
	MinRedisDB  = 0
	MaxRedisDB  = 15
)

var StoreBackends = []string{"file", "sqlite", "redis", "memory"}

type RawConfig struct {
	SchemaVersion *int        `json:"schemaVersion,omitempty"`
	Catalog       *RawCatalog `json:"catalog,omitempty"`
	Store         *RawStore   `json:"store,omitempty"`
	Server        *RawServer  `json:"server,omitempty"`
	TUI           *RawTUI     `json:"tui,omitempty"`
}

type RawCatalog struct {
	Path *string `json:"path,omitempty"`
}

type RawStore struct {
	Backend     *string `json:"backend,omitempty"`
	Path        *string `json:"path,omitempty"`
	RedisAddr   *string `json:"redisAddr,omitempty"`
	RedisDB     *int    `json:"redisDB,omitempty"`
	RedisPrefix *string `json:"redisPrefix,omitempty"`
}

type RawServer struct {
	ListenAddr *string `json:"listenAddr,omitempty"`
}

type RawTUI struct {
	ExpandCountries *bool `json:"expandCountries,omitempty"`
	PageSize        *int  `json:"pageSize,omitempty"`
}

type ResolvedConfig struct {
	SchemaVersion int             `json:"schemaVersion"`
	Catalog       ResolvedCatalog `json:"catalog"`
	Store         ResolvedStore   `json:"store"`
	Server        ResolvedServer  `json:"server"`
	TUI           ResolvedTUI     `json:"tui"`
}

type ResolvedCatalog struct {
	Path string `json:"path"`
}

// ResolvedStore.Path is the backend-specific default when no layer sets it.
type ResolvedStore struct {
	Backend     string `json:"backend"`
	Path        string `json:"path"`
	RedisAddr   string `json:"redisAddr"`
	RedisDB     int    `json:"redisDB"`
	RedisPrefix string `json:"redisPrefix"`
}

type ResolvedServer struct {
	ListenAddr string `json:"listenAddr"`
}

type ResolvedTUI struct {
	ExpandCountries bool `json:"expandCountries"`
	PageSize        int  `json:"pageSize"`
}

func DefaultResolvedConfig() ResolvedConfig {
	return ResolvedConfig{
		SchemaVersion: SchemaVersion,
		Catalog: ResolvedCatalog{
			Path: DefaultCatalogPath,
		},
		Store: ResolvedStore{
			Backend:     DefaultStoreBackend,
			Path:        DefaultFileStorePath,
			RedisAddr:   DefaultRedisAddr,
			RedisDB:     DefaultRedisDB,
			RedisPrefix: DefaultRedisPrefix,
		},
		Server: ResolvedServer{
			ListenAddr: DefaultListenAddr,
		},
		TUI: ResolvedTUI{
			ExpandCountries: DefaultExpandCountries,
			PageSize:        DefaultPageSize,
		},
	}
}

func defaultStorePath(backend string) string {
	if backend == "sqlite" {
		return DefaultSQLiteStorePath
	}
	return DefaultFileStorePath
}
