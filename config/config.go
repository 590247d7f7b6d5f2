// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backend names
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds the full application configuration
type Config struct {
	App       AppConfig
	TMDB      TMDBConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Watchlist WatchlistConfig
}

// AppConfig holds HTTP server and logging settings
type AppConfig struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// TMDBConfig holds catalog API settings
type TMDBConfig struct {
	ReadAccessToken string        `envconfig:"TMDB_READ_ACCESS_TOKEN" required:"true"`
	BaseURL         string        `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	Timeout         time.Duration `envconfig:"TMDB_TIMEOUT" default:"30s"`
	RetryAttempts   uint          `envconfig:"TMDB_RETRY_ATTEMPTS" default:"2"`
}

// StorageConfig selects and configures the watchlist slot backend
type StorageConfig struct {
	Backend    string `envconfig:"STORAGE_BACKEND" default:"sqlite"`
	FileDir    string `envconfig:"STORAGE_FILE_DIR" default:"data"`
	SQLitePath string `envconfig:"STORAGE_SQLITE_PATH" default:"cinelist.db"`
}

// RedisConfig holds connection settings for the redis backend
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// CacheConfig controls the catalog response cache and trending refresh job
type CacheConfig struct {
	Enabled                 bool          `envconfig:"CACHE_ENABLED" default:"true"`
	Size                    int           `envconfig:"CACHE_SIZE" default:"256"`
	TTL                     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	SearchTTL               time.Duration `envconfig:"CACHE_SEARCH_TTL" default:"1m"`
	TrendingRefreshInterval time.Duration `envconfig:"TRENDING_REFRESH_INTERVAL" default:"4m"`
}

// WatchlistConfig holds watchlist persistence settings
type WatchlistConfig struct {
	Key string `envconfig:"WATCHLIST_KEY" default:"user_watchlist"`
}

// Load reads an optional .env file and then parses the environment
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.TMDB.ReadAccessToken) == "" {
		return fmt.Errorf("TMDB_READ_ACCESS_TOKEN is required")
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case StorageMemory, StorageFile, StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Watchlist.Key) == "" {
		return fmt.Errorf("WATCHLIST_KEY must not be blank")
	}
	if c.TMDB.RetryAttempts == 0 {
		c.TMDB.RetryAttempts = 1
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.Cache.Size)
	}
	return nil
}
