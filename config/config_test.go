package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TMDB_READ_ACCESS_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.TMDB.Timeout)
	assert.Equal(t, uint(2), cfg.TMDB.RetryAttempts)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "user_watchlist", cfg.Watchlist.Key)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.SearchTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TMDB_READ_ACCESS_TOKEN", "token")
	t.Setenv("STORAGE_BACKEND", " Redis ")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("WATCHLIST_KEY", "other_list")
	t.Setenv("TMDB_RETRY_ATTEMPTS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, "other_list", cfg.Watchlist.Key)
	assert.Equal(t, uint(1), cfg.TMDB.RetryAttempts)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("TMDB_READ_ACCESS_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("TMDB_READ_ACCESS_TOKEN", "token")
	t.Setenv("STORAGE_BACKEND", "localstorage")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported STORAGE_BACKEND")
}
