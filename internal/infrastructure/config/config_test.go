package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir 切換到暫存目錄，避免讀到專案內的 config.yaml 或 .env
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ulam_ai_recipe_cache_v1", cfg.Cache.DocumentKey)
	assert.Equal(t, 8, cfg.Oracle.MinDishes)
	assert.Equal(t, 15, cfg.Oracle.MaxDishes)
	assert.Equal(t, "Filipino", cfg.Oracle.Cuisine)
	assert.Equal(t, 3*time.Second, cfg.ImageSearch.VerifyTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.False(t, cfg.ImageSearch.Configured())
	assert.Contains(t, cfg.ImageSearch.AllowedDomains, "panlasangpinoy")
}

func TestLoadConfigFromEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
server:
  port: 9090
oracle:
  cuisine: Ilocano
session:
  ttl: 30m
`), 0o644))

	t.Setenv("OPENROUTER_API_KEY", "sk-or-1234567890")
	t.Setenv("SEARCH_API_KEY", "search-key")
	t.Setenv("SEARCH_ENGINE_ID", "engine")
	t.Setenv("APP_STORE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Ilocano", cfg.Oracle.Cuisine)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "sk-or-1234567890", cfg.OpenRouter.APIKey)
	assert.True(t, cfg.ImageSearch.Configured())
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"store driver", map[string]string{"APP_STORE_DRIVER": "mongo"}},
		{"database driver", map[string]string{"APP_DATABASE_DRIVER": "oracle"}},
		{"dish range", map[string]string{"APP_ORACLE_MIN_DISHES": "10", "APP_ORACLE_MAX_DISHES": "5"}},
		{"queue size", map[string]string{"APP_QUEUE_WORKERS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-o...7890", maskAPIKey("sk-or-1234567890"))
}
