package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterprint/waterprint/internal/catalog"
)

func validConfig() *Config {
	return &Config{
		Listen:            "0.0.0.0:3003",
		RecomputeSchedule: "0 * * * *",
		Database:          &DatabaseConfig{Path: "./data/waterprint.db"},
		Cache:             &CacheConfig{Type: CacheTypeMemory},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "empty schedule disables recompute",
			mutate: func(c *Config) { c.RecomputeSchedule = "" },
		},
		{
			name:        "missing listen address",
			mutate:      func(c *Config) { c.Listen = "" },
			errorString: "listen address is required",
		},
		{
			name:        "invalid cron",
			mutate:      func(c *Config) { c.RecomputeSchedule = "* * *" },
			errorString: "recompute schedule must be a valid cron expression",
		},
		{
			name:        "missing database path",
			mutate:      func(c *Config) { c.Database = &DatabaseConfig{} },
			errorString: "database path is required",
		},
		{
			name: "redis without url",
			mutate: func(c *Config) {
				c.Cache = &CacheConfig{Type: CacheTypeRedis}
			},
			errorString: "Redis URL is required",
		},
		{
			name:        "unknown cache type",
			mutate:      func(c *Config) { c.Cache = &CacheConfig{Type: "memcached"} },
			errorString: "unknown cache type",
		},
		{
			name: "zero factor category",
			mutate: func(c *Config) {
				c.Categories = []catalog.Entry{{ID: 100, Name: "Beef", Factor: 0}}
			},
			errorString: "invalid categories",
		},
		{
			name: "category collides with built-in id",
			mutate: func(c *Config) {
				c.Categories = []catalog.Entry{{ID: 1, Name: "Beef", Factor: 15400}}
			},
			errorString: "duplicate category id",
		},
		{
			name: "email enabled without host",
			mutate: func(c *Config) {
				c.Email = &EmailConfig{Enabled: true, FromEmail: "a@example.com", SMTPPort: 587}
			},
			errorString: "SMTP host is required",
		},
		{
			name:        "invalid chart size",
			mutate:      func(c *Config) { c.Chart = &ChartConfig{Width: 0, Height: 10} },
			errorString: "chart width and height",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestValidateConfigDefaultsCache(t *testing.T) {
	c := validConfig()
	c.Cache = nil
	require.NoError(t, validateConfig(c))
	require.NotNil(t, c.Cache)
	assert.Equal(t, CacheTypeMemory, c.Cache.Type)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
listen: "127.0.0.1:8080/"
database:
  path: ` + filepath.Join(dir, "test.db") + `
categories:
  - id: 100
    name: " Beef "
    factor: 15400
    unit: kg
chart:
  width: 640
  height: 480
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "0 * * * *", cfg.RecomputeSchedule)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "Beef", cfg.Categories[0].Name)
	assert.Len(t, cfg.CatalogEntries(), 8)

	w, h := cfg.GetChartSize()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("chart:\n  width: 800\n  height: 600\n"), 0o600))

	t.Setenv("WATERPRINT_LISTEN", "127.0.0.1:9999")
	t.Setenv("WATERPRINT_DATABASE_PATH", filepath.Join(dir, "env.db"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
	assert.Equal(t, filepath.Join(dir, "env.db"), cfg.Database.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadInvalidFactorFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
categories:
  - id: 100
    name: Beef
    factor: -3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrInvalidFactor)
}
