package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
origin:
  base_url: https://example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "markdown-gateway", cfg.Service.Name)
	assert.Equal(t, 8094, cfg.Service.Port)
	assert.Equal(t, "filesystem", cfg.Cache.Backend)
	assert.Equal(t, 90*24*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, "data/cache", cfg.Cache.Dir)
	assert.Equal(t, 30*time.Second, cfg.Origin.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadReadsValues(t *testing.T) {
	path := writeConfig(t, `
service:
  name: my-gateway
  port: 9000
  debug: true
origin:
  base_url: https://blog.example.com
  user_agent: custom/1.0
  timeout: 10s
cache:
  backend: redis
  max_age: 48h
  redis:
    address: redis:6379
    db: 2
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-gateway", cfg.Service.Name)
	assert.Equal(t, 9000, cfg.Service.Port)
	assert.True(t, cfg.Service.Debug)
	assert.Equal(t, "https://blog.example.com", cfg.Origin.BaseURL)
	assert.Equal(t, "custom/1.0", cfg.Origin.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Origin.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 48*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Address)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MARKDOWN_GATEWAY_PORT", "8200")
	t.Setenv("ORIGIN_BASE_URL", "https://override.example.com")
	t.Setenv("CACHE_BACKEND", "memory")

	path := writeConfig(t, `
service:
  port: 9000
origin:
  base_url: https://example.com
cache:
  backend: filesystem
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8200, cfg.Service.Port)
	assert.Equal(t, "https://override.example.com", cfg.Origin.BaseURL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.SetDefaults()
		cfg.Origin.BaseURL = "https://example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}, wantErr: ""},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Service.Port = 70000 },
			wantErr: "service.port",
		},
		{
			name:    "origin required",
			mutate:  func(c *Config) { c.Origin.BaseURL = "" },
			wantErr: "origin.base_url",
		},
		{
			name:    "origin must be absolute",
			mutate:  func(c *Config) { c.Origin.BaseURL = "/relative/path" },
			wantErr: "origin.base_url",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Cache.Backend = "s3" },
			wantErr: "cache.backend",
		},
		{
			name: "redis backend needs address",
			mutate: func(c *Config) {
				c.Cache.Backend = "redis"
				c.Cache.Redis.Address = ""
			},
			wantErr: "cache.redis.address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOriginURL(t *testing.T) {
	cfg := &Config{}
	cfg.Origin.BaseURL = "https://example.com/base"

	u, err := cfg.OriginURL()
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "example.com", u.Host)
	assert.Equal(t, "/base", u.Path)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/gateway/config.yml")
	assert.Equal(t, "/etc/gateway/config.yml", GetConfigPath("config.yml"))
}
