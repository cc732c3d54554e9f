package config

import (
	"fmt"
	"net/url"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "markdown-gateway"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
	defaultUserAgent    = "markdown-gateway/0.1"
	defaultFetchTimeout = 30 * time.Second
	defaultBackend      = "filesystem"
	defaultCacheDir     = "data/cache"
	defaultRedisAddress = "localhost:6379"

	// Converted artifacts older than this are regenerated. Exactly 90 days,
	// not a calendar approximation.
	defaultCacheMaxAge = 90 * 24 * time.Hour
)

// Config holds the application configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Origin  OriginConfig  `yaml:"origin"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"MARKDOWN_GATEWAY_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"             yaml:"debug"`
}

// OriginConfig describes the upstream site whose HTML the gateway converts.
type OriginConfig struct {
	BaseURL   string        `env:"ORIGIN_BASE_URL"   yaml:"base_url"`
	UserAgent string        `env:"ORIGIN_USER_AGENT" yaml:"user_agent"`
	Timeout   time.Duration `env:"ORIGIN_TIMEOUT"    yaml:"timeout"`
}

// CacheConfig selects and configures the object store backend.
type CacheConfig struct {
	// Backend is one of "redis", "filesystem", "memory", "none".
	// "none" runs the gateway in degraded mode: every lookup misses and
	// writes are skipped.
	Backend string        `env:"CACHE_BACKEND" yaml:"backend"`
	MaxAge  time.Duration `yaml:"max_age"`
	Dir     string        `env:"CACHE_DIR"     yaml:"dir"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path, applies defaults, and
// re-applies environment overrides so env always wins.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// SetDefaults applies default values to the config.
func (c *Config) SetDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = defaultVersion
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultServicePort
	}
	if c.Origin.UserAgent == "" {
		c.Origin.UserAgent = defaultUserAgent
	}
	if c.Origin.Timeout == 0 {
		c.Origin.Timeout = defaultFetchTimeout
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultBackend
	}
	if c.Cache.MaxAge == 0 {
		c.Cache.MaxAge = defaultCacheMaxAge
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Cache.Redis.Address == "" {
		c.Cache.Redis.Address = defaultRedisAddress
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLoggingLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLoggingFmt
	}
}

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config field %s %s", e.Field, e.Message)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{Field: "service.port", Message: "must be between 1 and 65535"}
	}
	if c.Origin.BaseURL == "" {
		return &ValidationError{Field: "origin.base_url", Message: "is required"}
	}
	u, err := url.Parse(c.Origin.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "origin.base_url", Message: "must be an absolute http(s) URL"}
	}
	switch c.Cache.Backend {
	case "redis", "filesystem", "memory", "none":
	default:
		return &ValidationError{
			Field:   "cache.backend",
			Message: `must be one of "redis", "filesystem", "memory", "none"`,
		}
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Address == "" {
		return &ValidationError{Field: "cache.redis.address", Message: "is required"}
	}
	return nil
}

// OriginURL returns the parsed origin base URL. Call Validate first.
func (c *Config) OriginURL() (*url.URL, error) {
	return url.Parse(c.Origin.BaseURL)
}
