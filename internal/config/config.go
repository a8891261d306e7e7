package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the weavefeed API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Gateway GatewayConfig `yaml:"gateway"`
	Hydrate HydrateConfig `yaml:"hydrate"`
	Cache   CacheConfig   `yaml:"cache"`
	Feed    FeedConfig    `yaml:"feed"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// GatewayConfig holds ledger gateway connection settings.
type GatewayConfig struct {
	URL               string  `yaml:"url"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RateLimitRPS      float64 `yaml:"rate_limit_rps"` // 0 = unthrottled
	RateBurst         int     `yaml:"rate_burst"`
	MaxBodyMB         int     `yaml:"max_body_mb"`
}

// HydrateConfig holds payload hydration settings.
type HydrateConfig struct {
	Concurrency    int `yaml:"concurrency"`
	ItemTimeoutSec int `yaml:"item_timeout_sec"`
}

// CacheConfig holds content cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// FeedConfig holds pagination settings.
type FeedConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Gateway.RequestTimeoutSec <= 0 {
		c.Gateway.RequestTimeoutSec = 30
	}
	if c.Gateway.MaxBodyMB <= 0 {
		c.Gateway.MaxBodyMB = 16
	}
	if c.Hydrate.Concurrency <= 0 {
		c.Hydrate.Concurrency = 8
	}
	if c.Hydrate.ItemTimeoutSec <= 0 {
		c.Hydrate.ItemTimeoutSec = 10
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Feed.DefaultPageSize <= 0 {
		c.Feed.DefaultPageSize = 20
	}
	if c.Feed.MaxPageSize <= 0 {
		c.Feed.MaxPageSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if c.Gateway.RateLimitRPS < 0 {
		return fmt.Errorf("gateway.rate_limit_rps must not be negative, got %f", c.Gateway.RateLimitRPS)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Feed.MaxPageSize < c.Feed.DefaultPageSize {
		return fmt.Errorf(
			"feed.max_page_size (%d) must not be below feed.default_page_size (%d)",
			c.Feed.MaxPageSize, c.Feed.DefaultPageSize,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
