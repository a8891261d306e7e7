package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Gateway: GatewayConfig{URL: "https://gateway.example"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingGatewayURL(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.URL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing gateway url")
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.RateLimitRPS = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative rate limit")
	}
}

func TestValidate_CacheEnabledWithoutAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs set: %v", err)
	}
}

func TestValidate_CacheDisabledWithoutAddrs(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled cache needs no addrs: %v", err)
	}
}

func TestValidate_PageSizeOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Feed.DefaultPageSize = 50
	cfg.Feed.MaxPageSize = 10

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max page size is below default")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Gateway.RequestTimeoutSec != 30 {
		t.Errorf("expected RequestTimeoutSec=30, got %d", cfg.Gateway.RequestTimeoutSec)
	}
	if cfg.Gateway.MaxBodyMB != 16 {
		t.Errorf("expected MaxBodyMB=16, got %d", cfg.Gateway.MaxBodyMB)
	}
	if cfg.Hydrate.Concurrency != 8 {
		t.Errorf("expected Concurrency=8, got %d", cfg.Hydrate.Concurrency)
	}
	if cfg.Hydrate.ItemTimeoutSec != 10 {
		t.Errorf("expected ItemTimeoutSec=10, got %d", cfg.Hydrate.ItemTimeoutSec)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("expected TTLHours=24, got %d", cfg.Cache.TTLHours)
	}
	if cfg.Cache.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Cache.ReadinessTimeout)
	}
	if cfg.Feed.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Feed.DefaultPageSize)
	}
	if cfg.Feed.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Feed.MaxPageSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Gateway: GatewayConfig{RequestTimeoutSec: 5, MaxBodyMB: 4},
		Hydrate: HydrateConfig{Concurrency: 2, ItemTimeoutSec: 3},
		Cache:   CacheConfig{TTLHours: 72},
		Feed:    FeedConfig{DefaultPageSize: 50, MaxPageSize: 500},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Gateway.RequestTimeoutSec != 5 {
		t.Errorf("expected RequestTimeoutSec=5, got %d", cfg.Gateway.RequestTimeoutSec)
	}
	if cfg.Hydrate.Concurrency != 2 {
		t.Errorf("expected Concurrency=2, got %d", cfg.Hydrate.Concurrency)
	}
	if cfg.Cache.TTLHours != 72 {
		t.Errorf("expected TTLHours=72, got %d", cfg.Cache.TTLHours)
	}
	if cfg.Feed.DefaultPageSize != 50 {
		t.Errorf("expected DefaultPageSize=50, got %d", cfg.Feed.DefaultPageSize)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("WEAVEFEED_TEST_URL", "https://g.example")

	in := []byte("url: ${WEAVEFEED_TEST_URL}\nport: ${WEAVEFEED_TEST_PORT:-8080}\n")
	out := string(expandEnvVars(in))

	if out != "url: https://g.example\nport: 8080\n" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
