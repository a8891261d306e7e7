package weavefeed

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	gatewayURL     string
	httpClient     *http.Client
	requestTimeout time.Duration
	rateLimit      float64
	rateBurst      int
	maxBodyBytes   int64

	concurrency int
	itemTimeout time.Duration

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithGateway sets the ledger gateway base URL. Required.
func WithGateway(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.gatewayURL = url
	})
}

// WithHTTPClient supplies the HTTP client used for all gateway calls.
// Overrides WithRequestTimeout; use it to plug in custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRequestTimeout sets the per-request deadline for gateway calls.
// Default: 30s.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.requestTimeout = d
	})
}

// WithRateLimit throttles gateway calls to rps sustained requests per second
// with the given burst. Zero rps disables throttling (default).
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = rps
		c.rateBurst = burst
	})
}

// WithMaxBodyBytes caps the size of any single gateway response.
// Default: 16 MiB.
func WithMaxBodyBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBodyBytes = n
	})
}

// WithConcurrency sets how many payload fetches may run in parallel while
// hydrating a page. Default: 8, capped at 64.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithItemTimeout sets the deadline for a single payload fetch during
// hydration. Default: 10s.
func WithItemTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.itemTimeout = d
	})
}

// WithCache enables the content cache backed by a Redis-compatible store.
// Cached payloads are keyed by transaction id; the ledger's content
// addressing makes invalidation unnecessary.
func WithCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithCacheTTL sets the eviction TTL for cached payloads. Default: 24h.
func WithCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
