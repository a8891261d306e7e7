// Package gateway implements the ledger gateway protocol: the GraphQL
// transaction index plus the raw content and transaction metadata endpoints.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/metrics"
)

// Gateway operation labels, shared by metrics and error context.
const (
	opQuery   = "query"
	opContent = "content"
	opMeta    = "meta"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 16 << 20
)

// Client talks to a single ledger gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxBody    int64
	logger     *zap.Logger
}

// Config holds the gateway connection settings.
type Config struct {
	BaseURL        string
	HTTPClient     *http.Client  // optional, defaults to a client with RequestTimeout
	RequestTimeout time.Duration // per-request deadline, default 30s
	RateLimit      float64       // sustained requests per second, 0 disables throttling
	RateBurst      int           // burst allowance, defaults to ceil(RateLimit)
	MaxBodyBytes   int64         // response size cap, default 16 MiB
	Logger         *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required: %w", domain.ErrInvalidArgument)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(math.Ceil(cfg.RateLimit))
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		maxBody:    maxBody,
		logger:     logger,
	}, nil
}

// HealthCheck verifies gateway availability via the network info endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("build info request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway info: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway info: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// send applies throttling and runs the request. Only transport failures are
// classified here; status handling stays with the caller, which knows which
// statuses carry meaning for its endpoint.
func (c *Client) send(op string, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			observeError(op)
			return nil, classify(op, 0, err)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeError(op)
		return nil, classify(op, 0, err)
	}
	return resp, nil
}

// readBody drains a response body enforcing the configured size cap.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > c.maxBody {
		return nil, fmt.Errorf("response exceeds %d byte limit", c.maxBody)
	}
	return raw, nil
}

// classify maps a transport failure onto the domain error taxonomy. Caller
// cancellation passes through so it is never mistaken for a gateway fault.
func classify(op string, status int, err error) error {
	if err != nil && errors.Is(err, context.Canceled) {
		return fmt.Errorf("gateway %s: %w", op, err)
	}
	return domain.NewGatewayError(op, status, isTimeout(err), err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// drain discards a response body so the underlying connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func observeSuccess(op string, start time.Time) {
	metrics.GatewayRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func observeError(op string) {
	metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
}
