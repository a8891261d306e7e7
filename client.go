package weavefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/db"
	dbRedis "github.com/permaloom/weavefeed/internal/db/redis"
	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
	"github.com/permaloom/weavefeed/internal/gateway"
	"github.com/permaloom/weavefeed/internal/repository/contentcache"
	feeduc "github.com/permaloom/weavefeed/internal/usecase/feed"
	healthuc "github.com/permaloom/weavefeed/internal/usecase/health"
	"github.com/permaloom/weavefeed/internal/usecase/hydrate"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type feedUseCase interface {
	Fetch(ctx context.Context, spec query.Spec) (domain.ResultPage, error)
}

type postUseCase interface {
	HydrateOne(ctx context.Context, id string) (string, error)
}

type gatewayAPI interface {
	HealthCheck(ctx context.Context) error
	FetchTxMeta(ctx context.Context, id string) (domain.TxMeta, error)
}

// Client is the weavefeed entry point.
type Client struct {
	store     db.Store // nil when the content cache is disabled
	gw        gatewayAPI
	feedSvc   feedUseCase
	postSvc   postUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a weavefeed Client. The provided context bounds the cache
// readiness check when WithCache is set; the gateway itself is not contacted
// until the first operation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.gatewayURL == "" {
		return nil, errors.New("weavefeed: gateway URL required (use WithGateway)")
	}

	gw, err := gateway.NewClient(&gateway.Config{
		BaseURL:        cfg.gatewayURL,
		HTTPClient:     cfg.httpClient,
		RequestTimeout: cfg.requestTimeout,
		RateLimit:      cfg.rateLimit,
		RateBurst:      cfg.rateBurst,
		MaxBodyBytes:   cfg.maxBodyBytes,
		Logger:         zap.NewNop(),
	})
	if err != nil {
		return nil, fmt.Errorf("weavefeed: create gateway client: %w", err)
	}

	var store db.Store
	if len(cfg.cacheAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("weavefeed: create cache store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("weavefeed: cache not ready: %w", err)
		}
		store = s
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(gw, store, cfg, obs), nil
}

func wireClient(gw *gateway.Client, store db.Store, cfg *clientConfig, obs *observer) *Client {
	var fetcher hydrate.ContentFetcher = gw
	if store != nil {
		fetcher = contentcache.New(gw, store, cfg.cacheTTL, nil, zap.NewNop())
	}

	hyd := hydrate.New(fetcher, zap.NewNop())
	if cfg.concurrency > 0 {
		hyd = hyd.WithConcurrency(cfg.concurrency)
	}
	if cfg.itemTimeout > 0 {
		hyd = hyd.WithItemTimeout(cfg.itemTimeout)
	}

	return &Client{
		store:     store,
		gw:        gw,
		feedSvc:   feeduc.New(gw, hyd),
		postSvc:   hyd,
		healthSvc: healthuc.New(gw, store),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks gateway connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.gw.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Post fetches and hydrates a single transaction by id. Only ID and Content
// are populated: no index query runs, so the reference fields stay zero.
// Unlike feed hydration, a payload failure is returned as an error.
func (c *Client) Post(ctx context.Context, id string) (_ Post, err error) {
	start := time.Now()
	defer func() { c.obs.observe("post.get", start, err) }()

	if id == "" {
		err = fmt.Errorf("weavefeed: transaction id required: %w", domain.ErrInvalidArgument)
		return Post{}, err
	}

	content, err := c.postSvc.HydrateOne(ctx, id)
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return Post{ID: id, Content: content}, nil
}

// TxMeta fetches the full transaction envelope by id.
func (c *Client) TxMeta(ctx context.Context, id string) (_ TxMeta, err error) {
	start := time.Now()
	defer func() { c.obs.observe("tx.meta", start, err) }()

	if id == "" {
		err = fmt.Errorf("weavefeed: transaction id required: %w", domain.ErrInvalidArgument)
		return TxMeta{}, err
	}

	m, err := c.gw.FetchTxMeta(ctx, id)
	if err != nil {
		return TxMeta{}, fmt.Errorf("get tx meta: %w", err)
	}
	return fromInternalMeta(m), nil
}

// Feed starts a feed query builder.
func (c *Client) Feed() *FeedBuilder {
	return &FeedBuilder{client: c}
}
