// Package hydrate turns index references into readable posts by fetching
// transaction payloads with bounded fan-out.
package hydrate

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/metrics"
)

const (
	// DefaultConcurrency is the fan-out width when none is configured.
	DefaultConcurrency = 8
	// MaxConcurrency caps the fan-out width to keep gateway pressure sane.
	MaxConcurrency = 64

	// DefaultItemTimeout bounds a single payload fetch.
	DefaultItemTimeout = 10 * time.Second
)

// Service hydrates transaction references into posts.
type Service struct {
	fetcher     ContentFetcher
	concurrency int
	itemTimeout time.Duration
	logger      *zap.Logger
}

// New creates a hydration service.
func New(fetcher ContentFetcher, logger *zap.Logger) *Service {
	return &Service{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		itemTimeout: DefaultItemTimeout,
		logger:      logger,
	}
}

// WithConcurrency configures the fan-out width, clamped to [1, MaxConcurrency].
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		if n > MaxConcurrency {
			n = MaxConcurrency
		}
		s.concurrency = n
	}
	return s
}

// WithItemTimeout configures the per-item fetch deadline.
func (s *Service) WithItemTimeout(d time.Duration) *Service {
	if d > 0 {
		s.itemTimeout = d
	}
	return s
}

// Hydrate loads payloads for all references. The result holds exactly one
// post per reference, in input order; a failed item is recorded in place and
// never aborts its siblings. Only caller cancellation fails the whole call,
// and then no partial results are returned.
func (s *Service) Hydrate(ctx context.Context, refs []domain.TxReference) ([]domain.HydratedPost, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	start := time.Now()
	posts := make([]domain.HydratedPost, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			posts[i] = s.hydrateOne(gctx, ref)
			return nil // per-item failures are recorded in place, not propagated
		})
	}

	// Workers never return errors, so Wait only blocks until all slots land.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, p := range posts {
		if !p.Hydrated() {
			failed++
		}
	}

	metrics.HydrationDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("page hydrated",
		zap.Int("total", len(posts)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))

	return posts, nil
}

// HydrateOne fetches and decodes a single payload by transaction id, outside
// of any page. Unlike Hydrate, failures surface as errors: there is no batch
// to absorb them into.
func (s *Service) HydrateOne(ctx context.Context, id string) (string, error) {
	itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	raw, err := s.fetcher.FetchContent(itemCtx, id)
	if err != nil {
		metrics.HydrationItemsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("fetch content: %w", err)
	}
	if !utf8.Valid(raw) {
		metrics.HydrationItemsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("transaction %s: %w", id, domain.ErrDecode)
	}

	metrics.HydrationItemsTotal.WithLabelValues("ok").Inc()
	return string(raw), nil
}

// hydrateOne fetches and decodes a single payload under the item deadline.
func (s *Service) hydrateOne(ctx context.Context, ref domain.TxReference) domain.HydratedPost {
	itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	raw, err := s.fetcher.FetchContent(itemCtx, ref.ID())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// The page is being abandoned; the result will be discarded.
			return domain.NewFailedPost(ref, err)
		}
		metrics.HydrationItemsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("hydration failed",
			zap.String("tx", ref.ID()),
			zap.Error(err))
		return domain.NewFailedPost(ref, fmt.Errorf("fetch content: %w", err))
	}

	if !utf8.Valid(raw) {
		metrics.HydrationItemsTotal.WithLabelValues("error").Inc()
		return domain.NewFailedPost(ref, fmt.Errorf("transaction %s: %w", ref.ID(), domain.ErrDecode))
	}

	metrics.HydrationItemsTotal.WithLabelValues("ok").Inc()
	return domain.NewPost(ref, string(raw))
}
