package chi

import (
	"context"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
	healthuc "github.com/permaloom/weavefeed/internal/usecase/health"
)

// FeedFetcher resolves one hydrated feed page.
type FeedFetcher interface {
	Fetch(ctx context.Context, spec query.Spec) (domain.ResultPage, error)
}

// PostHydrator fetches and decodes a single transaction payload.
type PostHydrator interface {
	HydrateOne(ctx context.Context, id string) (string, error)
}

// MetaFetcher loads a transaction metadata envelope.
type MetaFetcher interface {
	FetchTxMeta(ctx context.Context, id string) (domain.TxMeta, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
