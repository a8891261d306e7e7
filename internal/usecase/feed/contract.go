package feed

import (
	"context"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
)

// IndexReader runs one index query page against the gateway.
type IndexReader interface {
	FetchPage(ctx context.Context, spec query.Spec) (domain.IndexPage, error)
}

// Hydrator loads payloads for a page of references.
type Hydrator interface {
	Hydrate(ctx context.Context, refs []domain.TxReference) ([]domain.HydratedPost, error)
}
