// Package feed orchestrates one page of the query-and-hydrate pipeline:
// index lookup, payload hydration, and result assembly.
package feed

import (
	"context"
	"fmt"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
)

// Service runs feed queries end to end.
type Service struct {
	index IndexReader
	hyd   Hydrator
}

// New creates a feed service.
func New(index IndexReader, hyd Hydrator) *Service {
	return &Service{index: index, hyd: hyd}
}

// Fetch resolves one page: query the index, hydrate every reference, and
// pair results back up in index order.
func (s *Service) Fetch(ctx context.Context, spec query.Spec) (domain.ResultPage, error) {
	page, err := s.index.FetchPage(ctx, spec)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("fetch index page: %w", err)
	}

	if len(page.Refs) == 0 {
		return domain.ResultPage{NextCursor: page.NextCursor}, nil
	}

	posts, err := s.hyd.Hydrate(ctx, page.Refs)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("hydrate page: %w", err)
	}

	return assemble(page, posts)
}

// assemble pairs hydrated posts with the page cursor. The pipeline guarantees
// one post per reference in index order; a mismatch is an internal bug and is
// surfaced as ErrInvariant rather than silently misattributing content.
func assemble(page domain.IndexPage, posts []domain.HydratedPost) (domain.ResultPage, error) {
	if len(posts) != len(page.Refs) {
		return domain.ResultPage{}, fmt.Errorf("post count %d does not match ref count %d: %w",
			len(posts), len(page.Refs), domain.ErrInvariant)
	}
	for i := range posts {
		if posts[i].Ref().ID() != page.Refs[i].ID() {
			return domain.ResultPage{}, fmt.Errorf("post %d holds tx %s, expected %s: %w",
				i, posts[i].Ref().ID(), page.Refs[i].ID(), domain.ErrInvariant)
		}
	}
	return domain.ResultPage{Items: posts, NextCursor: page.NextCursor}, nil
}
