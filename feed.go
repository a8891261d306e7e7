package weavefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
)

// FeedBuilder is a fluent builder for feed queries.
type FeedBuilder struct {
	client *Client

	filters  []domain.TagFilter
	pageSize int
	order    query.Order
	cursor   string

	// Первая ошибка билдера: всплывает в Do.
	err error
}

// Tag adds a tag filter: a transaction matches when it carries a tag named
// name whose value equals any of values. Multiple Tag calls are ANDed.
func (b *FeedBuilder) Tag(name string, values ...string) *FeedBuilder {
	if b.err != nil {
		return b
	}
	f, err := domain.NewTagFilter(name, values...)
	if err != nil {
		b.err = err
		return b
	}
	b.filters = append(b.filters, f)
	return b
}

// PageSize sets how many transactions one page covers (1..100, default 20).
func (b *FeedBuilder) PageSize(n int) *FeedBuilder {
	b.pageSize = n
	return b
}

// Newest orders the feed newest-first. This is the default.
func (b *FeedBuilder) Newest() *FeedBuilder {
	b.order = query.NewestFirst
	return b
}

// Oldest orders the feed oldest-first.
func (b *FeedBuilder) Oldest() *FeedBuilder {
	b.order = query.OldestFirst
	return b
}

// After resumes the feed from a cursor returned in a previous Page.
func (b *FeedBuilder) After(cursor string) *FeedBuilder {
	b.cursor = cursor
	return b
}

// Do runs the query and returns one hydrated page.
func (b *FeedBuilder) Do(ctx context.Context) (_ Page, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("feed.fetch", start, err) }()

	if b.err != nil {
		err = fmt.Errorf("weavefeed: %w", b.err)
		return Page{}, err
	}

	spec, err := query.New(b.filters, b.pageSize, b.order, b.cursor)
	if err != nil {
		return Page{}, fmt.Errorf("weavefeed: %w", err)
	}

	page, err := b.client.feedSvc.Fetch(ctx, spec)
	if err != nil {
		return Page{}, fmt.Errorf("fetch feed: %w", err)
	}
	return fromInternalPage(page), nil
}
