// Package query builds validated, immutable index query specifications.
package query

import (
	"fmt"

	"github.com/permaloom/weavefeed/internal/domain"
)

// Page size limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Order is the index sort order.
type Order string

// Sort order constants.
const (
	// NewestFirst sorts by descending block height (unconfirmed first).
	NewestFirst Order = "newest_first"
	// OldestFirst sorts by ascending block height.
	OldestFirst Order = "oldest_first"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == NewestFirst || o == OldestFirst
}

// Spec is a validated, immutable index query: tag filters, page size, sort
// order, and an optional pagination cursor. Filters apply conjunctively and
// their order is preserved so identical specs serialize identically on the wire.
type Spec struct {
	filters  []domain.TagFilter
	pageSize int
	order    Order
	cursor   string
}

// New validates and normalizes query parameters.
// Defaults: pageSize=20 when zero, order=newest-first when empty.
// An empty filter list is a valid unfiltered query.
func New(filters []domain.TagFilter, pageSize int, order Order, cursor string) (Spec, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return Spec{}, fmt.Errorf(
			"%w: page size must be between 1 and %d, got %d",
			domain.ErrInvalidArgument, MaxPageSize, pageSize,
		)
	}
	if order == "" {
		order = NewestFirst
	}
	if !order.IsValid() {
		return Spec{}, fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidArgument, order)
	}
	for _, f := range filters {
		if f.Name() == "" || len(f.Values()) == 0 {
			return Spec{}, fmt.Errorf("%w: filter constructed without NewTagFilter", domain.ErrInvalidArgument)
		}
	}

	return Spec{
		filters:  filters,
		pageSize: pageSize,
		order:    order,
		cursor:   cursor,
	}, nil
}

// Filters returns the tag filters in the order they serialize.
func (s Spec) Filters() []domain.TagFilter { return s.filters }

// PageSize returns the requested number of index entries.
func (s Spec) PageSize() int { return s.pageSize }

// Order returns the requested sort order.
func (s Spec) Order() Order { return s.order }

// Cursor returns the opaque pagination cursor ("" for the first page).
func (s Spec) Cursor() string { return s.cursor }

// WithCursor returns a copy of the spec positioned after the given cursor.
func (s Spec) WithCursor(cursor string) Spec {
	return Spec{filters: s.filters, pageSize: s.pageSize, order: s.order, cursor: cursor}
}
