package hydrate

import "context"

// ContentFetcher loads the raw payload of one transaction.
type ContentFetcher interface {
	FetchContent(ctx context.Context, id string) ([]byte, error)
}
