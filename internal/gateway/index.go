package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
)

// FetchPage runs one index query and returns matching references in gateway
// order. A page with no matches is a valid empty result, not an error.
func (c *Client) FetchPage(ctx context.Context, spec query.Spec) (domain.IndexPage, error) {
	body, err := json.Marshal(graphqlRequest{Query: buildTransactionQuery(spec)})
	if err != nil {
		return domain.IndexPage{}, fmt.Errorf("marshal index query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return domain.IndexPage{}, fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.send(opQuery, req)
	if err != nil {
		return domain.IndexPage{}, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		observeError(opQuery)
		return domain.IndexPage{}, classify(opQuery, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	raw, err := c.readBody(resp)
	if err != nil {
		observeError(opQuery)
		return domain.IndexPage{}, classify(opQuery, resp.StatusCode, err)
	}

	var envelope indexEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		observeError(opQuery)
		return domain.IndexPage{}, classify(opQuery, resp.StatusCode, fmt.Errorf("decode index response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		observeError(opQuery)
		return domain.IndexPage{}, classify(opQuery, resp.StatusCode, fmt.Errorf("graphql: %s", envelope.Errors[0].Message))
	}
	if envelope.Data == nil {
		observeError(opQuery)
		return domain.IndexPage{}, classify(opQuery, resp.StatusCode, errors.New("response missing data envelope"))
	}

	edges := envelope.Data.Transactions.Edges
	refs := make([]domain.TxReference, 0, len(edges))
	for _, e := range edges {
		refs = append(refs, e.Node.toRef())
	}

	// The continuation cursor is the last edge's cursor, and only when the
	// gateway reports more pages behind it.
	var next string
	if envelope.Data.Transactions.PageInfo.HasNextPage && len(edges) > 0 {
		next = edges[len(edges)-1].Cursor
	}

	observeSuccess(opQuery, start)
	c.logger.Debug("index page fetched",
		zap.Int("refs", len(refs)),
		zap.Bool("has_next", next != ""),
		zap.Duration("duration", time.Since(start)))

	return domain.IndexPage{Refs: refs, NextCursor: next}, nil
}
