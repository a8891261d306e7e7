package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/metrics"
)

// FetchContent downloads the raw payload of one transaction.
func (c *Client) FetchContent(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("transaction id is required: %w", domain.ErrInvalidArgument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("build content request: %w", err)
	}

	start := time.Now()

	resp, err := c.send(opContent, req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		metrics.GatewayRequestsTotal.WithLabelValues(opContent, "not_found").Inc()
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		observeError(opContent)
		return nil, classify(opContent, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	payload, err := c.readBody(resp)
	if err != nil {
		observeError(opContent)
		return nil, classify(opContent, resp.StatusCode, err)
	}

	observeSuccess(opContent, start)
	return payload, nil
}
