package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/metrics"
)

// txEnvelope mirrors the gateway's signed transaction envelope. Tag names and
// values arrive base64url-encoded without padding.
type txEnvelope struct {
	ID        string   `json:"id"`
	Owner     string   `json:"owner"`
	Signature string   `json:"signature"`
	DataSize  string   `json:"data_size"`
	Quantity  string   `json:"quantity"`
	Reward    string   `json:"reward"`
	Tags      []tagDTO `json:"tags"`
}

// FetchTxMeta loads the signed transaction envelope of one transaction.
func (c *Client) FetchTxMeta(ctx context.Context, id string) (domain.TxMeta, error) {
	if id == "" {
		return domain.TxMeta{}, fmt.Errorf("transaction id is required: %w", domain.ErrInvalidArgument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tx/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.TxMeta{}, fmt.Errorf("build meta request: %w", err)
	}

	start := time.Now()

	resp, err := c.send(opMeta, req)
	if err != nil {
		return domain.TxMeta{}, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		metrics.GatewayRequestsTotal.WithLabelValues(opMeta, "not_found").Inc()
		return domain.TxMeta{}, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		observeError(opMeta)
		return domain.TxMeta{}, classify(opMeta, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	raw, err := c.readBody(resp)
	if err != nil {
		observeError(opMeta)
		return domain.TxMeta{}, classify(opMeta, resp.StatusCode, err)
	}

	var env txEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		observeError(opMeta)
		return domain.TxMeta{}, classify(opMeta, resp.StatusCode, fmt.Errorf("decode tx envelope: %w", err))
	}

	meta := domain.TxMeta{
		ID:        env.ID,
		Owner:     env.Owner,
		Signature: env.Signature,
		Quantity:  env.Quantity,
		Reward:    env.Reward,
		Tags:      decodeTags(env.Tags),
	}
	meta.DataSize, _ = strconv.ParseInt(env.DataSize, 10, 64)

	observeSuccess(opMeta, start)
	return meta, nil
}

// decodeTags translates envelope tags from base64url. A part that does not
// decode keeps its raw form rather than dropping the pair.
func decodeTags(tags []tagDTO) []domain.Tag {
	out := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		name, value := t.Name, t.Value
		if raw, err := base64.RawURLEncoding.DecodeString(t.Name); err == nil {
			name = string(raw)
		}
		if raw, err := base64.RawURLEncoding.DecodeString(t.Value); err == nil {
			value = string(raw)
		}
		out = append(out, domain.Tag{Name: name, Value: value})
	}
	return out
}
