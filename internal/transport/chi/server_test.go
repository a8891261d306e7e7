package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
	healthuc "github.com/permaloom/weavefeed/internal/usecase/health"
)

type stubFeed struct {
	fetchFn func(ctx context.Context, spec query.Spec) (domain.ResultPage, error)
}

func (s *stubFeed) Fetch(ctx context.Context, spec query.Spec) (domain.ResultPage, error) {
	return s.fetchFn(ctx, spec)
}

type stubPosts struct {
	hydrateFn func(ctx context.Context, id string) (string, error)
}

func (s *stubPosts) HydrateOne(ctx context.Context, id string) (string, error) {
	return s.hydrateFn(ctx, id)
}

type stubMeta struct {
	metaFn func(ctx context.Context, id string) (domain.TxMeta, error)
}

func (s *stubMeta) FetchTxMeta(ctx context.Context, id string) (domain.TxMeta, error) {
	return s.metaFn(ctx, id)
}

type stubHealth struct {
	report healthuc.Report
}

func (s *stubHealth) Check(_ context.Context) healthuc.Report { return s.report }

func testRouter(srv *Server) http.Handler {
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSearchFeed_OK(t *testing.T) {
	var gotSpec query.Spec
	feed := &stubFeed{fetchFn: func(_ context.Context, spec query.Spec) (domain.ResultPage, error) {
		gotSpec = spec
		tags := []domain.Tag{{Name: "App-Name", Value: "PublicSquare"}}
		return domain.ResultPage{
			Items: []domain.HydratedPost{
				domain.NewPost(domain.ReconstructRef("tx-1", "owner-1", tags, 64, 1500, 1700000000), "hello"),
				domain.NewFailedPost(domain.ReconstructPendingRef("tx-2", "owner-2", tags, 128),
					fmt.Errorf("decode: %w", domain.ErrDecode)),
			},
			NextCursor: "cur-2",
		}, nil
	}}
	h := testRouter(NewServer(feed, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{
		Filters:  []tagFilterRequest{{Name: "App-Name", Values: []string{"PublicSquare"}}},
		PageSize: 2,
		Sort:     "oldest_first",
		Cursor:   "cur-1",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got := len(gotSpec.Filters()); got != 1 {
		t.Fatalf("spec filters: got %d, want 1", got)
	}
	if gotSpec.PageSize() != 2 || gotSpec.Order() != query.OldestFirst || gotSpec.Cursor() != "cur-1" {
		t.Errorf("spec: got (%d, %s, %q)", gotSpec.PageSize(), gotSpec.Order(), gotSpec.Cursor())
	}

	var resp feedResponse
	decodeBody(t, rr, &resp)

	if len(resp.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(resp.Items))
	}
	first := resp.Items[0]
	if first.ID != "tx-1" || first.Owner != "owner-1" || first.Size != 64 {
		t.Errorf("first item: got %+v", first)
	}
	if first.BlockHeight != 1500 || first.BlockTimestamp != 1700000000 || !first.Confirmed {
		t.Errorf("first item block fields: got %+v", first)
	}
	if first.Content != "hello" || first.Error != nil {
		t.Errorf("first item content: got %q, err %v", first.Content, first.Error)
	}

	second := resp.Items[1]
	if second.ID != "tx-2" || second.Confirmed || second.Content != "" {
		t.Errorf("second item: got %+v", second)
	}
	if second.Error == nil {
		t.Fatal("second item: expected error")
	}
	if second.Error.Code != codePayloadNotText {
		t.Errorf("second item code: got %s, want %s", second.Error.Code, codePayloadNotText)
	}
	if second.Error.Message != domain.ErrDecode.Error() {
		t.Errorf("second item message: got %q", second.Error.Message)
	}
	if resp.NextCursor != "cur-2" {
		t.Errorf("next cursor: got %q, want cur-2", resp.NextCursor)
	}
}

func TestSearchFeed_BadJSON(t *testing.T) {
	h := testRouter(NewServer(nil, nil, nil, nil, zap.NewNop()))

	req := httptest.NewRequest(http.MethodPost, "/v1/feed/search", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != codeBadRequest {
		t.Errorf("code: got %s, want %s", resp.Code, codeBadRequest)
	}
}

func TestSearchFeed_PageSizeOverMax(t *testing.T) {
	h := testRouter(NewServer(nil, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{PageSize: query.MaxPageSize + 1})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != codeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, codeValidationFailed)
	}
}

func TestSearchFeed_BadFilter(t *testing.T) {
	h := testRouter(NewServer(nil, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{
		Filters: []tagFilterRequest{{Name: "", Values: []string{"x"}}},
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != codeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, codeValidationFailed)
	}
}

func TestSearchFeed_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   errCode
	}{
		{"invalid argument", fmt.Errorf("%w: bad cursor", domain.ErrInvalidArgument), http.StatusBadRequest, codeValidationFailed},
		{"not found", fmt.Errorf("fetch: %w", domain.ErrNotFound), http.StatusNotFound, codeNotFound},
		{"decode", fmt.Errorf("fetch: %w", domain.ErrDecode), http.StatusUnprocessableEntity, codePayloadNotText},
		{"gateway", domain.NewGatewayError("query", http.StatusServiceUnavailable, false, errors.New("boom")), http.StatusBadGateway, codeGatewayUnavailable},
		{"gateway timeout", domain.NewGatewayError("query", 0, true, context.DeadlineExceeded), http.StatusGatewayTimeout, codeGatewayTimeout},
		{"deadline exceeded", fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, codeGatewayTimeout},
		{"cancelled", fmt.Errorf("fetch: %w", context.Canceled), statusClientClosedRequest, codeRequestCancelled},
		{"invariant", fmt.Errorf("assemble: %w", domain.ErrInvariant), http.StatusInternalServerError, codeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &stubFeed{fetchFn: func(context.Context, query.Spec) (domain.ResultPage, error) {
				return domain.ResultPage{}, tt.err
			}}
			h := testRouter(NewServer(feed, nil, nil, nil, zap.NewNop()))

			rr := doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{})

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp errorResponse
			decodeBody(t, rr, &resp)
			if resp.Code != tt.wantCode {
				t.Errorf("code: got %s, want %s", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestSearchFeed_InvariantMessageHidden(t *testing.T) {
	feed := &stubFeed{fetchFn: func(context.Context, query.Spec) (domain.ResultPage, error) {
		return domain.ResultPage{}, fmt.Errorf("assemble: item 3 for ref tx-9: %w", domain.ErrInvariant)
	}}
	h := testRouter(NewServer(feed, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{})

	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Message != "internal error" {
		t.Errorf("message leaked internals: %q", resp.Message)
	}
}

func TestGetFeed_QueryParams(t *testing.T) {
	var gotSpec query.Spec
	feed := &stubFeed{fetchFn: func(_ context.Context, spec query.Spec) (domain.ResultPage, error) {
		gotSpec = spec
		return domain.ResultPage{}, nil
	}}
	h := testRouter(NewServer(feed, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet,
		"/v1/feed?app=PublicSquare&content_type=text/plain&page_size=5&sort=oldest_first&cursor=c1", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	filters := gotSpec.Filters()
	if len(filters) != 2 {
		t.Fatalf("filters: got %d, want 2", len(filters))
	}
	if filters[0].Name() != "App-Name" || filters[0].Values()[0] != "PublicSquare" {
		t.Errorf("app filter: got %s=%v", filters[0].Name(), filters[0].Values())
	}
	if filters[1].Name() != "Content-Type" || filters[1].Values()[0] != "text/plain" {
		t.Errorf("content type filter: got %s=%v", filters[1].Name(), filters[1].Values())
	}
	if gotSpec.PageSize() != 5 || gotSpec.Order() != query.OldestFirst || gotSpec.Cursor() != "c1" {
		t.Errorf("spec: got (%d, %s, %q)", gotSpec.PageSize(), gotSpec.Order(), gotSpec.Cursor())
	}
}

func TestGetFeed_Defaults(t *testing.T) {
	var gotSpec query.Spec
	feed := &stubFeed{fetchFn: func(_ context.Context, spec query.Spec) (domain.ResultPage, error) {
		gotSpec = spec
		return domain.ResultPage{}, nil
	}}
	h := testRouter(NewServer(feed, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/v1/feed", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if len(gotSpec.Filters()) != 0 {
		t.Errorf("filters: got %d, want 0", len(gotSpec.Filters()))
	}
	if gotSpec.PageSize() != query.DefaultPageSize || gotSpec.Order() != query.NewestFirst {
		t.Errorf("spec defaults: got (%d, %s)", gotSpec.PageSize(), gotSpec.Order())
	}
}

func TestGetFeed_BadPageSize(t *testing.T) {
	h := testRouter(NewServer(nil, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/v1/feed?page_size=abc", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != codeBadRequest {
		t.Errorf("code: got %s, want %s", resp.Code, codeBadRequest)
	}
}

func TestWithPageLimits(t *testing.T) {
	var gotSpec query.Spec
	feed := &stubFeed{fetchFn: func(_ context.Context, spec query.Spec) (domain.ResultPage, error) {
		gotSpec = spec
		return domain.ResultPage{}, nil
	}}
	srv := NewServer(feed, nil, nil, nil, zap.NewNop()).WithPageLimits(5, 10)
	h := testRouter(srv)

	rr := doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{PageSize: 11})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("over max: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doRequest(t, h, http.MethodPost, "/v1/feed/search", feedSearchRequest{})
	if rr.Code != http.StatusOK {
		t.Fatalf("default: got %d, want %d", rr.Code, http.StatusOK)
	}
	if gotSpec.PageSize() != 5 {
		t.Errorf("default page size: got %d, want 5", gotSpec.PageSize())
	}
}

func TestGetPost_OK(t *testing.T) {
	posts := &stubPosts{hydrateFn: func(_ context.Context, id string) (string, error) {
		if id != "tx-1" {
			t.Errorf("id: got %q, want tx-1", id)
		}
		return "hello world", nil
	}}
	h := testRouter(NewServer(nil, posts, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/v1/posts/tx-1", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp postContentResponse
	decodeBody(t, rr, &resp)
	if resp.ID != "tx-1" || resp.Content != "hello world" {
		t.Errorf("response: got %+v", resp)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	posts := &stubPosts{hydrateFn: func(context.Context, string) (string, error) {
		return "", fmt.Errorf("content tx-9: %w", domain.ErrNotFound)
	}}
	h := testRouter(NewServer(nil, posts, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/v1/posts/tx-9", nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != codeNotFound {
		t.Errorf("code: got %s, want %s", resp.Code, codeNotFound)
	}
}

func TestGetTxMeta_OK(t *testing.T) {
	meta := &stubMeta{metaFn: func(_ context.Context, id string) (domain.TxMeta, error) {
		return domain.TxMeta{
			ID:       id,
			Owner:    "owner-1",
			DataSize: 256,
			Quantity: "0",
			Reward:   "1234",
			Tags:     []domain.Tag{{Name: "App-Name", Value: "PublicSquare"}},
		}, nil
	}}
	h := testRouter(NewServer(nil, nil, meta, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/v1/tx/tx-1", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp txMetaResponse
	decodeBody(t, rr, &resp)
	if resp.ID != "tx-1" || resp.Owner != "owner-1" || resp.DataSize != 256 {
		t.Errorf("response: got %+v", resp)
	}
	if len(resp.Tags) != 1 || resp.Tags[0].Name != "App-Name" {
		t.Errorf("tags: got %v", resp.Tags)
	}
}

func TestHealth_OK(t *testing.T) {
	health := &stubHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"gateway": healthuc.CheckOK},
	}}
	h := testRouter(NewServer(nil, nil, nil, health, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/health", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp healthResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "ok" || resp.Checks["gateway"] != "ok" {
		t.Errorf("response: got %+v", resp)
	}
}

func TestHealth_Degraded_503(t *testing.T) {
	health := &stubHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"gateway": healthuc.CheckOK,
			"cache":   healthuc.CheckError,
		},
	}}
	h := testRouter(NewServer(nil, nil, nil, health, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/health", nil)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var resp healthResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "degraded" || resp.Checks["cache"] != "error" {
		t.Errorf("response: got %+v", resp)
	}
}

func TestGetVersion(t *testing.T) {
	h := testRouter(NewServer(nil, nil, nil, nil, zap.NewNop()))

	rr := doRequest(t, h, http.MethodGet, "/version", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp versionResponse
	decodeBody(t, rr, &resp)
	if resp.Version == "" || resp.Commit == "" || resp.Date == "" {
		t.Errorf("response: got %+v", resp)
	}
}
