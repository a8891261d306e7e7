// Package chi exposes the feed pipeline over HTTP: request decoding, response
// shaping, and the mapping from domain errors to status codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
	healthuc "github.com/permaloom/weavefeed/internal/usecase/health"
	"github.com/permaloom/weavefeed/internal/version"
)

// statusClientClosedRequest mirrors the nginx 499 convention: the client went
// away before a response could be written.
const statusClientClosedRequest = 499

// errCode is the machine-readable error discriminator in error responses.
type errCode string

const (
	codeBadRequest         errCode = "bad_request"
	codeValidationFailed   errCode = "validation_failed"
	codeNotFound           errCode = "not_found"
	codePayloadNotText     errCode = "payload_not_text"
	codeGatewayUnavailable errCode = "gateway_unavailable"
	codeGatewayTimeout     errCode = "gateway_timeout"
	codeRequestCancelled   errCode = "request_cancelled"
	codeInternalError      errCode = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the feed HTTP API.
type Server struct {
	feed   FeedFetcher
	posts  PostHydrator
	meta   MetaFetcher
	health HealthChecker
	logger *zap.Logger

	defaultPageSize int
	maxPageSize     int

	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	feed FeedFetcher,
	posts PostHydrator,
	meta MetaFetcher,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		feed:            feed,
		posts:           posts,
		meta:            meta,
		health:          health,
		logger:          logger,
		defaultPageSize: query.DefaultPageSize,
		maxPageSize:     query.MaxPageSize,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.Canceled, statusClientClosedRequest, codeRequestCancelled),
		timeoutHandler,
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeGatewayTimeout),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrDecode, http.StatusUnprocessableEntity, codePayloadNotText),
		sentinelHandler(domain.ErrGateway, http.StatusBadGateway, codeGatewayUnavailable),
	}
	return s
}

// WithPageLimits overrides the page size bounds applied to requests that omit
// or exceed them.
func (s *Server) WithPageLimits(def, max int) *Server {
	if def > 0 {
		s.defaultPageSize = def
	}
	if max > 0 {
		s.maxPageSize = max
	}
	return s
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/feed/search", s.searchFeed)
	r.Get("/v1/feed", s.getFeed)
	r.Get("/v1/posts/{id}", s.getPost)
	r.Get("/v1/tx/{id}", s.getTxMeta)
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)
	r.Get("/version", s.getVersion)
}

// searchFeed handles POST /v1/feed/search.
func (s *Server) searchFeed(w http.ResponseWriter, r *http.Request) {
	var req feedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.servePage(w, r, req)
}

// getFeed handles GET /v1/feed: the canonical tag filters as query parameters.
func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filters []tagFilterRequest
	if app := q.Get("app"); app != "" {
		filters = append(filters, tagFilterRequest{Name: "App-Name", Values: []string{app}})
	}
	if ct := q.Get("content_type"); ct != "" {
		filters = append(filters, tagFilterRequest{Name: "Content-Type", Values: []string{ct}})
	}

	pageSize := 0
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "page_size must be an integer")
			return
		}
		pageSize = n
	}

	s.servePage(w, r, feedSearchRequest{
		Filters:  filters,
		PageSize: pageSize,
		Sort:     q.Get("sort"),
		Cursor:   q.Get("cursor"),
	})
}

// servePage runs the pipeline for one page request.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, req feedSearchRequest) {
	spec, ok := s.buildSpec(w, req)
	if !ok {
		return
	}

	page, err := s.feed.Fetch(r.Context(), spec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feedToDTO(page))
}

// buildSpec validates the request and builds the query spec. On failure it
// writes the error response itself and returns ok=false.
func (s *Server) buildSpec(w http.ResponseWriter, req feedSearchRequest) (query.Spec, bool) {
	if req.PageSize > s.maxPageSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("page_size must not exceed %d", s.maxPageSize))
		return query.Spec{}, false
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = s.defaultPageSize
	}

	filters := make([]domain.TagFilter, 0, len(req.Filters))
	for _, f := range req.Filters {
		tf, err := domain.NewTagFilter(f.Name, f.Values...)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return query.Spec{}, false
		}
		filters = append(filters, tf)
	}

	spec, err := query.New(filters, pageSize, query.Order(req.Sort), req.Cursor)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return query.Spec{}, false
	}
	return spec, true
}

// getPost handles GET /v1/posts/{id}.
func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	content, err := s.posts.HydrateOne(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, postContentResponse{ID: id, Content: content})
}

// getTxMeta handles GET /v1/tx/{id}.
func (s *Server) getTxMeta(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := s.meta.FetchTxMeta(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, metaToDTO(meta))
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// getVersion handles GET /version.
func (s *Server) getVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrNotFound,
		domain.ErrDecode,
		domain.ErrGateway,
		context.Canceled,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// timeoutHandler maps gateway requests that ran out of time to 504. It must
// run before the plain ErrGateway handler: a timed-out gateway error is still
// an ErrGateway.
func timeoutHandler(w http.ResponseWriter, err error, msg string) bool {
	if !domain.IsTimeout(err) {
		return false
	}
	writeError(w, http.StatusGatewayTimeout, codeGatewayTimeout, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// --- wire DTOs ---

type errorResponse struct {
	Code    errCode `json:"code"`
	Message string  `json:"message"`
}

type tagFilterRequest struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type feedSearchRequest struct {
	Filters  []tagFilterRequest `json:"filters"`
	PageSize int                `json:"page_size"`
	Sort     string             `json:"sort"`
	Cursor   string             `json:"cursor"`
}

type postItem struct {
	ID             string         `json:"id"`
	Owner          string         `json:"owner,omitempty"`
	Tags           []domain.Tag   `json:"tags,omitempty"`
	Size           int64          `json:"size"`
	BlockHeight    int64          `json:"block_height,omitempty"`
	BlockTimestamp int64          `json:"block_timestamp,omitempty"`
	Confirmed      bool           `json:"confirmed"`
	Content        string         `json:"content,omitempty"`
	Error          *errorResponse `json:"error,omitempty"`
}

type feedResponse struct {
	Items      []postItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type postContentResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type txMetaResponse struct {
	ID        string       `json:"id"`
	Owner     string       `json:"owner,omitempty"`
	Signature string       `json:"signature,omitempty"`
	DataSize  int64        `json:"data_size"`
	Quantity  string       `json:"quantity,omitempty"`
	Reward    string       `json:"reward,omitempty"`
	Tags      []domain.Tag `json:"tags,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type versionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func feedToDTO(page domain.ResultPage) feedResponse {
	items := make([]postItem, len(page.Items))
	for i, p := range page.Items {
		items[i] = postToDTO(p)
	}
	return feedResponse{Items: items, NextCursor: page.NextCursor}
}

func postToDTO(p domain.HydratedPost) postItem {
	ref := p.Ref()
	item := postItem{
		ID:             ref.ID(),
		Owner:          ref.Owner(),
		Tags:           ref.Tags(),
		Size:           ref.SizeBytes(),
		BlockHeight:    ref.BlockHeight(),
		BlockTimestamp: ref.BlockTimestamp(),
		Confirmed:      ref.Confirmed(),
		Content:        p.Content(),
	}
	if err := p.Err(); err != nil {
		item.Error = &errorResponse{
			Code:    itemErrorCode(err),
			Message: safeDomainMessage(err),
		}
	}
	return item
}

// itemErrorCode maps a per-item hydration failure onto a wire code.
func itemErrorCode(err error) errCode {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return codeNotFound
	case errors.Is(err, domain.ErrDecode):
		return codePayloadNotText
	case domain.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return codeGatewayTimeout
	case errors.Is(err, domain.ErrGateway):
		return codeGatewayUnavailable
	default:
		return codeInternalError
	}
}

func metaToDTO(m domain.TxMeta) txMetaResponse {
	return txMetaResponse{
		ID:        m.ID,
		Owner:     m.Owner,
		Signature: m.Signature,
		DataSize:  m.DataSize,
		Quantity:  m.Quantity,
		Reward:    m.Reward,
		Tags:      m.Tags,
	}
}
