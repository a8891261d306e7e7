package weavefeed

import (
	"context"

	"github.com/permaloom/weavefeed/internal/domain"
	"github.com/permaloom/weavefeed/internal/domain/query"
	healthuc "github.com/permaloom/weavefeed/internal/usecase/health"
)

// --- feedUseCase mock ---

type mockFeedUC struct {
	fetchFn func(ctx context.Context, spec query.Spec) (domain.ResultPage, error)
}

func (m *mockFeedUC) Fetch(ctx context.Context, spec query.Spec) (domain.ResultPage, error) {
	return m.fetchFn(ctx, spec)
}

// --- postUseCase mock ---

type mockPostUC struct {
	hydrateOneFn func(ctx context.Context, id string) (string, error)
}

func (m *mockPostUC) HydrateOne(ctx context.Context, id string) (string, error) {
	return m.hydrateOneFn(ctx, id)
}

// --- gatewayAPI mock ---

type mockGatewayAPI struct {
	healthCheckFn func(ctx context.Context) error
	fetchMetaFn   func(ctx context.Context, id string) (domain.TxMeta, error)
}

func (m *mockGatewayAPI) HealthCheck(ctx context.Context) error {
	return m.healthCheckFn(ctx)
}

func (m *mockGatewayAPI) FetchTxMeta(ctx context.Context, id string) (domain.TxMeta, error) {
	return m.fetchMetaFn(ctx, id)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- helpers ---

func testClient(feedSvc feedUseCase, postSvc postUseCase, gw gatewayAPI, healthSvc healthUseCase) *Client {
	return &Client{
		gw:        gw,
		feedSvc:   feedSvc,
		postSvc:   postSvc,
		healthSvc: healthSvc,
	}
}
