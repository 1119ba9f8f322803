package application_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	eventadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/grpc"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

const (
	testCampaignID = "camp-1"
	testCreatorID  = "creator-1"
	testCleanUA    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

type fakeMetrics struct {
	score float64
	err   error
}

func (f *fakeMetrics) GetLatestAnomalyScore(context.Context, string) (float64, error) {
	return f.score, f.err
}

type fakeBudget struct {
	result ports.BudgetResult
	err    error
}

func (f *fakeBudget) LockCampaignBudget(context.Context, string, string, int64) error    { return nil }
func (f *fakeBudget) ReleaseCampaignBudget(context.Context, string, string, int64) error { return nil }
func (f *fakeBudget) ComputeCampaignBudget(context.Context, string) (int64, int64, error) {
	return 0, 0, nil
}
func (f *fakeBudget) RecordValidViewPayout(context.Context, string, string, string) (ports.BudgetResult, error) {
	return f.result, f.err
}

type testEnv struct {
	store    *memory.Store
	events   *eventadapter.MemoryDomainPublisher
	metrics  *fakeMetrics
	budget   *fakeBudget
	velocity *memory.VelocityStore
	svc      *application.Service
	now      time.Time
}

func newTestEnv(t *testing.T, mutate func(cfg *application.Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    memory.NewStore(),
		events:   eventadapter.NewMemoryDomainPublisher(),
		metrics:  &fakeMetrics{},
		budget:   &fakeBudget{result: ports.BudgetResult{Success: true, NetPayoutCents: 500}},
		velocity: memory.NewVelocityStore(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	cfg := application.Config{}
	if mutate != nil {
		mutate(&cfg)
	}
	env.svc = application.NewService(application.Dependencies{
		Config:      cfg,
		Visits:      env.store.Visits(),
		Conversions: env.store.Conversions(),
		Payouts:     env.store.Payouts(),
		Balances:    env.store.Balances(),
		Ledger:      env.store.Ledger(),
		Campaigns:   env.store.Campaigns(),
		Tx:          env.store.Tx(),
		Velocity:    env.velocity,
		Budget:      env.budget,
		Pricing:     grpcadapter.NewCpmPricingClient(""),
		Metrics:     env.metrics,
		Geo:         grpcadapter.NewStaticGeoResolver("US"),
		Events:      env.events,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}).WithNow(func() time.Time { return env.now })
	return env
}

func (e *testEnv) seedCampaign(status domain.CampaignStatus, mode domain.PayoutMode) {
	e.store.SeedCampaign(domain.Campaign{
		CampaignID:       testCampaignID,
		AdvertiserID:     "adv-1",
		Status:           status,
		PayoutMode:       mode,
		TotalBudgetCents: 1_000_000,
		UpdatedAt:        e.now,
	})
}

func (e *testEnv) seedBalance(verified bool) {
	e.store.SeedBalance(domain.CreatorBalance{
		CreatorID: testCreatorID,
		Verified:  verified,
		UpdatedAt: e.now,
	})
}

func (e *testEnv) trackViewInput(visitorID string) application.TrackViewInput {
	return application.TrackViewInput{
		CampaignID: testCampaignID,
		CreatorID:  testCreatorID,
		LinkID:     "link-1",
		VisitorID:  visitorID,
		IP:         "203.0.113.5",
		UserAgent:  testCleanUA,
		Referrer:   "https://example.com/post",
	}
}

func (e *testEnv) balance(t *testing.T) domain.CreatorBalance {
	t.Helper()
	balance, err := e.store.Balances().Get(context.Background(), testCreatorID)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	return balance
}

func (e *testEnv) eventTypes() map[string]int {
	counts := map[string]int{}
	for _, event := range e.events.Events() {
		counts[event.EventType]++
	}
	return counts
}
