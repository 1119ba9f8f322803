package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	eventadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/grpc"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := application.NewService(application.Dependencies{
		Config:      application.Config{},
		Visits:      store.Visits(),
		Conversions: store.Conversions(),
		Payouts:     store.Payouts(),
		Balances:    store.Balances(),
		Ledger:      store.Ledger(),
		Campaigns:   store.Campaigns(),
		Tx:          store.Tx(),
		Velocity:    memory.NewVelocityStore(),
		Budget:      grpcadapter.NewBudgetLedgerClient("", 5),
		Pricing:     grpcadapter.NewCpmPricingClient(""),
		Metrics:     grpcadapter.NewTrafficMetricsClient(""),
		Geo:         grpcadapter.NewStaticGeoResolver("US"),
		Events:      eventadapter.NewMemoryDomainPublisher(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return NewRouter(NewHandler(svc)), store
}

func TestTrackViewEndpointSetsCookies(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t)
	store.SeedCampaign(domain.Campaign{
		CampaignID:       "camp-1",
		AdvertiserID:     "adv-1",
		Status:           domain.CampaignStatusActive,
		PayoutMode:       domain.PayoutModeCPM,
		TotalBudgetCents: 1_000_000,
	})

	body, _ := json.Marshal(contracts.TrackViewRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		LinkID:     "link-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/track", bytes.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	cookies := map[string]string{}
	for _, cookie := range rec.Result().Cookies() {
		cookies[cookie.Name] = cookie.Value
	}
	if cookies[visitorCookieName] == "" {
		t.Fatalf("visitor cookie not minted: %+v", cookies)
	}
	if cookies[lastTouchCookieName] == "" {
		t.Fatalf("accepted view must set the last-touch cookie: %+v", cookies)
	}

	var resp contracts.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Status != "success" {
		t.Fatalf("unexpected envelope: %v %s", err, rec.Body.String())
	}
}

func TestTrackViewEndpointRejectedViewSkipsLastTouch(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	body, _ := json.Marshal(contracts.TrackViewRequest{CampaignID: "camp-missing", CreatorID: "creator-1", LinkID: "link-1"})
	req := httptest.NewRequest(http.MethodPost, "/track", bytes.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("rejected views still answer 201: %d", rec.Code)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == lastTouchCookieName {
			t.Fatalf("rejected view must not set the last-touch cookie")
		}
	}
}

func TestTrackPixelAlwaysRendersGIF(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t)
	store.SeedCampaign(domain.Campaign{
		CampaignID:       "camp-1",
		AdvertiserID:     "adv-1",
		Status:           domain.CampaignStatusActive,
		PayoutMode:       domain.PayoutModeCPM,
		TotalBudgetCents: 1_000_000,
	})

	body, _ := json.Marshal(contracts.TrackViewRequest{CampaignID: "camp-1", CreatorID: "creator-1", LinkID: "link-1"})
	req := httptest.NewRequest(http.MethodPost, "/track", bytes.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var tracked struct {
		Data contracts.TrackViewResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tracked); err != nil || tracked.Data.VisitID == "" {
		t.Fatalf("track view: %v %s", err, rec.Body.String())
	}

	// Known visit: 200 and the GIF, whatever the business outcome.
	req = httptest.NewRequest(http.MethodGet, "/track/pixel?visit_id="+tracked.Data.VisitID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/gif" {
		t.Fatalf("content type = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("GIF89a")) {
		t.Fatalf("body is not a GIF: %x", rec.Body.Bytes())
	}

	// Unknown visit and missing visit_id both answer 400, still with
	// the same pixel body so nothing renders broken.
	for _, target := range []string{"/track/pixel?visit_id=ve-unknown", "/track/pixel"} {
		req = httptest.NewRequest(http.MethodGet, target, nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", target, rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), pixelGIF) {
			t.Fatalf("%s must still render the pixel body", target)
		}
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/payouts", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/payouts/pq-1/cancel", bytes.NewReader([]byte(`{"reason":"x"}`)))
	req.Header.Set("Authorization", "Bearer admin:ops-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mutating call without X-Request-Id = %d, want 400", rec.Code)
	}
}

func TestLastTouchCookieRoundTrip(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	setLastTouchCookie(rec, "camp-1", "creator-1", time.Unix(1_772_000_000, 0).UTC())

	req := httptest.NewRequest(http.MethodPost, "/track/convert", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	touch := lastTouchFromCookie(req)
	if touch == nil || touch.CampaignID != "camp-1" || touch.CreatorID != "creator-1" {
		t.Fatalf("unexpected last touch: %+v", touch)
	}
	if touch.TouchedAt.Unix() != 1_772_000_000 {
		t.Fatalf("touched at = %v", touch.TouchedAt)
	}

	// Malformed values decode to nil rather than erroring.
	req = httptest.NewRequest(http.MethodPost, "/track/convert", nil)
	req.AddCookie(&http.Cookie{Name: lastTouchCookieName, Value: "garbage"})
	if lastTouchFromCookie(req) != nil {
		t.Fatalf("malformed cookie must decode to nil")
	}
}
