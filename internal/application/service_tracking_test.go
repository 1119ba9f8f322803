package application_test

import (
	"context"
	"testing"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

func TestTrackViewAcceptsCleanTraffic(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)

	out, err := env.svc.TrackView(context.Background(), env.trackViewInput("visitor-1"))
	if err != nil {
		t.Fatalf("track view: %v", err)
	}
	if !out.IsRecorded || out.Reason != "" {
		t.Fatalf("clean view rejected: %+v", out)
	}
	if out.PixelURL == "" {
		t.Fatalf("accepted view must carry a pixel URL")
	}

	visit, err := env.store.Visits().GetByID(context.Background(), out.VisitID)
	if err != nil {
		t.Fatalf("load visit: %v", err)
	}
	if visit.IPHash == "" || visit.IPHash == "203.0.113.5" {
		t.Fatalf("raw IP must never be stored: %q", visit.IPHash)
	}
	if visit.IsValidated || visit.IsBillable || visit.IsPaid {
		t.Fatalf("first phase must not advance lifecycle flags: %+v", visit)
	}
}

func TestTrackViewRecordsRejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusPaused, domain.PayoutModeCPM)

	out, err := env.svc.TrackView(context.Background(), env.trackViewInput("visitor-1"))
	if err != nil {
		t.Fatalf("track view: %v", err)
	}
	if out.Reason != domain.RejectReasonCampaignInactive {
		t.Fatalf("reason = %q, want campaign_inactive", out.Reason)
	}
	// Rejected attempts are still persisted for fraud analytics.
	if _, err := env.store.Visits().GetByID(context.Background(), out.VisitID); err != nil {
		t.Fatalf("rejected visit not persisted: %v", err)
	}
}

func TestTrackViewUnknownCampaign(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	out, err := env.svc.TrackView(context.Background(), env.trackViewInput("visitor-1"))
	if err != nil {
		t.Fatalf("track view: %v", err)
	}
	if out.Reason != domain.RejectReasonCampaignNotFound {
		t.Fatalf("reason = %q, want campaign_not_found", out.Reason)
	}
}

func TestTrackViewBotGate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)

	input := env.trackViewInput("visitor-1")
	input.UserAgent = "curl/8.4.0"
	out, err := env.svc.TrackView(context.Background(), input)
	if err != nil {
		t.Fatalf("track view: %v", err)
	}
	if out.Reason != domain.RejectReasonBotDetected {
		t.Fatalf("reason = %q, want bot_detected", out.Reason)
	}
}

func TestTrackViewDedupeWindow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)

	first, err := env.svc.TrackView(context.Background(), env.trackViewInput("visitor-1"))
	if err != nil || first.Reason != "" {
		t.Fatalf("first view: %v %+v", err, first)
	}
	second, err := env.svc.TrackView(context.Background(), env.trackViewInput("visitor-1"))
	if err != nil {
		t.Fatalf("second view: %v", err)
	}
	if second.Reason != domain.RejectReasonDuplicate {
		t.Fatalf("reason = %q, want duplicate", second.Reason)
	}

	// A different visitor from the same IP is not a duplicate.
	third, err := env.svc.TrackView(context.Background(), env.trackViewInput("visitor-2"))
	if err != nil || third.Reason != "" {
		t.Fatalf("different visitor rejected: %v %+v", err, third)
	}
}

func TestTrackViewRateLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(cfg *application.Config) {
		cfg.RateLimitMaxRequests = 2
	})
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)

	for i, visitor := range []string{"v-1", "v-2"} {
		out, err := env.svc.TrackView(context.Background(), env.trackViewInput(visitor))
		if err != nil || out.Reason != "" {
			t.Fatalf("view %d rejected: %v %+v", i, err, out)
		}
	}
	out, err := env.svc.TrackView(context.Background(), env.trackViewInput("v-3"))
	if err != nil {
		t.Fatalf("rate limited view: %v", err)
	}
	if out.Reason != domain.RejectReasonRateLimited {
		t.Fatalf("reason = %q, want rate_limited", out.Reason)
	}
}

func TestTrackViewInvalidInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	input := env.trackViewInput("visitor-1")
	input.CampaignID = ""
	if _, err := env.svc.TrackView(context.Background(), input); err != domain.ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
