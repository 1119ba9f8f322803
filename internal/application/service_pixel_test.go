package application_test

import (
	"context"
	"testing"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

func trackAccepted(t *testing.T, env *testEnv, visitorID string) string {
	t.Helper()
	out, err := env.svc.TrackView(context.Background(), env.trackViewInput(visitorID))
	if err != nil || out.Reason != "" {
		t.Fatalf("track view: %v %+v", err, out)
	}
	return out.VisitID
}

func TestValidatePixelBillablePath(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	visitID := trackAccepted(t, env, "visitor-1")

	result, err := env.svc.ValidatePixel(context.Background(), visitID)
	if err != nil {
		t.Fatalf("validate pixel: %v", err)
	}
	if result.Outcome != application.PixelOutcomeValidatedBillable {
		t.Fatalf("outcome = %s, want validated_billable", result.Outcome)
	}

	// One pending payout entry carrying the budget ledger's net amount.
	entries, total, err := env.store.Payouts().List(context.Background(), ports.PayoutQuery{CreatorID: testCreatorID})
	if err != nil || total != 1 {
		t.Fatalf("payout list: %v total=%d", err, total)
	}
	entry := entries[0]
	if entry.Status != domain.PayoutStatusPending || entry.AmountCents != 500 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Type != domain.PayoutTypeView || entry.VisitID != visitID {
		t.Fatalf("entry not linked to visit: %+v", entry)
	}
	// Unverified creator with zero raw anomaly lands in the low tier.
	if entry.RiskLevel != domain.RiskLevelLow || entry.ReserveAmountCents != 0 {
		t.Fatalf("unexpected risk snapshot: %+v", entry)
	}
	if got := entry.EligibleAt.Sub(env.now).Hours() / 24; got != 2 {
		t.Fatalf("delay = %v days, want 2", got)
	}

	if balance := env.balance(t); balance.PendingBalanceCents != 500 || balance.AvailableBalanceCents != 0 {
		t.Fatalf("unexpected balance: %+v", balance)
	}
}

func TestValidatePixelIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	visitID := trackAccepted(t, env, "visitor-1")

	if _, err := env.svc.ValidatePixel(context.Background(), visitID); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	second, err := env.svc.ValidatePixel(context.Background(), visitID)
	if err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if second.Outcome != application.PixelOutcomeAlreadyValidated {
		t.Fatalf("outcome = %s, want already_validated", second.Outcome)
	}

	_, total, err := env.store.Payouts().List(context.Background(), ports.PayoutQuery{CreatorID: testCreatorID})
	if err != nil || total != 1 {
		t.Fatalf("replay must not enqueue a second payout: %v total=%d", err, total)
	}
	if balance := env.balance(t); balance.PendingBalanceCents != 500 {
		t.Fatalf("replay must not double-count pending: %+v", balance)
	}
}

func TestValidatePixelUnknownVisit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	result, err := env.svc.ValidatePixel(context.Background(), "ve-missing")
	if err != nil {
		t.Fatalf("unknown visit must not error: %v", err)
	}
	if result.Outcome != application.PixelOutcomeNotFound {
		t.Fatalf("outcome = %s, want not_found", result.Outcome)
	}
}

func TestValidatePixelCPAOnlyCampaign(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPAOnly)
	env.seedBalance(false)
	visitID := trackAccepted(t, env, "visitor-1")

	result, err := env.svc.ValidatePixel(context.Background(), visitID)
	if err != nil {
		t.Fatalf("validate pixel: %v", err)
	}
	if result.Outcome != application.PixelOutcomeValidatedNonBillable {
		t.Fatalf("outcome = %s, want validated_non_billable", result.Outcome)
	}
	if result.Visit.RejectReason != domain.RejectReasonCPAOnly {
		t.Fatalf("reason = %q, want cpa_only_campaign", result.Visit.RejectReason)
	}
	_, total, err := env.store.Payouts().List(context.Background(), ports.PayoutQuery{CreatorID: testCreatorID})
	if err != nil || total != 0 {
		t.Fatalf("cpa_only must not enqueue view payouts: %v total=%d", err, total)
	}
}

func TestValidatePixelBudgetExhausted(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	env.budget.result = ports.BudgetResult{Success: false, ErrorCode: ports.BudgetErrorInsufficient}
	visitID := trackAccepted(t, env, "visitor-1")

	result, err := env.svc.ValidatePixel(context.Background(), visitID)
	if err != nil {
		t.Fatalf("validate pixel: %v", err)
	}
	if result.Outcome != application.PixelOutcomeValidatedNonBillable {
		t.Fatalf("outcome = %s, want validated_non_billable", result.Outcome)
	}
	if result.Visit.RejectReason != domain.RejectReasonBudgetExhausted {
		t.Fatalf("reason = %q, want budget_exhausted", result.Visit.RejectReason)
	}
}

func TestValidatePixelKeepsIngestionRejection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)

	input := env.trackViewInput("visitor-1")
	input.UserAgent = "curl/8.4.0"
	out, err := env.svc.TrackView(context.Background(), input)
	if err != nil || out.Reason != domain.RejectReasonBotDetected {
		t.Fatalf("bot view: %v %+v", err, out)
	}

	result, err := env.svc.ValidatePixel(context.Background(), out.VisitID)
	if err != nil {
		t.Fatalf("validate pixel: %v", err)
	}
	if result.Outcome != application.PixelOutcomeValidatedNonBillable {
		t.Fatalf("outcome = %s, want validated_non_billable", result.Outcome)
	}
	if result.Visit.RejectReason != domain.RejectReasonBotDetected {
		t.Fatalf("ingestion reason must survive validation: %q", result.Visit.RejectReason)
	}
}
