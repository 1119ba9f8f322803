package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

// validatedVisit runs the full view lifecycle so the attribution lookups
// find a validated, non-suspicious visit.
func validatedVisit(t *testing.T, env *testEnv, visitorID string) string {
	t.Helper()
	visitID := trackAccepted(t, env, visitorID)
	result, err := env.svc.ValidatePixel(context.Background(), visitID)
	if err != nil || result.Outcome != application.PixelOutcomeValidatedBillable {
		t.Fatalf("validate visit: %v %+v", err, result)
	}
	return visitID
}

func conversionInput(visitorID string, revenueCents int64, lastTouch *domain.LastTouch) application.TrackConversionInput {
	return application.TrackConversionInput{
		CampaignID:   testCampaignID,
		Type:         "purchase",
		RevenueCents: revenueCents,
		VisitorID:    visitorID,
		LastTouch:    lastTouch,
	}
}

func TestTrackConversionLastClickSettles(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	validatedVisit(t, env, "visitor-1")

	lastTouch := &domain.LastTouch{
		CampaignID: testCampaignID,
		CreatorID:  testCreatorID,
		TouchedAt:  env.now.Add(-time.Hour),
	}
	out, err := env.svc.TrackConversion(context.Background(), conversionInput("visitor-1", 10_000, lastTouch))
	if err != nil {
		t.Fatalf("track conversion: %v", err)
	}
	if !out.Conversion.IsValid || out.Conversion.AttributedTo != string(domain.AttributionLastClick) {
		t.Fatalf("unexpected attribution: %+v", out.Conversion)
	}
	// 30% commission on 10000, minus the 20% platform fee.
	if out.PayoutCents != 2400 {
		t.Fatalf("payout = %d, want 2400", out.PayoutCents)
	}

	balance := env.balance(t)
	if balance.AvailableBalanceCents != 2400 || balance.TotalEarnedCents != 2400 {
		t.Fatalf("conversion payout not settled: %+v", balance)
	}
	// The pixel payout stays pending; conversions settle directly.
	if balance.PendingBalanceCents != 500 {
		t.Fatalf("pending balance disturbed: %+v", balance)
	}

	entries, err := env.store.Ledger().ListByConversion(context.Background(), out.Conversion.ConversionID)
	if err != nil || len(entries) != 2 {
		t.Fatalf("ledger entries: %v %d", err, len(entries))
	}
	byType := map[domain.LedgerEntryType]int64{}
	for _, entry := range entries {
		byType[entry.Type] = entry.AmountCents
	}
	if byType[domain.LedgerEntryConversionPayout] != 2400 || byType[domain.LedgerEntryPlatformFee] != 600 {
		t.Fatalf("unexpected ledger amounts: %+v", byType)
	}

	if env.eventTypes()[domain.EventConversionAttributed] != 1 {
		t.Fatalf("conversion-attributed event not published: %+v", env.eventTypes())
	}
}

func TestTrackConversionFirstClickFallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	validatedVisit(t, env, "visitor-1")

	// No last-touch cookie: attribution falls back to the earliest
	// validated visit for the requested campaign.
	out, err := env.svc.TrackConversion(context.Background(), conversionInput("visitor-1", 10_000, nil))
	if err != nil {
		t.Fatalf("track conversion: %v", err)
	}
	if !out.Conversion.IsValid || out.Conversion.AttributedTo != string(domain.AttributionFirstClick) {
		t.Fatalf("unexpected attribution: %+v", out.Conversion)
	}
	if out.Conversion.CreatorID == nil || *out.Conversion.CreatorID != testCreatorID {
		t.Fatalf("creator not resolved from visit: %+v", out.Conversion)
	}
	if out.PayoutCents != 2400 {
		t.Fatalf("payout = %d, want 2400", out.PayoutCents)
	}
}

func TestTrackConversionWithoutValidVisit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)

	out, err := env.svc.TrackConversion(context.Background(), conversionInput("visitor-1", 10_000, nil))
	if err != nil {
		t.Fatalf("track conversion: %v", err)
	}
	if out.Conversion.IsValid || out.Conversion.AttributedTo != domain.AttributionFailureNoValidVisit {
		t.Fatalf("unexpected attribution: %+v", out.Conversion)
	}
	if out.Conversion.CreatorID != nil || out.PayoutCents != 0 {
		t.Fatalf("failed attribution must not pay: %+v", out)
	}
	// Still recorded for the analytics trail.
	if _, err := env.store.Conversions().GetByID(context.Background(), out.Conversion.ConversionID); err != nil {
		t.Fatalf("invalid conversion not persisted: %v", err)
	}
}

func TestTrackConversionSignupDedupe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	validatedVisit(t, env, "visitor-1")

	input := conversionInput("visitor-1", 10_000, nil)
	input.Type = "signup"
	first, err := env.svc.TrackConversion(context.Background(), input)
	if err != nil || !first.Conversion.IsValid {
		t.Fatalf("first signup: %v %+v", err, first)
	}
	second, err := env.svc.TrackConversion(context.Background(), input)
	if err != nil {
		t.Fatalf("second signup: %v", err)
	}
	if second.Conversion.IsValid || second.Conversion.AttributedTo != domain.AttributionFailureDuplicate {
		t.Fatalf("duplicate signup must be rejected: %+v", second.Conversion)
	}
	if second.PayoutCents != 0 {
		t.Fatalf("duplicate must not pay: %+v", second)
	}
}

func TestTrackConversionRepeatPurchases(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.seedCampaign(domain.CampaignStatusActive, domain.PayoutModeCPM)
	env.seedBalance(false)
	validatedVisit(t, env, "visitor-1")

	for i := 0; i < 2; i++ {
		out, err := env.svc.TrackConversion(context.Background(), conversionInput("visitor-1", 10_000, nil))
		if err != nil || !out.Conversion.IsValid || out.PayoutCents != 2400 {
			t.Fatalf("purchase %d: %v %+v", i, err, out)
		}
	}
	if balance := env.balance(t); balance.AvailableBalanceCents != 4800 {
		t.Fatalf("repeat purchases must both settle: %+v", balance)
	}
}

func TestTrackConversionBudgetHeadroom(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.store.SeedCampaign(domain.Campaign{
		CampaignID:       testCampaignID,
		AdvertiserID:     "adv-1",
		Status:           domain.CampaignStatusActive,
		PayoutMode:       domain.PayoutModeCPM,
		TotalBudgetCents: 1000,
		UpdatedAt:        env.now,
	})
	env.seedBalance(false)
	validatedVisit(t, env, "visitor-1")

	// Commission would be 3000 against 1000 of remaining budget. The
	// conversion stays valid and recorded but nothing settles.
	out, err := env.svc.TrackConversion(context.Background(), conversionInput("visitor-1", 10_000, nil))
	if err != nil {
		t.Fatalf("track conversion: %v", err)
	}
	if !out.Conversion.IsValid || out.PayoutCents != 0 {
		t.Fatalf("expected valid but unsettled conversion: %+v", out)
	}
	if balance := env.balance(t); balance.AvailableBalanceCents != 0 || balance.TotalEarnedCents != 0 {
		t.Fatalf("exhausted budget must not settle: %+v", balance)
	}
	entries, err := env.store.Ledger().ListByConversion(context.Background(), out.Conversion.ConversionID)
	if err != nil || len(entries) != 0 {
		t.Fatalf("ledger must stay empty: %v %d", err, len(entries))
	}
	if env.eventTypes()[domain.EventConversionAttributed] != 0 {
		t.Fatalf("unsettled conversion must not publish: %+v", env.eventTypes())
	}
}
