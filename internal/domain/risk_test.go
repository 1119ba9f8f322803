package domain

import "testing"

func TestAssessByScoreTiers(t *testing.T) {
	t.Parallel()

	low := AssessByScore(2.9)
	if low.Level != RiskLevelLow || low.PayoutDelayDays != 2 || low.ReservePercent != 0 {
		t.Fatalf("unexpected low policy: %+v", low)
	}
	medium := AssessByScore(3)
	if medium.Level != RiskLevelMedium || medium.PayoutDelayDays != 5 || medium.ReservePercent != 0 {
		t.Fatalf("unexpected medium policy: %+v", medium)
	}
	high := AssessByScore(7)
	if high.Level != RiskLevelHigh || high.PayoutDelayDays != 14 || high.ReservePercent != 20 {
		t.Fatalf("unexpected high policy: %+v", high)
	}
}

func TestAssessCreatorDefaultsAndReserve(t *testing.T) {
	t.Parallel()

	fallback := AssessCreator(nil)
	if fallback.Level != RiskLevelMedium || fallback.PayoutDelayDays != 3 {
		t.Fatalf("unexpected fallback policy: %+v", fallback)
	}

	persisted := AssessCreator(&CreatorBalance{RiskLevel: RiskLevelHigh, PayoutDelayDays: 10})
	if persisted.PayoutDelayDays != 10 || persisted.ReservePercent != 20 {
		t.Fatalf("high-risk creator must carry the reserve: %+v", persisted)
	}
}

func TestVerificationAdjustments(t *testing.T) {
	t.Parallel()

	if got := AdjustedAnomalyScore(4, true); got != 4 {
		t.Fatalf("verified score adjusted to %v", got)
	}
	if got := AdjustedAnomalyScore(4, false); got != 6 {
		t.Fatalf("unverified score adjusted to %v, want 6", got)
	}
	if got := SpikeThreshold(true); got != 300 {
		t.Fatalf("verified spike threshold %d, want 300", got)
	}
	if got := SpikeThreshold(false); got != 200 {
		t.Fatalf("unverified spike threshold %d, want 200", got)
	}
	if got := DailyPayoutCap(100_000, false); got != 60_000 {
		t.Fatalf("unverified daily cap %d, want 60000", got)
	}
	if got := DailyPayoutCap(100_000, true); got != 100_000 {
		t.Fatalf("verified daily cap %d, want 100000", got)
	}
}
