package domain

import "testing"

func TestPayoutStatusTransitions(t *testing.T) {
	t.Parallel()

	allowed := map[PayoutStatus][]PayoutStatus{
		PayoutStatusPending: {PayoutStatusReleased, PayoutStatusFrozen, PayoutStatusCancelled},
		PayoutStatusFrozen:  {PayoutStatusReleased, PayoutStatusCancelled},
	}
	all := []PayoutStatus{PayoutStatusPending, PayoutStatusReleased, PayoutStatusFrozen, PayoutStatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}

	if !PayoutStatusReleased.IsTerminal() || !PayoutStatusCancelled.IsTerminal() {
		t.Fatalf("released and cancelled must be terminal")
	}
	if PayoutStatusFrozen.IsTerminal() {
		t.Fatalf("frozen is not terminal")
	}
}

func TestReserveAmountRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount int64
		pct    int
		want   int64
	}{
		{1000, 20, 200},
		{1001, 20, 200},
		{1003, 20, 201},
		{5, 20, 1},
		{2, 20, 0},
		{1000, 0, 0},
		{0, 20, 0},
	}
	for _, tc := range cases {
		if got := ReserveAmount(tc.amount, tc.pct); got != tc.want {
			t.Fatalf("ReserveAmount(%d, %d) = %d, want %d", tc.amount, tc.pct, got, tc.want)
		}
	}
}

func TestHashFingerprintStable(t *testing.T) {
	t.Parallel()

	fp := DeviceFingerprint{ScreenResolution: "1920x1080", Timezone: "UTC", Language: "en-US", Platform: "MacIntel"}
	if HashFingerprint(fp) != HashFingerprint(fp) {
		t.Fatalf("fingerprint hash must be deterministic")
	}
	if HashFingerprint(DeviceFingerprint{}) != "" {
		t.Fatalf("zero fingerprint must hash to empty")
	}
	other := fp
	other.Timezone = "Europe/Berlin"
	if HashFingerprint(fp) == HashFingerprint(other) {
		t.Fatalf("distinct fingerprints must not collide")
	}
}
