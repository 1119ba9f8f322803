package domain

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// RiskPolicy is the triple applied to a payout at creation time.
type RiskPolicy struct {
	Level           RiskLevel `json:"level"`
	PayoutDelayDays int       `json:"payout_delay_days"`
	ReservePercent  int       `json:"reserve_percent"`
}

// Policy constants, not derived. HIGH risk always withholds 20%.
const (
	highRiskReservePercent = 20

	// UnverifiedAnomalyPenalty is the flat adjustment applied to the
	// rolling anomaly score of creators without platform verification.
	UnverifiedAnomalyPenalty = 2.0
	// Daily payout caps and spike thresholds by verification status.
	UnverifiedDailyCapMultiplier = 0.6
	VerifiedSpikeThreshold       = 300
	UnverifiedSpikeThreshold     = 200
)

// AssessByScore maps a rolling anomaly score onto a policy triple.
// Queue creation uses this mode keyed to the latest anomaly metric.
func AssessByScore(anomalyScore float64) RiskPolicy {
	switch {
	case anomalyScore < 3:
		return RiskPolicy{Level: RiskLevelLow, PayoutDelayDays: 2, ReservePercent: 0}
	case anomalyScore < 7:
		return RiskPolicy{Level: RiskLevelMedium, PayoutDelayDays: 5, ReservePercent: 0}
	default:
		return RiskPolicy{Level: RiskLevelHigh, PayoutDelayDays: 14, ReservePercent: highRiskReservePercent}
	}
}

// AssessCreator reads the persisted per-creator policy, defaulting to
// MEDIUM with a 3-day delay when nothing is on record.
func AssessCreator(balance *CreatorBalance) RiskPolicy {
	if balance == nil || balance.RiskLevel == "" {
		return RiskPolicy{Level: RiskLevelMedium, PayoutDelayDays: 3, ReservePercent: 0}
	}
	policy := RiskPolicy{Level: balance.RiskLevel, PayoutDelayDays: balance.PayoutDelayDays}
	if policy.PayoutDelayDays <= 0 {
		policy.PayoutDelayDays = 3
	}
	if policy.Level == RiskLevelHigh {
		policy.ReservePercent = highRiskReservePercent
	}
	return policy
}

// AdjustedAnomalyScore penalizes unverified creators. Verification gates
// how aggressively anomalies are treated, not the base scoring formula.
func AdjustedAnomalyScore(raw float64, verified bool) float64 {
	if verified {
		return raw
	}
	return raw + UnverifiedAnomalyPenalty
}

// SpikeThreshold returns the velocity-spike detection threshold for a creator.
func SpikeThreshold(verified bool) int {
	if verified {
		return VerifiedSpikeThreshold
	}
	return UnverifiedSpikeThreshold
}

// DailyPayoutCap scales the base cap for unverified creators.
func DailyPayoutCap(baseCapCents int64, verified bool) int64 {
	if verified {
		return baseCapCents
	}
	return int64(float64(baseCapCents) * UnverifiedDailyCapMultiplier)
}
