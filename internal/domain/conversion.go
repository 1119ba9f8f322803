package domain

import (
	"strings"
	"time"
)

type ConversionType string
type AttributionModel string

const (
	ConversionTypeSignup       ConversionType = "signup"
	ConversionTypePurchase     ConversionType = "purchase"
	ConversionTypeSubscription ConversionType = "subscription"
	ConversionTypeOther        ConversionType = "other"
)

const (
	AttributionLastClick  AttributionModel = "LAST_CLICK"
	AttributionFirstClick AttributionModel = "FIRST_CLICK"
	AttributionDirect     AttributionModel = "DIRECT"
)

const (
	AttributionFailureNoValidVisit = "no_valid_visit_in_attribution_window"
	AttributionFailureDuplicate    = "duplicate_conversion"
)

// ConversionEvent is recorded unconditionally, valid or not, so the
// analytics trail survives rejected attributions. A failed attribution
// carries a nil creator and never produces ledger entries.
type ConversionEvent struct {
	ConversionID string         `json:"conversion_id"`
	CampaignID   string         `json:"campaign_id"`
	CreatorID    *string        `json:"creator_id,omitempty"`
	VisitorID    string         `json:"visitor_id"`
	Type         ConversionType `json:"type"`
	RevenueCents int64          `json:"revenue_cents"`
	AttributedTo string         `json:"attributed_to"`
	IsValid      bool           `json:"is_valid"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Attribution is the resolver outcome for a single conversion signal.
type Attribution struct {
	CampaignID string
	CreatorID  *string
	Model      AttributionModel
	IsValid    bool
	Reason     string
}

// LastTouch is the decoded last-click cookie.
type LastTouch struct {
	CampaignID string
	CreatorID  string
	TouchedAt  time.Time
}

func NormalizeConversionType(raw string) ConversionType {
	switch ConversionType(strings.ToLower(strings.TrimSpace(raw))) {
	case ConversionTypeSignup:
		return ConversionTypeSignup
	case ConversionTypePurchase:
		return ConversionTypePurchase
	case ConversionTypeSubscription:
		return ConversionTypeSubscription
	default:
		return ConversionTypeOther
	}
}

// PayoutCalculator computes the gross creator commission for a
// conversion. The scoring formula is pluggable; only the shape is fixed.
type PayoutCalculator func(revenueCents int64) int64

// PercentPayoutCalculator is the default commission model.
func PercentPayoutCalculator(percent int) PayoutCalculator {
	return func(revenueCents int64) int64 {
		if revenueCents <= 0 || percent <= 0 {
			return 0
		}
		return (revenueCents*int64(percent) + 50) / 100
	}
}

// PlatformFee computes the fee withheld from a commission, rounding half up.
func PlatformFee(commissionCents int64, feePercent int) int64 {
	if commissionCents <= 0 || feePercent <= 0 {
		return 0
	}
	return (commissionCents*int64(feePercent) + 50) / 100
}
