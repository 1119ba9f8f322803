package domain

import (
	"strings"
	"time"
)

type PayoutStatus string
type PayoutType string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusReleased  PayoutStatus = "released"
	PayoutStatusFrozen    PayoutStatus = "frozen"
	PayoutStatusCancelled PayoutStatus = "cancelled"
)

const (
	PayoutTypeView       PayoutType = "view_payout"
	PayoutTypeConversion PayoutType = "conversion_payout"
)

// PayoutQueueEntry is one pending settlement unit. The risk policy is
// snapshotted at creation; the reserve amount is frozen then and never
// recomputed on release.
type PayoutQueueEntry struct {
	EntryID                   string       `json:"entry_id"`
	CreatorID                 string       `json:"creator_id"`
	CampaignID                string       `json:"campaign_id"`
	VisitID                   string       `json:"visit_id,omitempty"`
	AmountCents               int64        `json:"amount_cents"`
	Type                      PayoutType   `json:"type"`
	Status                    PayoutStatus `json:"status"`
	EligibleAt                time.Time    `json:"eligible_at"`
	RiskSnapshotScore         float64      `json:"risk_snapshot_score"`
	RiskLevel                 RiskLevel    `json:"risk_level"`
	ReservePercent            int          `json:"reserve_percent"`
	ReserveAmountCents        int64        `json:"reserve_amount_cents"`
	AppliedMultiplier         float64      `json:"applied_multiplier"`
	CreatorTrustScoreSnapshot float64      `json:"creator_trust_score_snapshot"`
	CreatorTierSnapshot       string       `json:"creator_tier_snapshot,omitempty"`
	ReleasedAt                *time.Time   `json:"released_at,omitempty"`
	CancelledAt               *time.Time   `json:"cancelled_at,omitempty"`
	CancelReason              string       `json:"cancel_reason,omitempty"`
	FreezeReason              string       `json:"freeze_reason,omitempty"`
	CreatedAt                 time.Time    `json:"created_at"`
	UpdatedAt                 time.Time    `json:"updated_at"`
}

// CanTransitionTo enforces the payout state machine:
// PENDING -> {RELEASED, FROZEN, CANCELLED}; FROZEN -> {RELEASED, CANCELLED}.
// FROZEN never auto-releases; the RELEASED path out of FROZEN is the
// administrative force-release.
func (s PayoutStatus) CanTransitionTo(target PayoutStatus) bool {
	switch s {
	case PayoutStatusPending:
		return target == PayoutStatusReleased || target == PayoutStatusFrozen || target == PayoutStatusCancelled
	case PayoutStatusFrozen:
		return target == PayoutStatusReleased || target == PayoutStatusCancelled
	default:
		return false
	}
}

func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusReleased || s == PayoutStatusCancelled
}

// ReserveAmount computes the withheld fraction, rounding half up.
func ReserveAmount(amountCents int64, reservePercent int) int64 {
	if reservePercent <= 0 || amountCents <= 0 {
		return 0
	}
	return (amountCents*int64(reservePercent) + 50) / 100
}

func ValidatePayoutEntryInput(creatorID, campaignID string, amountCents int64, payoutType PayoutType) error {
	if strings.TrimSpace(creatorID) == "" || strings.TrimSpace(campaignID) == "" {
		return ErrInvalidInput
	}
	if amountCents <= 0 {
		return ErrInvalidInput
	}
	if payoutType != PayoutTypeView && payoutType != PayoutTypeConversion {
		return ErrInvalidInput
	}
	return nil
}
