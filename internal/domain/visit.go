package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type RejectReason string

const (
	RejectReasonCampaignNotFound   RejectReason = "campaign_not_found"
	RejectReasonCampaignInactive   RejectReason = "campaign_inactive"
	RejectReasonBotDetected        RejectReason = "bot_detected"
	RejectReasonFraudScoreExceeded RejectReason = "fraud_score_exceeded"
	RejectReasonDuplicate          RejectReason = "duplicate"
	RejectReasonRateLimited        RejectReason = "rate_limited"
	RejectReasonCPAOnly            RejectReason = "cpa_only_campaign"
	RejectReasonBudgetExhausted    RejectReason = "budget_exhausted"
	RejectReasonSuspicious         RejectReason = "suspicious_on_validation"
)

// VisitEvent records every inbound view attempt, accepted or rejected.
// Lifecycle flags only ever advance: recorded -> validated -> billable -> paid.
type VisitEvent struct {
	VisitID         string       `json:"visit_id"`
	CampaignID      string       `json:"campaign_id"`
	CreatorID       string       `json:"creator_id"`
	LinkID          string       `json:"link_id"`
	VisitorID       string       `json:"visitor_id"`
	IPHash          string       `json:"ip_hash"`
	UserAgentHash   string       `json:"user_agent_hash"`
	FingerprintHash string       `json:"fingerprint_hash,omitempty"`
	Referrer        *string      `json:"referrer,omitempty"`
	CountryCode     *string      `json:"country_code,omitempty"`
	FraudScore      int          `json:"fraud_score"`
	IsSuspicious    bool         `json:"is_suspicious"`
	IsRecorded      bool         `json:"is_recorded"`
	IsValidated     bool         `json:"is_validated"`
	IsBillable      bool         `json:"is_billable"`
	IsPaid          bool         `json:"is_paid"`
	RejectReason    RejectReason `json:"reject_reason,omitempty"`
	OccurredAt      time.Time    `json:"occurred_at"`
	ValidatedAt     *time.Time   `json:"validated_at,omitempty"`
	PaidAt          *time.Time   `json:"paid_at,omitempty"`
}

// DeviceFingerprint carries the client-supplied signals hashed into a device identity.
type DeviceFingerprint struct {
	ScreenResolution string `json:"screen_resolution"`
	Timezone         string `json:"timezone"`
	Language         string `json:"language"`
	Platform         string `json:"platform"`
}

func (f DeviceFingerprint) IsZero() bool {
	return f.ScreenResolution == "" && f.Timezone == "" && f.Language == "" && f.Platform == ""
}

// HashIdentifier produces the irreversible hash stored instead of raw PII.
func HashIdentifier(value string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(value)))
	return hex.EncodeToString(sum[:])
}

// HashFingerprint folds the fingerprint components into a single device hash.
func HashFingerprint(fp DeviceFingerprint) string {
	if fp.IsZero() {
		return ""
	}
	return HashIdentifier(fp.ScreenResolution + "|" + fp.Timezone + "|" + fp.Language + "|" + fp.Platform)
}

func ValidateTrackViewInput(campaignID, creatorID, linkID, visitorID string) error {
	if strings.TrimSpace(campaignID) == "" || strings.TrimSpace(creatorID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(linkID) == "" || strings.TrimSpace(visitorID) == "" {
		return ErrInvalidInput
	}
	return nil
}
