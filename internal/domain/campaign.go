package domain

import "time"

type CampaignStatus string
type PayoutMode string

const (
	CampaignStatusActive      CampaignStatus = "active"
	CampaignStatusPaused      CampaignStatus = "paused"
	CampaignStatusUnderReview CampaignStatus = "under_review"
	CampaignStatusCompleted   CampaignStatus = "completed"
)

const (
	PayoutModeCPM     PayoutMode = "cpm"
	PayoutModeCPAOnly PayoutMode = "cpa_only"
	PayoutModeHybrid  PayoutMode = "hybrid"
)

// DefaultFraudScoreThreshold applies when a campaign carries no explicit threshold.
const DefaultFraudScoreThreshold = 50

// Campaign is the read model this service consumes. Campaign CRUD lives
// elsewhere; only the columns that gate billing decisions are mapped here.
type Campaign struct {
	CampaignID          string         `json:"campaign_id"`
	AdvertiserID        string         `json:"advertiser_id"`
	Status              CampaignStatus `json:"status"`
	PayoutMode          PayoutMode     `json:"payout_mode"`
	FraudScoreThreshold int            `json:"fraud_score_threshold"`
	TotalBudgetCents    int64          `json:"total_budget_cents"`
	SpentCents          int64          `json:"spent_cents"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (c Campaign) EffectiveFraudThreshold() int {
	if c.FraudScoreThreshold > 0 {
		return c.FraudScoreThreshold
	}
	return DefaultFraudScoreThreshold
}

func (c Campaign) RemainingBudgetCents() int64 {
	remaining := c.TotalBudgetCents - c.SpentCents
	if remaining < 0 {
		return 0
	}
	return remaining
}
