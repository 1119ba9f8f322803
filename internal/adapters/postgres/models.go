package postgres

import "time"

type visitEventModel struct {
	VisitID         string     `gorm:"column:visit_id;primaryKey"`
	CampaignID      string     `gorm:"column:campaign_id;index"`
	CreatorID       string     `gorm:"column:creator_id;index"`
	LinkID          string     `gorm:"column:link_id"`
	VisitorID       string     `gorm:"column:visitor_id;index"`
	IPHash          string     `gorm:"column:ip_hash;index"`
	UserAgentHash   string     `gorm:"column:user_agent_hash"`
	FingerprintHash string     `gorm:"column:fingerprint_hash"`
	Referrer        *string    `gorm:"column:referrer"`
	CountryCode     *string    `gorm:"column:country_code"`
	FraudScore      int        `gorm:"column:fraud_score"`
	IsSuspicious    bool       `gorm:"column:is_suspicious"`
	IsRecorded      bool       `gorm:"column:is_recorded"`
	IsValidated     bool       `gorm:"column:is_validated"`
	IsBillable      bool       `gorm:"column:is_billable"`
	IsPaid          bool       `gorm:"column:is_paid"`
	RejectReason    string     `gorm:"column:reject_reason"`
	OccurredAt      time.Time  `gorm:"column:occurred_at"`
	ValidatedAt     *time.Time `gorm:"column:validated_at"`
	PaidAt          *time.Time `gorm:"column:paid_at"`
}

func (visitEventModel) TableName() string { return "visit_events" }

type conversionEventModel struct {
	ConversionID string    `gorm:"column:conversion_id;primaryKey"`
	CampaignID   string    `gorm:"column:campaign_id;index"`
	CreatorID    *string   `gorm:"column:creator_id"`
	VisitorID    string    `gorm:"column:visitor_id;index"`
	Type         string    `gorm:"column:type"`
	RevenueCents int64     `gorm:"column:revenue_cents"`
	AttributedTo string    `gorm:"column:attributed_to"`
	IsValid      bool      `gorm:"column:is_valid"`
	OccurredAt   time.Time `gorm:"column:occurred_at"`
}

func (conversionEventModel) TableName() string { return "conversion_events" }

type payoutQueueModel struct {
	EntryID                   string     `gorm:"column:entry_id;primaryKey"`
	CreatorID                 string     `gorm:"column:creator_id;index"`
	CampaignID                string     `gorm:"column:campaign_id;index"`
	VisitID                   string     `gorm:"column:visit_id"`
	AmountCents               int64      `gorm:"column:amount_cents"`
	Type                      string     `gorm:"column:type"`
	Status                    string     `gorm:"column:status;index"`
	EligibleAt                time.Time  `gorm:"column:eligible_at;index"`
	RiskSnapshotScore         float64    `gorm:"column:risk_snapshot_score"`
	RiskLevel                 string     `gorm:"column:risk_level"`
	ReservePercent            int        `gorm:"column:reserve_percent"`
	ReserveAmountCents        int64      `gorm:"column:reserve_amount_cents"`
	AppliedMultiplier         float64    `gorm:"column:applied_multiplier"`
	CreatorTrustScoreSnapshot float64    `gorm:"column:creator_trust_score_snapshot"`
	CreatorTierSnapshot       string     `gorm:"column:creator_tier_snapshot"`
	ReleasedAt                *time.Time `gorm:"column:released_at"`
	CancelledAt               *time.Time `gorm:"column:cancelled_at"`
	CancelReason              string     `gorm:"column:cancel_reason"`
	FreezeReason              string     `gorm:"column:freeze_reason"`
	CreatedAt                 time.Time  `gorm:"column:created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at"`
}

func (payoutQueueModel) TableName() string { return "payout_queue" }

type creatorBalanceModel struct {
	CreatorID             string    `gorm:"column:creator_id;primaryKey"`
	AvailableBalanceCents int64     `gorm:"column:available_balance_cents"`
	PendingBalanceCents   int64     `gorm:"column:pending_balance_cents"`
	LockedReserveCents    int64     `gorm:"column:locked_reserve_cents"`
	TotalEarnedCents      int64     `gorm:"column:total_earned_cents"`
	RiskLevel             string    `gorm:"column:risk_level"`
	PayoutDelayDays       int       `gorm:"column:payout_delay_days"`
	Verified              bool      `gorm:"column:verified"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (creatorBalanceModel) TableName() string { return "creator_balances" }

type ledgerEntryModel struct {
	EntryID      string    `gorm:"column:entry_id;primaryKey"`
	CampaignID   string    `gorm:"column:campaign_id;index"`
	CreatorID    string    `gorm:"column:creator_id;index"`
	ConversionID string    `gorm:"column:conversion_id;index"`
	Type         string    `gorm:"column:type"`
	AmountCents  int64     `gorm:"column:amount_cents"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (ledgerEntryModel) TableName() string { return "settlement_ledger" }

type campaignModel struct {
	CampaignID          string    `gorm:"column:campaign_id;primaryKey"`
	AdvertiserID        string    `gorm:"column:advertiser_id"`
	Status              string    `gorm:"column:status"`
	PayoutMode          string    `gorm:"column:payout_mode"`
	FraudScoreThreshold int       `gorm:"column:fraud_score_threshold"`
	TotalBudgetCents    int64     `gorm:"column:total_budget_cents"`
	SpentCents          int64     `gorm:"column:spent_cents"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string { return "campaigns" }
