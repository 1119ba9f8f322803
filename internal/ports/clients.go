package ports

import "context"

// BudgetResult is the budget ledger response for a view payout attempt.
type BudgetResult struct {
	Success        bool
	NetPayoutCents int64
	ErrorCode      string
}

// BudgetErrorInsufficient is the ledger's budget-exhaustion code. It is
// an expected outcome, not a failure, at the pixel endpoint.
const BudgetErrorInsufficient = "INSUFFICIENT_BUDGET"

// BudgetLedger is the external campaign wallet. Lock/release/spend
// accounting lives outside this service.
type BudgetLedger interface {
	LockCampaignBudget(ctx context.Context, campaignID, advertiserID string, amountCents int64) error
	ReleaseCampaignBudget(ctx context.Context, campaignID, advertiserID string, amountCents int64) error
	ComputeCampaignBudget(ctx context.Context, campaignID string) (spentCents, remainingCents int64, err error)
	RecordValidViewPayout(ctx context.Context, campaignID, creatorID, visitID string) (BudgetResult, error)
}

// CpmQuote is the dynamic pricing outcome snapshotted onto a payout entry.
type CpmQuote struct {
	BaseCpmCents      int64
	AdjustedCpmCents  int64
	AppliedMultiplier float64
	CreatorTrustScore float64
	CreatorTier       string
	WasAdjusted       bool
}

type CpmPricing interface {
	CalculateAdjustedCpm(ctx context.Context, campaignID, creatorID string) (CpmQuote, error)
}

// TrafficMetrics exposes the rolling per-creator anomaly score computed
// outside this core.
type TrafficMetrics interface {
	GetLatestAnomalyScore(ctx context.Context, creatorID string) (float64, error)
}

// GeoResolver is best-effort: failures yield an empty country and are
// never fatal to ingestion.
type GeoResolver interface {
	ResolveCountry(ctx context.Context, ip string) (string, error)
}
