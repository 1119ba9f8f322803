package domain

import "time"

type LedgerEntryType string

const (
	LedgerEntryConversionPayout LedgerEntryType = "conversion_payout"
	LedgerEntryPlatformFee      LedgerEntryType = "platform_fee"
)

// LedgerEntry records a settled conversion movement. View payouts flow
// through the payout queue instead and never appear here.
type LedgerEntry struct {
	EntryID      string          `json:"entry_id"`
	CampaignID   string          `json:"campaign_id"`
	CreatorID    string          `json:"creator_id"`
	ConversionID string          `json:"conversion_id"`
	Type         LedgerEntryType `json:"type"`
	AmountCents  int64           `json:"amount_cents"`
	CreatedAt    time.Time       `json:"created_at"`
}
