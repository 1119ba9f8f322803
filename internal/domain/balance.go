package domain

import "time"

// CreatorBalance is the single source of truth for money owed to a
// creator. It is only mutated inside a transaction that also advances
// exactly one payout queue entry or one direct ledger write.
type CreatorBalance struct {
	CreatorID             string    `json:"creator_id"`
	AvailableBalanceCents int64     `json:"available_balance_cents"`
	PendingBalanceCents   int64     `json:"pending_balance_cents"`
	LockedReserveCents    int64     `json:"locked_reserve_cents"`
	TotalEarnedCents      int64     `json:"total_earned_cents"`
	RiskLevel             RiskLevel `json:"risk_level,omitempty"`
	PayoutDelayDays       int       `json:"payout_delay_days,omitempty"`
	Verified              bool      `json:"verified"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// BalanceDelta is the signed adjustment applied alongside a payout
// transition. Every field is additive; the repository rejects deltas
// that would drive pending below zero.
type BalanceDelta struct {
	AvailableCents     int64
	PendingCents       int64
	LockedReserveCents int64
	TotalEarnedCents   int64
}
