package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

// TxManager runs fn inside a single storage transaction. Repository
// calls made with the ctx passed to fn join that transaction, so a
// payout transition and its balance delta commit or roll back together.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type VisitRepository interface {
	Create(ctx context.Context, visit domain.VisitEvent) error
	GetByID(ctx context.Context, visitID string) (domain.VisitEvent, error)
	Update(ctx context.Context, visit domain.VisitEvent) error
	// HasRecordedVisit backs the dedupe check: any recorded visit for
	// the (campaign, creator, visitor) triple since the window start.
	HasRecordedVisit(ctx context.Context, campaignID, creatorID, visitorID string, since time.Time) (bool, error)
	// CountByVisitor backs the visitor-novelty signal.
	CountByVisitor(ctx context.Context, visitorID string) (int64, error)
	// CountByIPHash is the lifetime IP signal, distinct from the rolling velocity counter.
	CountByIPHash(ctx context.Context, ipHash string) (int64, error)
	// HasFingerprint backs the same-device recurrence signal.
	HasFingerprint(ctx context.Context, fingerprintHash string) (bool, error)
	// LatestValidated and EarliestValidated back the attribution resolver.
	LatestValidated(ctx context.Context, visitorID, campaignID string, since time.Time) (domain.VisitEvent, error)
	EarliestValidated(ctx context.Context, visitorID, campaignID string, since time.Time) (domain.VisitEvent, error)
	MarkPaid(ctx context.Context, visitID string, at time.Time) error
}

type ConversionRepository interface {
	Create(ctx context.Context, conversion domain.ConversionEvent) error
	GetByID(ctx context.Context, conversionID string) (domain.ConversionEvent, error)
	// HasValidConversion backs the duplicate-conversion check for
	// non-purchase types.
	HasValidConversion(ctx context.Context, visitorID, campaignID string) (bool, error)
}

type PayoutQuery struct {
	CreatorID string
	Status    domain.PayoutStatus
	Limit     int
	Offset    int
}

type PayoutQueueRepository interface {
	Create(ctx context.Context, entry domain.PayoutQueueEntry) error
	GetByID(ctx context.Context, entryID string) (domain.PayoutQueueEntry, error)
	List(ctx context.Context, query PayoutQuery) ([]domain.PayoutQueueEntry, int, error)
	// ListEligible returns PENDING entries whose delay has elapsed.
	ListEligible(ctx context.Context, asOf time.Time, limit int) ([]domain.PayoutQueueEntry, error)
	// ListExpiredReserves returns RELEASED entries still holding reserve
	// whose eligibility lies before the hold horizon. The hold counts
	// from eligibility, so a late release does not extend it.
	ListExpiredReserves(ctx context.Context, eligibleBefore time.Time, limit int) ([]domain.PayoutQueueEntry, error)
	// UpdateIf persists entry only while the stored status still equals
	// expect, returning domain.ErrConflict otherwise. Two concurrent
	// sweeps therefore cannot both win the same transition.
	UpdateIf(ctx context.Context, entry domain.PayoutQueueEntry, expect domain.PayoutStatus) error
	// SumReleasedSince supports the daily payout cap check.
	SumReleasedSince(ctx context.Context, creatorID string, since time.Time) (int64, error)
}

type BalanceRepository interface {
	Get(ctx context.Context, creatorID string) (domain.CreatorBalance, error)
	Upsert(ctx context.Context, balance domain.CreatorBalance) error
	// Apply adjusts balance fields by delta inside the ambient
	// transaction. Implementations reject deltas that would push
	// pending below zero.
	Apply(ctx context.Context, creatorID string, delta domain.BalanceDelta, at time.Time) error
}

type LedgerRepository interface {
	Create(ctx context.Context, entry domain.LedgerEntry) error
	ListByConversion(ctx context.Context, conversionID string) ([]domain.LedgerEntry, error)
}

type CampaignRepository interface {
	GetByID(ctx context.Context, campaignID string) (domain.Campaign, error)
}
