package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

type enqueuePayoutInput struct {
	CreatorID   string
	CampaignID  string
	VisitID     string
	AmountCents int64
	Type        domain.PayoutType
	RiskScore   float64
	AdjustCPM   bool
}

// CreatePayoutQueueEntry is the administrative/queue-creation surface.
// The pixel path reuses the same enqueue logic inside its own transaction.
func (s *Service) CreatePayoutQueueEntry(ctx context.Context, actor Actor, creatorID, campaignID string, amountCents int64, payoutType domain.PayoutType, riskScore float64) (domain.PayoutQueueEntry, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.PayoutQueueEntry{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" {
		return domain.PayoutQueueEntry{}, domain.ErrForbidden
	}
	if err := domain.ValidatePayoutEntryInput(creatorID, campaignID, amountCents, payoutType); err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	var entry domain.PayoutQueueEntry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		created, err := s.enqueuePayout(ctx, enqueuePayoutInput{
			CreatorID:   creatorID,
			CampaignID:  campaignID,
			AmountCents: amountCents,
			Type:        payoutType,
			RiskScore:   riskScore,
			AdjustCPM:   payoutType == domain.PayoutTypeView,
		})
		entry = created
		return err
	})
	return entry, err
}

// enqueuePayout inserts a PENDING entry and bumps the creator's pending
// balance. Callers own the transaction boundary; both writes ride it.
func (s *Service) enqueuePayout(ctx context.Context, input enqueuePayoutInput) (domain.PayoutQueueEntry, error) {
	if _, err := s.balances.Get(ctx, input.CreatorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PayoutQueueEntry{}, domain.ErrBalanceMissing
		}
		return domain.PayoutQueueEntry{}, err
	}

	amount := input.AmountCents
	multiplier := 1.0
	trustScore := 0.0
	tier := ""
	if input.AdjustCPM {
		quote, err := s.pricing.CalculateAdjustedCpm(ctx, input.CampaignID, input.CreatorID)
		if err != nil {
			s.logger.WarnContext(ctx, "cpm pricing unavailable, using base amount",
				"campaign_id", input.CampaignID, "creator_id", input.CreatorID, "error", err.Error())
		} else {
			multiplier = quote.AppliedMultiplier
			trustScore = quote.CreatorTrustScore
			tier = quote.CreatorTier
			if quote.WasAdjusted && multiplier > 0 {
				amount = int64(math.Round(float64(amount) * multiplier))
			}
		}
	}
	if amount <= 0 {
		return domain.PayoutQueueEntry{}, domain.ErrInvalidInput
	}

	policy := domain.AssessByScore(input.RiskScore)
	now := s.nowFn()
	entry := domain.PayoutQueueEntry{
		EntryID:                   "pq-" + uuid.NewString(),
		CreatorID:                 input.CreatorID,
		CampaignID:                input.CampaignID,
		VisitID:                   input.VisitID,
		AmountCents:               amount,
		Type:                      input.Type,
		Status:                    domain.PayoutStatusPending,
		EligibleAt:                now.AddDate(0, 0, policy.PayoutDelayDays),
		RiskSnapshotScore:         input.RiskScore,
		RiskLevel:                 policy.Level,
		ReservePercent:            policy.ReservePercent,
		ReserveAmountCents:        domain.ReserveAmount(amount, policy.ReservePercent),
		AppliedMultiplier:         multiplier,
		CreatorTrustScoreSnapshot: trustScore,
		CreatorTierSnapshot:       tier,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if err := s.payouts.Create(ctx, entry); err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	if err := s.balances.Apply(ctx, input.CreatorID, domain.BalanceDelta{PendingCents: entry.AmountCents}, now); err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	return entry, nil
}

// ReleaseEligiblePayouts is the background sweep. Each entry is handled
// in its own transaction with a status-conditional update, so a
// concurrent sweep losing the race just skips the entry.
func (s *Service) ReleaseEligiblePayouts(ctx context.Context) (SweepResult, error) {
	now := s.nowFn()
	entries, err := s.payouts.ListEligible(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list eligible payouts: %w", err)
	}

	result := SweepResult{}
	frozenByCreator := map[string]int{}
	for _, entry := range entries {
		if campaign, err := s.campaigns.GetByID(ctx, entry.CampaignID); err == nil && campaign.Status == domain.CampaignStatusUnderReview {
			result.Skipped++
			continue
		}

		balance, err := s.balances.Get(ctx, entry.CreatorID)
		if err != nil {
			s.logger.ErrorContext(ctx, "sweep skipping entry without balance",
				"operation", "release_eligible", "entry_id", entry.EntryID, "error", err.Error())
			result.Skipped++
			continue
		}

		anomaly := s.currentAnomalyScore(ctx, entry.CreatorID, balance.Verified)
		if anomaly >= s.cfg.FreezeAnomalyThreshold || s.viewVelocitySpiked(ctx, entry.CreatorID, balance.Verified) {
			if err := s.freezeInSweep(ctx, entry, anomaly); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					continue
				}
				return result, err
			}
			result.Frozen++
			frozenByCreator[entry.CreatorID]++
			continue
		}

		dailyCap := domain.DailyPayoutCap(s.cfg.DailyPayoutCapCents, balance.Verified)
		releasedToday, err := s.payouts.SumReleasedSince(ctx, entry.CreatorID, now.Truncate(24*time.Hour))
		if err != nil {
			return result, fmt.Errorf("daily cap lookup: %w", err)
		}
		if releasedToday+entry.AmountCents > dailyCap {
			result.Deferred++
			continue
		}

		if err := s.releaseEntry(ctx, entry, now); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return result, err
		}
		result.Released++
	}

	for creatorID, count := range frozenByCreator {
		if count >= s.cfg.CreatorFlagFrozenThreshold {
			s.publishCreatorFlagged(ctx, creatorID, "repeated payout freezes in sweep", count)
		}
	}
	return result, nil
}

// viewVelocitySpiked checks the creator's rolling accepted-view counter
// against the verification-adjusted spike threshold. A counter outage
// reads as no spike; the anomaly score check still stands on its own.
func (s *Service) viewVelocitySpiked(ctx context.Context, creatorID string, verified bool) bool {
	views, err := s.velocity.Count(ctx, creatorViewsKey(creatorID))
	if err != nil {
		s.logger.WarnContext(ctx, "creator view counter unavailable", "operation", "release_eligible", "creator_id", creatorID, "error", err.Error())
		return false
	}
	return views >= int64(domain.SpikeThreshold(verified))
}

func (s *Service) freezeInSweep(ctx context.Context, entry domain.PayoutQueueEntry, anomaly float64) error {
	now := s.nowFn()
	frozen := entry
	frozen.Status = domain.PayoutStatusFrozen
	frozen.FreezeReason = "high anomaly score detected"
	frozen.UpdatedAt = now
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.payouts.UpdateIf(ctx, frozen, domain.PayoutStatusPending)
	})
	if err != nil {
		return err
	}
	s.publishVelocitySpike(ctx, frozen, anomaly)
	s.publishPayoutFrozen(ctx, frozen)
	return nil
}

// releaseEntry moves the money: pending loses the full amount, the
// reserve stays locked, the remainder becomes withdrawable, and a view
// entry's source visit is marked paid. All in one transaction.
func (s *Service) releaseEntry(ctx context.Context, entry domain.PayoutQueueEntry, now time.Time) error {
	released := entry
	released.Status = domain.PayoutStatusReleased
	released.ReleasedAt = &now
	released.UpdatedAt = now
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.payouts.UpdateIf(ctx, released, entry.Status); err != nil {
			return err
		}
		delta := domain.BalanceDelta{
			PendingCents:       -entry.AmountCents,
			AvailableCents:     entry.AmountCents - entry.ReserveAmountCents,
			LockedReserveCents: entry.ReserveAmountCents,
			TotalEarnedCents:   entry.AmountCents,
		}
		if err := s.balances.Apply(ctx, entry.CreatorID, delta, now); err != nil {
			return err
		}
		if entry.Type == domain.PayoutTypeView && entry.VisitID != "" {
			if err := s.visits.MarkPaid(ctx, entry.VisitID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publishPayoutReleased(ctx, released)
	return nil
}

// ReleaseExpiredReserves moves reserve held past the hold horizon into
// the available balance and zeroes the entry's reserve so it cannot be
// swept twice.
func (s *Service) ReleaseExpiredReserves(ctx context.Context) (int, error) {
	now := s.nowFn()
	horizon := now.AddDate(0, 0, -s.cfg.ReserveHoldDays)
	entries, err := s.payouts.ListExpiredReserves(ctx, horizon, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired reserves: %w", err)
	}
	released := 0
	for _, entry := range entries {
		reserve := entry.ReserveAmountCents
		if reserve <= 0 {
			continue
		}
		updated := entry
		updated.ReserveAmountCents = 0
		updated.UpdatedAt = now
		err := s.tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.payouts.UpdateIf(ctx, updated, domain.PayoutStatusReleased); err != nil {
				return err
			}
			return s.balances.Apply(ctx, entry.CreatorID, domain.BalanceDelta{
				LockedReserveCents: -reserve,
				AvailableCents:     reserve,
			}, now)
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return released, err
		}
		released++
	}
	return released, nil
}

// ForceReleasePayout is the administrative override out of PENDING or
// FROZEN. It performs the same balance adjustment as a normal release.
func (s *Service) ForceReleasePayout(ctx context.Context, actor Actor, entryID string) (domain.PayoutQueueEntry, error) {
	entry, err := s.adminLoadEntry(ctx, actor, entryID)
	if err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	if !entry.Status.CanTransitionTo(domain.PayoutStatusReleased) {
		return domain.PayoutQueueEntry{}, domain.ErrInvalidTransition
	}
	now := s.nowFn()
	if err := s.releaseEntry(ctx, entry, now); err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	return s.payouts.GetByID(ctx, entry.EntryID)
}

// CancelPayout reverses the pending increment. PENDING and FROZEN
// entries cancel; freezing moves no money, so the same reversal holds.
func (s *Service) CancelPayout(ctx context.Context, actor Actor, entryID, reason string) (domain.PayoutQueueEntry, error) {
	entry, err := s.adminLoadEntry(ctx, actor, entryID)
	if err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	if !entry.Status.CanTransitionTo(domain.PayoutStatusCancelled) {
		return domain.PayoutQueueEntry{}, domain.ErrInvalidTransition
	}
	now := s.nowFn()
	cancelled := entry
	cancelled.Status = domain.PayoutStatusCancelled
	cancelled.CancelledAt = &now
	cancelled.CancelReason = strings.TrimSpace(reason)
	cancelled.UpdatedAt = now
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.payouts.UpdateIf(ctx, cancelled, entry.Status); err != nil {
			return err
		}
		return s.balances.Apply(ctx, entry.CreatorID, domain.BalanceDelta{PendingCents: -entry.AmountCents}, now)
	})
	if err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	return cancelled, nil
}

// FreezePayout parks a PENDING entry without touching balances; the
// money stays in pending limbo until an administrator resolves it.
func (s *Service) FreezePayout(ctx context.Context, actor Actor, entryID, reason string) (domain.PayoutQueueEntry, error) {
	entry, err := s.adminLoadEntry(ctx, actor, entryID)
	if err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	if !entry.Status.CanTransitionTo(domain.PayoutStatusFrozen) {
		return domain.PayoutQueueEntry{}, domain.ErrInvalidTransition
	}
	now := s.nowFn()
	frozen := entry
	frozen.Status = domain.PayoutStatusFrozen
	frozen.FreezeReason = strings.TrimSpace(reason)
	frozen.UpdatedAt = now
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.payouts.UpdateIf(ctx, frozen, entry.Status)
	})
	if err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	s.publishPayoutFrozen(ctx, frozen)
	return frozen, nil
}

func (s *Service) GetPayout(ctx context.Context, actor Actor, entryID string) (domain.PayoutQueueEntry, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.PayoutQueueEntry{}, domain.ErrUnauthorized
	}
	entry, err := s.payouts.GetByID(ctx, strings.TrimSpace(entryID))
	if err != nil {
		return domain.PayoutQueueEntry{}, err
	}
	if actor.Role != "admin" && entry.CreatorID != actor.SubjectID {
		return domain.PayoutQueueEntry{}, domain.ErrForbidden
	}
	return entry, nil
}

func (s *Service) ListPayouts(ctx context.Context, actor Actor, query ports.PayoutQuery) ([]domain.PayoutQueueEntry, int, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, 0, domain.ErrUnauthorized
	}
	if actor.Role != "admin" {
		query.CreatorID = actor.SubjectID
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	return s.payouts.List(ctx, query)
}

func (s *Service) GetCreatorBalance(ctx context.Context, actor Actor, creatorID string) (domain.CreatorBalance, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.CreatorBalance{}, domain.ErrUnauthorized
	}
	creatorID = strings.TrimSpace(creatorID)
	if actor.Role != "admin" && creatorID != actor.SubjectID {
		return domain.CreatorBalance{}, domain.ErrForbidden
	}
	return s.balances.Get(ctx, creatorID)
}

func (s *Service) adminLoadEntry(ctx context.Context, actor Actor, entryID string) (domain.PayoutQueueEntry, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.PayoutQueueEntry{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" {
		return domain.PayoutQueueEntry{}, domain.ErrForbidden
	}
	return s.payouts.GetByID(ctx, strings.TrimSpace(entryID))
}
