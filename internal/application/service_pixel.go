package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

// ValidatePixel is the delayed second phase. It is idempotent: a second
// call against an already-validated visit is a cheap no-op and never
// enqueues a second payout. A paid visit is never transitioned.
func (s *Service) ValidatePixel(ctx context.Context, visitID string) (PixelResult, error) {
	visitID = strings.TrimSpace(visitID)
	if visitID == "" {
		return PixelResult{Outcome: PixelOutcomeNotFound}, domain.ErrInvalidInput
	}

	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return PixelResult{Outcome: PixelOutcomeNotFound}, nil
		}
		return PixelResult{}, fmt.Errorf("load visit: %w", err)
	}
	if visit.IsPaid || visit.IsValidated {
		return PixelResult{Outcome: PixelOutcomeAlreadyValidated, Visit: visit}, nil
	}
	if !visit.IsRecorded {
		return PixelResult{Outcome: PixelOutcomeInvalidState, Visit: visit}, nil
	}

	now := s.nowFn()
	visit.IsValidated = true
	visit.ValidatedAt = &now

	// Visits rejected at ingestion keep their reason; validation just
	// closes the loop for analytics.
	if visit.RejectReason != "" {
		return s.finishNonBillable(ctx, visit, visit.RejectReason)
	}

	campaign, err := s.campaigns.GetByID(ctx, visit.CampaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.finishNonBillable(ctx, visit, domain.RejectReasonCampaignNotFound)
		}
		return PixelResult{}, fmt.Errorf("load campaign: %w", err)
	}
	if campaign.Status != domain.CampaignStatusActive {
		return s.finishNonBillable(ctx, visit, domain.RejectReasonCampaignInactive)
	}

	if visit.FraudScore >= campaign.EffectiveFraudThreshold() || domain.IsViewSuspicious(visit.FraudScore) {
		visit.IsSuspicious = true
		return s.finishNonBillable(ctx, visit, domain.RejectReasonSuspicious)
	}

	if campaign.PayoutMode == domain.PayoutModeCPAOnly {
		return s.finishNonBillable(ctx, visit, domain.RejectReasonCPAOnly)
	}

	result, err := s.budget.RecordValidViewPayout(ctx, visit.CampaignID, visit.CreatorID, visit.VisitID)
	if err != nil {
		return PixelResult{}, fmt.Errorf("budget ledger: %w", err)
	}
	if !result.Success {
		if result.ErrorCode == "" || result.ErrorCode == ports.BudgetErrorInsufficient {
			s.logger.WarnContext(ctx, "view payout skipped on exhausted budget",
				"operation", "validate_pixel",
				"campaign_id", visit.CampaignID,
				"visit_id", visit.VisitID,
			)
			return s.finishNonBillable(ctx, visit, domain.RejectReasonBudgetExhausted)
		}
		return PixelResult{}, fmt.Errorf("budget ledger rejected view payout: %s", result.ErrorCode)
	}

	balance, err := s.balances.Get(ctx, visit.CreatorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "view payout skipped, creator balance missing",
				"operation", "validate_pixel",
				"creator_id", visit.CreatorID,
				"visit_id", visit.VisitID,
			)
			return s.finishNonBillable(ctx, visit, "")
		}
		return PixelResult{}, fmt.Errorf("load balance: %w", err)
	}

	anomalyScore := s.currentAnomalyScore(ctx, visit.CreatorID, balance.Verified)

	visit.IsBillable = true
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.visits.Update(ctx, visit); err != nil {
			return err
		}
		_, err := s.enqueuePayout(ctx, enqueuePayoutInput{
			CreatorID:   visit.CreatorID,
			CampaignID:  visit.CampaignID,
			VisitID:     visit.VisitID,
			AmountCents: result.NetPayoutCents,
			Type:        domain.PayoutTypeView,
			RiskScore:   anomalyScore,
			AdjustCPM:   true,
		})
		return err
	})
	if err != nil {
		return PixelResult{}, fmt.Errorf("enqueue view payout: %w", err)
	}
	return PixelResult{Outcome: PixelOutcomeValidatedBillable, Visit: visit}, nil
}

func (s *Service) finishNonBillable(ctx context.Context, visit domain.VisitEvent, reason domain.RejectReason) (PixelResult, error) {
	if reason != "" {
		visit.RejectReason = reason
	}
	if err := s.visits.Update(ctx, visit); err != nil {
		return PixelResult{}, fmt.Errorf("persist validated visit: %w", err)
	}
	return PixelResult{Outcome: PixelOutcomeValidatedNonBillable, Visit: visit}, nil
}

// currentAnomalyScore fetches the rolling metric and applies the
// verification adjustment. A metrics outage degrades to zero rather
// than blocking the pixel path.
func (s *Service) currentAnomalyScore(ctx context.Context, creatorID string, verified bool) float64 {
	raw, err := s.metrics.GetLatestAnomalyScore(ctx, creatorID)
	if err != nil {
		s.logger.WarnContext(ctx, "anomaly score unavailable", "creator_id", creatorID, "error", err.Error())
		raw = 0
	}
	return domain.AdjustedAnomalyScore(raw, verified)
}
