package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

// TrackConversion records a conversion signal unconditionally and, for
// valid attributions with positive revenue, settles the commission
// directly against the creator balance inside one transaction.
func (s *Service) TrackConversion(ctx context.Context, input TrackConversionInput) (TrackConversionResult, error) {
	campaignID := strings.TrimSpace(input.CampaignID)
	visitorID := strings.TrimSpace(input.VisitorID)
	if campaignID == "" || visitorID == "" {
		return TrackConversionResult{}, domain.ErrInvalidInput
	}
	conversionType := domain.NormalizeConversionType(input.Type)
	now := s.nowFn()

	attribution := s.resolveAttribution(ctx, visitorID, campaignID, input.LastTouch, now)

	// PURCHASE conversions are exempt from dedupe: a visitor may buy
	// repeatedly. Everything else is one valid conversion per
	// (visitor, campaign).
	if attribution.IsValid && conversionType != domain.ConversionTypePurchase {
		duplicate, err := s.conversions.HasValidConversion(ctx, visitorID, attribution.CampaignID)
		if err != nil {
			return TrackConversionResult{}, fmt.Errorf("duplicate conversion lookup: %w", err)
		}
		if duplicate {
			attribution = domain.Attribution{
				CampaignID: attribution.CampaignID,
				Model:      attribution.Model,
				IsValid:    false,
				Reason:     domain.AttributionFailureDuplicate,
			}
		}
	}

	conversion := domain.ConversionEvent{
		ConversionID: "ce-" + uuid.NewString(),
		CampaignID:   attribution.CampaignID,
		CreatorID:    attribution.CreatorID,
		VisitorID:    visitorID,
		Type:         conversionType,
		RevenueCents: input.RevenueCents,
		IsValid:      attribution.IsValid,
		OccurredAt:   now,
	}
	if attribution.IsValid {
		conversion.AttributedTo = string(attribution.Model)
	} else {
		conversion.AttributedTo = attribution.Reason
		conversion.CreatorID = nil
	}
	if err := s.conversions.Create(ctx, conversion); err != nil {
		return TrackConversionResult{}, fmt.Errorf("persist conversion: %w", err)
	}

	result := TrackConversionResult{Conversion: conversion}
	if !conversion.IsValid || conversion.RevenueCents <= 0 || conversion.CreatorID == nil {
		return result, nil
	}

	payout, err := s.settleConversion(ctx, conversion, now)
	if err != nil {
		return TrackConversionResult{}, err
	}
	result.PayoutCents = payout
	if payout > 0 {
		s.publishConversionAttributed(ctx, conversion, payout)
	}
	return result, nil
}

// resolveAttribution applies last-touch first, then first-click, both
// bounded by the attribution window. Last-touch wins whenever both are
// eligible.
func (s *Service) resolveAttribution(ctx context.Context, visitorID, requestedCampaignID string, lastTouch *domain.LastTouch, now time.Time) domain.Attribution {
	since := now.Add(-s.cfg.AttributionWindow)

	if lastTouch != nil && lastTouch.CampaignID != "" && lastTouch.TouchedAt.After(since) {
		if _, err := s.visits.LatestValidated(ctx, visitorID, lastTouch.CampaignID, since); err == nil {
			creatorID := lastTouch.CreatorID
			return domain.Attribution{
				CampaignID: lastTouch.CampaignID,
				CreatorID:  &creatorID,
				Model:      domain.AttributionLastClick,
				IsValid:    true,
			}
		}
	}

	if visit, err := s.visits.EarliestValidated(ctx, visitorID, requestedCampaignID, since); err == nil {
		creatorID := visit.CreatorID
		return domain.Attribution{
			CampaignID: requestedCampaignID,
			CreatorID:  &creatorID,
			Model:      domain.AttributionFirstClick,
			IsValid:    true,
		}
	}

	return domain.Attribution{
		CampaignID: requestedCampaignID,
		Model:      domain.AttributionDirect,
		IsValid:    false,
		Reason:     domain.AttributionFailureNoValidVisit,
	}
}

// settleConversion computes the commission, re-checks campaign budget
// headroom inside the transaction, and writes the paired ledger entries
// plus the balance increment atomically. Insufficient headroom leaves
// the conversion recorded but unsettled.
func (s *Service) settleConversion(ctx context.Context, conversion domain.ConversionEvent, now time.Time) (int64, error) {
	commission := s.cfg.ConversionPayout(conversion.RevenueCents)
	if commission <= 0 {
		return 0, nil
	}
	fee := domain.PlatformFee(commission, s.cfg.PlatformFeePercent)
	net := commission - fee
	creatorID := *conversion.CreatorID

	settled := false
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		campaign, err := s.campaigns.GetByID(ctx, conversion.CampaignID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if campaign.RemainingBudgetCents() < commission {
			s.logger.WarnContext(ctx, "conversion payout skipped on exhausted budget",
				"operation", "track_conversion",
				"campaign_id", conversion.CampaignID,
				"conversion_id", conversion.ConversionID,
			)
			return nil
		}
		if err := s.ledger.Create(ctx, domain.LedgerEntry{
			EntryID:      "le-" + uuid.NewString(),
			CampaignID:   conversion.CampaignID,
			CreatorID:    creatorID,
			ConversionID: conversion.ConversionID,
			Type:         domain.LedgerEntryConversionPayout,
			AmountCents:  net,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		if err := s.ledger.Create(ctx, domain.LedgerEntry{
			EntryID:      "le-" + uuid.NewString(),
			CampaignID:   conversion.CampaignID,
			CreatorID:    creatorID,
			ConversionID: conversion.ConversionID,
			Type:         domain.LedgerEntryPlatformFee,
			AmountCents:  fee,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		if err := s.balances.Apply(ctx, creatorID, domain.BalanceDelta{
			AvailableCents:   net,
			TotalEarnedCents: net,
		}, now); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("settle conversion: %w", err)
	}
	if !settled {
		return 0, nil
	}
	return net, nil
}
