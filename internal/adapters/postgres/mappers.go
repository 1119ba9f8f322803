package postgres

import (
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

func toVisitModel(v domain.VisitEvent) visitEventModel {
	return visitEventModel{
		VisitID:         v.VisitID,
		CampaignID:      v.CampaignID,
		CreatorID:       v.CreatorID,
		LinkID:          v.LinkID,
		VisitorID:       v.VisitorID,
		IPHash:          v.IPHash,
		UserAgentHash:   v.UserAgentHash,
		FingerprintHash: v.FingerprintHash,
		Referrer:        v.Referrer,
		CountryCode:     v.CountryCode,
		FraudScore:      v.FraudScore,
		IsSuspicious:    v.IsSuspicious,
		IsRecorded:      v.IsRecorded,
		IsValidated:     v.IsValidated,
		IsBillable:      v.IsBillable,
		IsPaid:          v.IsPaid,
		RejectReason:    string(v.RejectReason),
		OccurredAt:      v.OccurredAt,
		ValidatedAt:     v.ValidatedAt,
		PaidAt:          v.PaidAt,
	}
}

func toDomainVisit(rec visitEventModel) domain.VisitEvent {
	return domain.VisitEvent{
		VisitID:         rec.VisitID,
		CampaignID:      rec.CampaignID,
		CreatorID:       rec.CreatorID,
		LinkID:          rec.LinkID,
		VisitorID:       rec.VisitorID,
		IPHash:          rec.IPHash,
		UserAgentHash:   rec.UserAgentHash,
		FingerprintHash: rec.FingerprintHash,
		Referrer:        rec.Referrer,
		CountryCode:     rec.CountryCode,
		FraudScore:      rec.FraudScore,
		IsSuspicious:    rec.IsSuspicious,
		IsRecorded:      rec.IsRecorded,
		IsValidated:     rec.IsValidated,
		IsBillable:      rec.IsBillable,
		IsPaid:          rec.IsPaid,
		RejectReason:    domain.RejectReason(rec.RejectReason),
		OccurredAt:      rec.OccurredAt,
		ValidatedAt:     rec.ValidatedAt,
		PaidAt:          rec.PaidAt,
	}
}

func toConversionModel(c domain.ConversionEvent) conversionEventModel {
	return conversionEventModel{
		ConversionID: c.ConversionID,
		CampaignID:   c.CampaignID,
		CreatorID:    c.CreatorID,
		VisitorID:    c.VisitorID,
		Type:         string(c.Type),
		RevenueCents: c.RevenueCents,
		AttributedTo: c.AttributedTo,
		IsValid:      c.IsValid,
		OccurredAt:   c.OccurredAt,
	}
}

func toDomainConversion(rec conversionEventModel) domain.ConversionEvent {
	return domain.ConversionEvent{
		ConversionID: rec.ConversionID,
		CampaignID:   rec.CampaignID,
		CreatorID:    rec.CreatorID,
		VisitorID:    rec.VisitorID,
		Type:         domain.ConversionType(rec.Type),
		RevenueCents: rec.RevenueCents,
		AttributedTo: rec.AttributedTo,
		IsValid:      rec.IsValid,
		OccurredAt:   rec.OccurredAt,
	}
}

func toPayoutModel(e domain.PayoutQueueEntry) payoutQueueModel {
	return payoutQueueModel{
		EntryID:                   e.EntryID,
		CreatorID:                 e.CreatorID,
		CampaignID:                e.CampaignID,
		VisitID:                   e.VisitID,
		AmountCents:               e.AmountCents,
		Type:                      string(e.Type),
		Status:                    string(e.Status),
		EligibleAt:                e.EligibleAt,
		RiskSnapshotScore:         e.RiskSnapshotScore,
		RiskLevel:                 string(e.RiskLevel),
		ReservePercent:            e.ReservePercent,
		ReserveAmountCents:        e.ReserveAmountCents,
		AppliedMultiplier:         e.AppliedMultiplier,
		CreatorTrustScoreSnapshot: e.CreatorTrustScoreSnapshot,
		CreatorTierSnapshot:       e.CreatorTierSnapshot,
		ReleasedAt:                e.ReleasedAt,
		CancelledAt:               e.CancelledAt,
		CancelReason:              e.CancelReason,
		FreezeReason:              e.FreezeReason,
		CreatedAt:                 e.CreatedAt,
		UpdatedAt:                 e.UpdatedAt,
	}
}

func toDomainPayout(rec payoutQueueModel) domain.PayoutQueueEntry {
	return domain.PayoutQueueEntry{
		EntryID:                   rec.EntryID,
		CreatorID:                 rec.CreatorID,
		CampaignID:                rec.CampaignID,
		VisitID:                   rec.VisitID,
		AmountCents:               rec.AmountCents,
		Type:                      domain.PayoutType(rec.Type),
		Status:                    domain.PayoutStatus(rec.Status),
		EligibleAt:                rec.EligibleAt,
		RiskSnapshotScore:         rec.RiskSnapshotScore,
		RiskLevel:                 domain.RiskLevel(rec.RiskLevel),
		ReservePercent:            rec.ReservePercent,
		ReserveAmountCents:        rec.ReserveAmountCents,
		AppliedMultiplier:         rec.AppliedMultiplier,
		CreatorTrustScoreSnapshot: rec.CreatorTrustScoreSnapshot,
		CreatorTierSnapshot:       rec.CreatorTierSnapshot,
		ReleasedAt:                rec.ReleasedAt,
		CancelledAt:               rec.CancelledAt,
		CancelReason:              rec.CancelReason,
		FreezeReason:              rec.FreezeReason,
		CreatedAt:                 rec.CreatedAt,
		UpdatedAt:                 rec.UpdatedAt,
	}
}

func toBalanceModel(b domain.CreatorBalance) creatorBalanceModel {
	return creatorBalanceModel{
		CreatorID:             b.CreatorID,
		AvailableBalanceCents: b.AvailableBalanceCents,
		PendingBalanceCents:   b.PendingBalanceCents,
		LockedReserveCents:    b.LockedReserveCents,
		TotalEarnedCents:      b.TotalEarnedCents,
		RiskLevel:             string(b.RiskLevel),
		PayoutDelayDays:       b.PayoutDelayDays,
		Verified:              b.Verified,
		UpdatedAt:             b.UpdatedAt,
	}
}

func toDomainBalance(rec creatorBalanceModel) domain.CreatorBalance {
	return domain.CreatorBalance{
		CreatorID:             rec.CreatorID,
		AvailableBalanceCents: rec.AvailableBalanceCents,
		PendingBalanceCents:   rec.PendingBalanceCents,
		LockedReserveCents:    rec.LockedReserveCents,
		TotalEarnedCents:      rec.TotalEarnedCents,
		RiskLevel:             domain.RiskLevel(rec.RiskLevel),
		PayoutDelayDays:       rec.PayoutDelayDays,
		Verified:              rec.Verified,
		UpdatedAt:             rec.UpdatedAt,
	}
}

func toLedgerModel(e domain.LedgerEntry) ledgerEntryModel {
	return ledgerEntryModel{
		EntryID:      e.EntryID,
		CampaignID:   e.CampaignID,
		CreatorID:    e.CreatorID,
		ConversionID: e.ConversionID,
		Type:         string(e.Type),
		AmountCents:  e.AmountCents,
		CreatedAt:    e.CreatedAt,
	}
}

func toDomainLedger(rec ledgerEntryModel) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:      rec.EntryID,
		CampaignID:   rec.CampaignID,
		CreatorID:    rec.CreatorID,
		ConversionID: rec.ConversionID,
		Type:         domain.LedgerEntryType(rec.Type),
		AmountCents:  rec.AmountCents,
		CreatedAt:    rec.CreatedAt,
	}
}

func toDomainCampaign(rec campaignModel) domain.Campaign {
	return domain.Campaign{
		CampaignID:          rec.CampaignID,
		AdvertiserID:        rec.AdvertiserID,
		Status:              domain.CampaignStatus(rec.Status),
		PayoutMode:          domain.PayoutMode(rec.PayoutMode),
		FraudScoreThreshold: rec.FraudScoreThreshold,
		TotalBudgetCents:    rec.TotalBudgetCents,
		SpentCents:          rec.SpentCents,
		UpdatedAt:           rec.UpdatedAt,
	}
}
