package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

// Publishing is fire and forget. A broker outage must never roll back a
// settled transaction, so failures are logged and swallowed.

func (s *Service) publishVelocitySpike(ctx context.Context, entry domain.PayoutQueueEntry, anomaly float64) {
	at := s.nowFn()
	s.publishDomain(ctx, domain.EventVelocitySpikeDetected, entry.CreatorID, contracts.VelocitySpikePayload{
		CreatorID:     entry.CreatorID,
		CampaignID:    entry.CampaignID,
		PayoutEntryID: entry.EntryID,
		AnomalyScore:  anomaly,
		Threshold:     s.cfg.FreezeAnomalyThreshold,
		DetectedAt:    at.Format(time.RFC3339),
	}, "data.creator_id", at)
}

func (s *Service) publishCreatorFlagged(ctx context.Context, creatorID, reason string, frozenCount int) {
	at := s.nowFn()
	s.publishDomain(ctx, domain.EventCreatorFlagged, creatorID, contracts.CreatorFlaggedPayload{
		CreatorID:   creatorID,
		Reason:      reason,
		FrozenCount: frozenCount,
		FlaggedAt:   at.Format(time.RFC3339),
	}, "data.creator_id", at)
}

func (s *Service) publishPayoutReleased(ctx context.Context, entry domain.PayoutQueueEntry) {
	at := s.nowFn()
	if entry.ReleasedAt != nil {
		at = *entry.ReleasedAt
	}
	s.publishDomain(ctx, domain.EventPayoutReleased, entry.EntryID, contracts.PayoutReleasedPayload{
		PayoutEntryID: entry.EntryID,
		CreatorID:     entry.CreatorID,
		CampaignID:    entry.CampaignID,
		AmountCents:   entry.AmountCents,
		ReserveCents:  entry.ReserveAmountCents,
		ReleasedAt:    at.Format(time.RFC3339),
	}, "data.payout_entry_id", at)
}

func (s *Service) publishPayoutFrozen(ctx context.Context, entry domain.PayoutQueueEntry) {
	at := s.nowFn()
	s.publishDomain(ctx, domain.EventPayoutFrozen, entry.EntryID, contracts.PayoutFrozenPayload{
		PayoutEntryID: entry.EntryID,
		CreatorID:     entry.CreatorID,
		CampaignID:    entry.CampaignID,
		AmountCents:   entry.AmountCents,
		Reason:        entry.FreezeReason,
		FrozenAt:      at.Format(time.RFC3339),
	}, "data.payout_entry_id", at)
}

func (s *Service) publishConversionAttributed(ctx context.Context, conversion domain.ConversionEvent, payoutCents int64) {
	creatorID := ""
	if conversion.CreatorID != nil {
		creatorID = *conversion.CreatorID
	}
	s.publishDomain(ctx, domain.EventConversionAttributed, conversion.ConversionID, contracts.ConversionAttributedPayload{
		ConversionID:     conversion.ConversionID,
		CampaignID:       conversion.CampaignID,
		CreatorID:        creatorID,
		AttributionModel: conversion.AttributedTo,
		RevenueCents:     conversion.RevenueCents,
		PayoutCents:      payoutCents,
		OccurredAt:       conversion.OccurredAt.Format(time.RFC3339),
	}, "data.conversion_id", conversion.OccurredAt)
}

func (s *Service) publishDomain(ctx context.Context, eventType, partitionKey string, payload any, partitionKeyPath string, occurredAt time.Time) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode domain event", "event_type", eventType, "error", err.Error())
		return
	}
	envelope := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       occurredAt,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          uuid.NewString(),
		SchemaVersion:    "v1",
		Data:             data,
	}
	if err := s.events.PublishDomain(ctx, envelope); err != nil {
		s.logger.ErrorContext(ctx, "publish domain event",
			"event_type", eventType, "event_id", envelope.EventID, "error", err.Error())
	}
}
