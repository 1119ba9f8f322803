package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type VelocitySpikePayload struct {
	CreatorID     string  `json:"creator_id"`
	CampaignID    string  `json:"campaign_id"`
	PayoutEntryID string  `json:"payout_entry_id"`
	AnomalyScore  float64 `json:"anomaly_score"`
	Threshold     float64 `json:"threshold"`
	DetectedAt    string  `json:"detected_at"`
}

type CreatorFlaggedPayload struct {
	CreatorID   string `json:"creator_id"`
	Reason      string `json:"reason"`
	FrozenCount int    `json:"frozen_count"`
	FlaggedAt   string `json:"flagged_at"`
}

type PayoutReleasedPayload struct {
	PayoutEntryID string `json:"payout_entry_id"`
	CreatorID     string `json:"creator_id"`
	CampaignID    string `json:"campaign_id"`
	AmountCents   int64  `json:"amount_cents"`
	ReserveCents  int64  `json:"reserve_cents"`
	ReleasedAt    string `json:"released_at"`
}

type PayoutFrozenPayload struct {
	PayoutEntryID string `json:"payout_entry_id"`
	CreatorID     string `json:"creator_id"`
	CampaignID    string `json:"campaign_id"`
	AmountCents   int64  `json:"amount_cents"`
	Reason        string `json:"reason"`
	FrozenAt      string `json:"frozen_at"`
}

type ConversionAttributedPayload struct {
	ConversionID     string `json:"conversion_id"`
	CampaignID       string `json:"campaign_id"`
	CreatorID        string `json:"creator_id"`
	AttributionModel string `json:"attribution_model"`
	RevenueCents     int64  `json:"revenue_cents"`
	PayoutCents      int64  `json:"payout_cents"`
	OccurredAt       string `json:"occurred_at"`
}
