package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

// DefaultTopicByEvent routes each event type to its canonical topic.
func DefaultTopicByEvent() map[string]string {
	return map[string]string{
		domain.EventVelocitySpikeDetected: "traffic.fraud.v1",
		domain.EventCreatorFlagged:        "traffic.fraud.v1",
		domain.EventPayoutReleased:        "traffic.settlement.v1",
		domain.EventPayoutFrozen:          "traffic.settlement.v1",
		domain.EventConversionAttributed:  "traffic.attribution.v1",
	}
}

type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topicByEvent == nil {
		topicByEvent = DefaultTopicByEvent()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topicByEvent,
	}, nil
}

func (p *KafkaPublisher) PublishDomain(ctx context.Context, event contracts.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	topic := event.EventType
	if mapped, ok := p.topicByEvent[event.EventType]; ok && mapped != "" {
		topic = mapped
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.PartitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
