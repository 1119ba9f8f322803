package ports

import (
	"context"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
)

// DomainPublisher is the fire-and-forget event bus. Callers swallow and
// log publish failures; a failed publish must never abort the owning
// transaction.
type DomainPublisher interface {
	PublishDomain(ctx context.Context, event contracts.EventEnvelope) error
}
