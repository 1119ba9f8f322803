package events

import (
	"context"
	"sync"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
)

// MemoryDomainPublisher captures published envelopes for tests and
// local runs without a broker.
type MemoryDomainPublisher struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func NewMemoryDomainPublisher() *MemoryDomainPublisher {
	return &MemoryDomainPublisher{events: []contracts.EventEnvelope{}}
}

func (p *MemoryDomainPublisher) PublishDomain(_ context.Context, event contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryDomainPublisher) Events() []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.EventEnvelope, len(p.events))
	copy(out, p.events)
	return out
}
