package memory

import (
	"context"
	"sync"
	"time"
)

// VelocityStore mimics the Redis counter semantics with expiry tracked
// per key. Good enough for tests and broker-less local runs.
type VelocityStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
	nowFn   func() time.Time
}

func NewVelocityStore() *VelocityStore {
	return &VelocityStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *VelocityStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	if expiry, ok := s.expires[key]; ok && now.After(expiry) {
		delete(s.counts, key)
		delete(s.expires, key)
	}
	s.counts[key]++
	if s.counts[key] == 1 {
		s.expires[key] = now.Add(window)
	}
	return s.counts[key], nil
}

func (s *VelocityStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry, ok := s.expires[key]; ok && s.nowFn().After(expiry) {
		return 0, nil
	}
	return s.counts[key], nil
}
