package ports

import (
	"context"
	"time"
)

// VelocityStore counts requests in fixed rolling windows. Both the
// fraud-score IP velocity signal and the ingestion rate limit ride this
// port with different key prefixes and windows.
type VelocityStore interface {
	// Increment bumps the counter for key, setting the window TTL on
	// first write, and returns the post-increment count.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Count reads the current window counter without bumping it.
	Count(ctx context.Context, key string) (int64, error)
}
