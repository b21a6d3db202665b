package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys for operations that must not run twice.
// It backs the gateway idempotency keys attached to intent and refund
// calls, so a timed-out call can be retried without creating a second
// gateway-side object.
type IdempotencyStore interface {
	// Remember stores the value under key with a TTL, returning the value
	// already stored if the key exists. The bool is true when the key was
	// newly stored.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error)

	// MarkProcessed marks a key as processed with a TTL
	// Returns true if the key was newly marked, false if already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been marked
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for remembered keys
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
