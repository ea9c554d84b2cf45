package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled.
// It backs both outbox consumers (keyed by event ID) and the
// Idempotency-Key header on order submission.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl.
	// Returns true if the key was newly recorded, false if it already existed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes key so that a failed attempt can be retried
	Forget(ctx context.Context, key string) error

	Close() error
}
