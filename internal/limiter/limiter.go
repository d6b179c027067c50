// Package limiter defines interfaces and implementations for attempt rate
// limiting. The same limiter guards both login attempts and flag submissions,
// keyed by an arbitrary subject string (username, or user:challenge).
package limiter

import (
	"context"
	"time"
)

// Limiter controls repeated attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and optional retry-after.
	Allow(ctx context.Context, subject string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful attempt.
	Success(ctx context.Context, subject string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, subject string, ipHash []byte) (bool, time.Duration, error)
}
