package core

import (
	"context"
	"time"
)

// MetricsCollector records API telemetry. Implementations emit request
// latency and count to CloudWatch or an equivalent backend.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RateLimitStore abstracts the backing store for rate limiting. The bundled
// implementation is an in-process token bucket per client key.
type RateLimitStore interface {
	// Allow consumes one token for key and reports whether the request may
	// proceed.
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// RateLimitResult contains the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the bucket will next hold a token.
	ResetAt time.Time
}
