package core

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"linecast/internal/types"
)

// RateLimit enforces RateLimitStore per client IP. Without a store the
// middleware passes through. Store errors fail open so a broken limiter
// cannot take the API down.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.RateLimitStore == nil || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		key := types.GetClientIP(r.Context())
		if key == "" {
			key = extractClientIP(r)
		}

		result, err := s.RateLimitStore.Allow(r.Context(), key)
		if err != nil {
			s.Logger.ErrorContext(r.Context(), "rate limit store error",
				slog.String("client_ip", key),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			s.Logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			retryAfter := int(math.Ceil(time.Until(result.ResetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			Error(w, r, types.NewAppError(types.ErrCodeRateLimit, "Rate limit exceeded. Please retry later.", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// defaultBucketIdleTTL is how long an unused client bucket is kept.
const defaultBucketIdleTTL = 3 * time.Minute

// MemoryRateLimitStore keeps one token bucket per key in process memory.
// Buckets that have been idle for longer than the TTL are dropped by Sweep.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryRateLimitStore returns a store refilling rps tokens per second up
// to burst.
func NewMemoryRateLimitStore(rps float64, burst int) *MemoryRateLimitStore {
	if burst < 1 {
		burst = 1
	}
	return &MemoryRateLimitStore{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultBucketIdleTTL,
		now:     time.Now,
	}
}

// Allow implements RateLimitStore.
func (m *MemoryRateLimitStore) Allow(_ context.Context, key string) (RateLimitResult, error) {
	now := m.now()

	m.mu.Lock()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	m.mu.Unlock()

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	result := RateLimitResult{
		Allowed:   allowed,
		Limit:     m.burst,
		Remaining: max(int(math.Floor(tokens)), 0),
		ResetAt:   now,
	}
	if tokens < 1 && m.limit > 0 {
		wait := time.Duration((1 - tokens) / float64(m.limit) * float64(time.Second))
		result.ResetAt = now.Add(wait)
	}
	return result, nil
}

// Sweep removes buckets idle since before now minus the TTL and returns how
// many were dropped.
func (m *MemoryRateLimitStore) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
			dropped++
		}
	}
	return dropped
}

// Run sweeps idle buckets every interval until ctx is cancelled.
func (m *MemoryRateLimitStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
