package core

import (
	"context"
	"sync"
	"time"
)

// MockRateLimitStore implements RateLimitStore for tests. It returns Result
// (or Err) and records every key it was asked about.
type MockRateLimitStore struct {
	Result RateLimitResult
	Err    error

	// AllowFunc, when set, overrides Result and Err.
	AllowFunc func(ctx context.Context, key string) (RateLimitResult, error)

	mu   sync.Mutex
	Keys []string
}

// Allow implements RateLimitStore.
func (m *MockRateLimitStore) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	m.mu.Lock()
	m.Keys = append(m.Keys, key)
	m.mu.Unlock()

	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key)
	}
	if m.Err != nil {
		return RateLimitResult{}, m.Err
	}
	return m.Result, nil
}

// RecordedRequest is one call captured by MockMetricsCollector.
type RecordedRequest struct {
	Method   string
	Endpoint string
	Status   string
	Duration time.Duration
}

// MockMetricsCollector implements MetricsCollector for tests.
type MockMetricsCollector struct {
	mu       sync.Mutex
	Requests []RecordedRequest
}

// RecordRequest implements MetricsCollector.
func (m *MockMetricsCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, RecordedRequest{Method: method, Endpoint: endpoint, Status: status, Duration: duration})
}

// Recorded returns a snapshot of the captured calls.
func (m *MockMetricsCollector) Recorded() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.Requests))
	copy(out, m.Requests)
	return out
}

// MockHealthProbe implements HealthProbe for tests. CheckFunc, when set,
// overrides Err.
type MockHealthProbe struct {
	ProbeName string
	Err       error
	CheckFunc func(ctx context.Context) error
}

// Name implements HealthProbe.
func (m *MockHealthProbe) Name() string { return m.ProbeName }

// Check implements HealthProbe.
func (m *MockHealthProbe) Check(ctx context.Context) error {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx)
	}
	return m.Err
}
