package external

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"linecast/internal/types"
)

func noopSleep(context.Context, time.Duration) error { return nil }

func newTestClient(policy RetryPolicy, opts ...BaseClientOption) *BaseClient {
	opts = append([]BaseClientOption{WithSleepFunc(noopSleep)}, opts...)
	return NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "test-breaker", policy, "linecast-test/1.0", opts...)
}

func mustRequest(t *testing.T, ctx context.Context, method, url string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	return req
}

func appErrorCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalUsage":12}`))
	}))
	defer server.Close()

	resp, err := newTestClient(DefaultRetryPolicy()).Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"totalUsage":12}` {
		t.Errorf("body = %s", body)
	}
}

func TestDo_PropagatesHeaders(t *testing.T) {
	var gotID, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	ctx := types.WithRequestID(context.Background(), "req-42")
	resp, err := newTestClient(DefaultRetryPolicy()).Do(mustRequest(t, ctx, http.MethodGet, server.URL, nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if gotID != "req-42" {
		t.Errorf("X-Request-Id = %q", gotID)
	}
	if gotUA != "linecast-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestDo_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("attempt %d body = %q", calls.Load()+1, body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: time.Millisecond})
	resp, err := client.Do(mustRequest(t, context.Background(), http.MethodPost, server.URL, strings.NewReader("payload")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDo_ExhaustedRetriesMapToUpstreamCode(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		WithUpstreamCode(types.ErrCodeUpstreamLine))
	_, err := client.Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, nil))

	if code := appErrorCode(t, err); code != types.ErrCodeUpstreamLine {
		t.Errorf("code = %q", code)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestDo_RateLimitedUpstream(t *testing.T) {
	var waits []time.Duration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: 5 * time.Second},
		WithSleepFunc(func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}))
	_, err := client.Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, nil))

	if code := appErrorCode(t, err); code != types.ErrCodeUpstreamRateLimited {
		t.Errorf("code = %q", code)
	}
	if len(waits) != 1 || waits[0] != time.Second {
		t.Errorf("waits = %v, want [1s]", waits)
	}
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	resp, err := newTestClient(DefaultRetryPolicy()).Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, nil))
	if err != nil {
		t.Fatalf("4xx should be returned as a response, got %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized || calls.Load() != 1 {
		t.Errorf("status %d after %d calls", resp.StatusCode, calls.Load())
	}
}

func TestDo_CancelledWhileWaiting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(DefaultRetryPolicy(), WithSleepFunc(func(context.Context, time.Duration) error {
		return context.Canceled
	}))
	_, err := client.Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, nil))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want wrapped context.Canceled", err)
	}
}

func TestDo_OpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "trip-fast",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	client := newTestClient(RetryPolicy{MaxRetries: 3}, WithBreaker(breaker), WithUpstreamCode(types.ErrCodeUpstreamLine))

	_, err := client.Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, nil))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want open breaker", err)
	}
	if code := appErrorCode(t, err); code != types.ErrCodeUpstreamLine {
		t.Errorf("code = %q", code)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestComputeBackoff(t *testing.T) {
	c := newTestClient(RetryPolicy{MinWait: 100 * time.Millisecond, MaxWait: time.Second})

	for attempt := 0; attempt < 6; attempt++ {
		d := c.computeBackoff(attempt, nil)
		if d < 100*time.Millisecond || d > time.Second {
			t.Errorf("attempt %d: backoff %v outside [100ms, 1s]", attempt, d)
		}
	}

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	if d := c.computeBackoff(0, resp); d != time.Second {
		t.Errorf("Retry-After should clamp to MaxWait, got %v", d)
	}

	past := &http.Response{Header: http.Header{"Retry-After": []string{time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)}}}
	if d := c.computeBackoff(0, past); d != 100*time.Millisecond {
		t.Errorf("past Retry-After date should use MinWait, got %v", d)
	}
}
