// Package external holds the clients for third-party APIs. Every outbound
// call goes through BaseClient, which applies circuit breaking, retries with
// backoff and mapping of upstream failures to AppErrors.
package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"linecast/internal/types"
)

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns the defaults used for LINE API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    200 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// BaseClient wraps an *http.Client with a circuit breaker and retry loop.
// Provider clients hold one and send every request through Do.
type BaseClient struct {
	client       *http.Client
	breaker      *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy  RetryPolicy
	userAgent    string
	upstreamCode types.ErrorCode
	sleep        func(ctx context.Context, d time.Duration) error
}

// BaseClientOption configures a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc replaces the wait between retries. Tests use it to skip real
// delays.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) BaseClientOption {
	return func(c *BaseClient) {
		c.sleep = fn
	}
}

// WithUpstreamCode sets the error code reported when the provider is down.
// Defaults to upstream_unavailable.
func WithUpstreamCode(code types.ErrorCode) BaseClientOption {
	return func(c *BaseClient) {
		c.upstreamCode = code
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// NewBreaker returns the breaker used by default: it opens after more than
// five consecutive failures and probes again after 30 seconds.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// NewBaseClient creates a BaseClient named name for breaker reporting.
func NewBaseClient(httpClient *http.Client, name string, policy RetryPolicy, userAgent string, opts ...BaseClientOption) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	bc := &BaseClient{
		client:       httpClient,
		breaker:      NewBreaker(name),
		retryPolicy:  policy,
		userAgent:    userAgent,
		upstreamCode: types.ErrCodeUpstreamUnavailable,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do sends req, retrying on 429 and 5xx. Responses with any other status
// are returned as-is and the caller closes the body. Exhausted retries, an
// open breaker or transport failures come back as *types.AppError.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if id := types.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to buffer request body", err)
		}
	}

	var (
		lastResp *http.Response
		lastErr  error
	)

	attempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}

		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		lastResp, lastErr = resp, err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt == attempts-1 {
			break
		}

		if err := c.sleep(ctx, c.computeBackoff(attempt, resp)); err != nil {
			lastErr = err
			break
		}
	}

	if lastResp != nil {
		_ = lastResp.Body.Close()
	}
	return nil, c.mapError(ctx, lastResp, lastErr)
}

// computeBackoff honors Retry-After (seconds or HTTP date) and otherwise
// uses exponential backoff with jitter, clamped to [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(ra); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	ceiling := math.Min(
		float64(c.retryPolicy.MinWait)*math.Pow(2, float64(attempt)),
		float64(c.retryPolicy.MaxWait),
	)
	floor := float64(c.retryPolicy.MinWait)
	if ceiling <= floor {
		return c.retryPolicy.MinWait
	}
	return time.Duration(floor + rand.Float64()*(ceiling-floor))
}

func (c *BaseClient) mapError(ctx context.Context, resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(c.upstreamCode, "circuit breaker is open; upstream temporarily disabled", err)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppErrorWithDetails(c.upstreamCode,
				fmt.Sprintf("upstream returned %d after retries", resp.StatusCode), err,
				map[string]any{"upstreamStatus": resp.StatusCode})
		}
	}

	if ctx.Err() != nil {
		return types.NewAppError(c.upstreamCode, "upstream request timed out", err)
	}
	return types.NewAppError(c.upstreamCode, "upstream request failed", err)
}
