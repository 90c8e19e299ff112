package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"linecast/internal/config"
	"linecast/internal/types"
)

const (
	lineAPIBase        = "https://api.line.me"
	quotaPath          = "/v2/bot/message/quota"
	consumptionPath    = "/v2/bot/message/quota/consumption"
	lineUserAgent      = "linecast/1.0"
	maxLineErrorBody   = 4 << 10
	defaultLineTimeout = 5 * time.Second
)

// LineClientConfig configures a LineClient.
type LineClientConfig struct {
	ChannelAccessToken types.SecretString
	BaseURL            string // defaults to https://api.line.me
	Logger             *slog.Logger
}

// LineClient calls the LINE Messaging API quota endpoints with a channel
// access token.
type LineClient struct {
	base    *BaseClient
	token   types.SecretString
	baseURL string
	logger  *slog.Logger
}

// lineErrorBody is the error shape returned by the Messaging API.
type lineErrorBody struct {
	Message string `json:"message"`
}

// NewLineClient builds a LineClient sending through base. A nil base gets
// the default retry policy and breaker.
func NewLineClient(base *BaseClient, cfg LineClientConfig) *LineClient {
	if base == nil {
		base = NewBaseClient(
			&http.Client{Timeout: defaultLineTimeout},
			"line",
			DefaultRetryPolicy(),
			lineUserAgent,
			WithUpstreamCode(types.ErrCodeUpstreamLine),
		)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = lineAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LineClient{
		base:    base,
		token:   cfg.ChannelAccessToken,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// NewLineClientFromConfig returns a LineClient for cfg, or nil when no
// channel access token is configured.
func NewLineClientFromConfig(cfg config.LineConfig, logger *slog.Logger) *LineClient {
	if !cfg.ChannelAccessToken.IsSet() {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLineTimeout
	}
	base := NewBaseClient(
		&http.Client{Timeout: timeout},
		"line",
		DefaultRetryPolicy(),
		lineUserAgent,
		WithUpstreamCode(types.ErrCodeUpstreamLine),
	)
	return NewLineClient(base, LineClientConfig{
		ChannelAccessToken: cfg.ChannelAccessToken,
		BaseURL:            cfg.BaseURL,
		Logger:             logger,
	})
}

// GetQuota returns the monthly message ceiling of the account.
func (c *LineClient) GetQuota(ctx context.Context) (*types.MessageQuota, error) {
	var q types.MessageQuota
	if err := c.getJSON(ctx, quotaPath, &q); err != nil {
		return nil, err
	}
	if q.Type != types.QuotaLimited && q.Type != types.QuotaNone {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamLine,
			"LINE returned an unknown quota type", nil,
			map[string]any{"type": string(q.Type)})
	}
	return &q, nil
}

// GetConsumption returns the messages counted against the quota this month.
func (c *LineClient) GetConsumption(ctx context.Context) (*types.MessageConsumption, error) {
	var mc types.MessageConsumption
	if err := c.getJSON(ctx, consumptionPath, &mc); err != nil {
		return nil, err
	}
	return &mc, nil
}

func (c *LineClient) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build LINE request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token.Unmask())
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "LINE request failed", "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(ctx, path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamLine, "failed to decode LINE response", err)
	}
	return nil
}

// errorFromResponse maps the 4xx answers BaseClient passes through. LINE
// rejects bad or expired tokens with 401 and unsupported accounts with 403;
// neither is something the caller can fix per request, so both are
// upstream failures.
func (c *LineClient) errorFromResponse(ctx context.Context, path string, resp *http.Response) error {
	var body lineErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLineErrorBody))
	_ = json.Unmarshal(raw, &body)

	c.logger.WarnContext(ctx, "LINE rejected request",
		"path", path,
		"status", resp.StatusCode,
		"message", body.Message,
	)

	return types.NewAppErrorWithDetails(types.ErrCodeUpstreamLine,
		fmt.Sprintf("LINE API returned %d", resp.StatusCode), nil,
		map[string]any{"upstreamStatus": resp.StatusCode, "upstreamMessage": body.Message})
}
