// Package config defines the runtime configuration of the linecast API.
// Configuration is loaded once at process start (or Lambda cold start) and
// is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> struct tag defaults (Lowest)
//
// Any invalid value causes LoadConfig to fail before the server starts.
package config

import (
	"time"

	"linecast/internal/types"
)

// SecretString is an alias for types.SecretString so config consumers do not
// need to import types for credentials.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the sections they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"linecast-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	Pricing       PricingConfig
	Line          LineConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Injected via ldflags, not env.
	Build BuildInfo `ignored:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
}

// DatabaseConfig holds the simulation store connection. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"1" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// Enabled reports whether a Postgres URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL.IsSet()
}

// PricingConfig selects the plan catalog.
type PricingConfig struct {
	// CatalogFile optionally replaces the built-in LINE price list.
	CatalogFile string `envconfig:"PRICING_CATALOG_FILE"`
	// DefaultPlan prices /cost/usage when the caller does not name a plan.
	DefaultPlan types.PlanID `envconfig:"PRICING_DEFAULT_PLAN" default:"light" validate:"oneof=free light standard"`
}

// LineConfig holds Messaging API credentials for the usage endpoint.
type LineConfig struct {
	ChannelAccessToken SecretString  `envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
	BaseURL            string        `envconfig:"LINE_API_BASE_URL" default:"https://api.line.me" validate:"required,url"`
	Timeout            time.Duration `envconfig:"LINE_TIMEOUT" default:"5s" validate:"gt=0"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimitRPS       float64  `envconfig:"RATE_LIMIT_RPS" default:"10" validate:"gte=0"`
	RateLimitBurst     int      `envconfig:"RATE_LIMIT_BURST" default:"20" validate:"gte=0"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Linecast"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrParsing indicates an environment value could not be converted to
	// its target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrCatalog indicates PRICING_CATALOG_FILE points at an unreadable file.
	ErrCatalog ConfigErrorType = "CATALOG_UNREADABLE"
)
