package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is the diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// loaderDeps holds the injectable dependencies for the loader.
type loaderDeps struct {
	dotenvFiles []string
	stat        func(name string) (os.FileInfo, error)
}

func defaultDeps() loaderDeps {
	return loaderDeps{stat: os.Stat}
}

// LoadConfig loads and validates the configuration:
//  1. Sets the process timezone to UTC.
//  2. Loads a .env file if present (existing variables win).
//  3. Processes envconfig tags.
//  4. Populates Config.Build from linker-injected variables.
//  5. Validates struct tags and cross-field rules.
func LoadConfig() (*Config, error) {
	return loadConfigWithDeps(defaultDeps())
}

func loadConfigWithDeps(deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// godotenv.Load does not override variables already in the environment
	// and a missing file is not an error for us.
	_ = godotenv.Load(deps.dotenvFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if cfg.Pricing.CatalogFile != "" {
		if _, err := deps.stat(cfg.Pricing.CatalogFile); err != nil {
			return nil, &ConfigError{
				Type:    ErrCatalog,
				Message: fmt.Sprintf("PRICING_CATALOG_FILE %q is not readable", cfg.Pricing.CatalogFile),
				Err:     err,
			}
		}
	}

	return &cfg, nil
}
