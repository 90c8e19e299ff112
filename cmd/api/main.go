// Package main is the entry point for the linecast API server.
//
// It loads the configuration, opens the simulation store (PostgreSQL when
// DATABASE_URL is set, memory otherwise), builds the HTTP server with the
// core chassis and the cost handlers, and starts serving.
//
// Inside AWS Lambda the router is driven by API Gateway v2 events; elsewhere
// it runs as a standard HTTP server on the configured port.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"linecast/internal/api/handlers"
	"linecast/internal/config"
	"linecast/internal/core"
	"linecast/internal/db"
	"linecast/internal/external"
	"linecast/internal/pricing"
	"linecast/internal/telemetry"
	"linecast/internal/types"
)

const (
	metricsFlushInterval   = 30 * time.Second
	rateLimitSweepInterval = time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("linecast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	// Background loops (metrics flush, limiter sweep) stop with this context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		runLambda(app, logger)
		return nil
	}

	return runHTTPServer(app.server, cfg, logger)
}

// application bundles the server with the components main needs to drive
// directly.
type application struct {
	server  *core.Server
	metrics *telemetry.CloudWatchMetrics
}

// buildApplication wires every dependency into a mounted core.Server.
func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	catalog, err := loadCatalog(cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("loading pricing catalog: %w", err)
	}
	logger.Info("pricing catalog loaded",
		"source", catalogSource(cfg.Pricing),
		"plans", len(catalog.Plans()),
	)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	repo, err := openSimulationRepository(ctx, cfg.Database, srv, logger)
	if err != nil {
		return nil, err
	}

	app := &application{server: srv}

	if cfg.Observability.EnableMetrics {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		app.metrics = telemetry.NewCloudWatchMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			logger,
		)
		srv.Metrics = app.metrics
		srv.OnShutdown(app.metrics)
		go app.metrics.Run(ctx, metricsFlushInterval)
	}

	if cfg.Security.RateLimitRPS > 0 {
		store := core.NewMemoryRateLimitStore(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)
		srv.RateLimitStore = store
		go store.Run(ctx, rateLimitSweepInterval)
	}

	// A nil *LineClient must not become a non-nil interface value.
	var line handlers.LineUsageService
	if client := external.NewLineClientFromConfig(cfg.Line, logger); client != nil {
		line = client
	} else {
		logger.Info("LINE channel access token not set; /v1/cost/usage is disabled")
	}

	costHandler := handlers.NewCostHandler(catalog, line, cfg.Pricing.DefaultPlan, srv.Validator, logger)
	if app.metrics != nil {
		costHandler.SetFailureRecorder(app.metrics)
	}
	simulationHandler := handlers.NewSimulationHandler(repo, catalog, types.RealClock{}, srv.Validator, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		costHandler.RegisterRoutes,
		simulationHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return app, nil
}

func loadCatalog(cfg config.PricingConfig) (*pricing.Catalog, error) {
	if cfg.CatalogFile == "" {
		return pricing.DefaultCatalog(), nil
	}
	return pricing.LoadCatalogFile(cfg.CatalogFile)
}

func catalogSource(cfg config.PricingConfig) string {
	if cfg.CatalogFile == "" {
		return "builtin"
	}
	return cfg.CatalogFile
}

// openSimulationRepository connects to PostgreSQL and applies the schema when
// a database is configured. Without one, simulations live in memory and are
// lost on restart.
func openSimulationRepository(
	ctx context.Context,
	cfg config.DatabaseConfig,
	srv *core.Server,
	logger *slog.Logger,
) (types.SimulationRepository, error) {
	if !cfg.Enabled() {
		logger.Warn("DATABASE_URL not set; simulations are kept in memory")
		return db.NewMemorySimulationRepository(), nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	srv.OnShutdown(closerFunc(func() error {
		pool.Close()
		return nil
	}))

	if err := db.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	srv.HealthProbes = append(srv.HealthProbes, db.NewHealthProbe(pool, cfg.AcquireTimeout))
	return db.NewSimulationRepository(pool), nil
}

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runLambda hands the router to the Lambda runtime. It does not return.
// Buffered metrics are flushed after every invocation because the execution
// environment may be frozen between events.
func runLambda(app *application, logger *slog.Logger) {
	handler := app.server.LambdaHandler()
	logger.Info("starting Lambda runtime")

	lambda.Start(func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		resp, err := handler(ctx, event)
		if app.metrics != nil {
			app.metrics.Flush(ctx)
		}
		return resp, err
	})
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to capture server errors from ListenAndServe.
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Flush metrics and close the database pool.
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
