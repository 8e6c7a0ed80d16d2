// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway assembles and runs the tool server.
//
// # Description
//
// New builds one set of upstream clients per server instance, registers the
// enabled tool families on a Dispatcher and mounts the MCP and REST routes on
// a gin engine:
//
//	cmd/avalogica serve
//	        │
//	        ▼
//	gateway.New(cfg)
//	   ├─► initTracer (unless TraceExporter is "none")
//	   ├─► observability.New(registry)
//	   ├─► BuildDispatcher ─► brave / weather / llm+news clients ─► tools
//	   └─► routes.SetupRoutes (/mcp, /v1, /health, /metrics)
//
// # Example
//
//	svc, err := gateway.New(gateway.Config{
//	    Port:        8080,
//	    BraveAPIKey: secrets.New(os.Getenv("BRAVE_API_KEY")),
//	})
//	if err != nil {
//	    return err
//	}
//	return svc.Run(ctx)
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
	"github.com/mdwillman/avalogica-weather-mcp/services/brave"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/handlers"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/middleware"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/observability"
	"github.com/mdwillman/avalogica-weather-mcp/services/gateway/routes"
	"github.com/mdwillman/avalogica-weather-mcp/services/llm"
	"github.com/mdwillman/avalogica-weather-mcp/services/news"
	"github.com/mdwillman/avalogica-weather-mcp/services/ratelimit"
	"github.com/mdwillman/avalogica-weather-mcp/services/tools"
	"github.com/mdwillman/avalogica-weather-mcp/services/weather"
)

const (
	// DefaultPort is the listen port when none is configured.
	DefaultPort = 8080

	// DefaultServiceName names the server in initialize, /health and traces.
	DefaultServiceName = "avalogica-mcp"

	// EnvProduction switches gin to release mode and logs to JSON.
	EnvProduction = "production"

	// EnvDevelopment is the default environment.
	EnvDevelopment = "development"

	// Trace exporters. The default is otlp when an endpoint is configured,
	// none otherwise.
	TraceExporterOTLP   = "otlp"
	TraceExporterStdout = "stdout"
	TraceExporterNone   = "none"

	shutdownTimeout = 10 * time.Second

	serverInstructions = "Use brave_web_search for general web lookups and brave_local_search for " +
		"businesses and places. Use get_forecast with decimal coordinates for daily temperatures. " +
		"Use get_tech_update with a topic slug for a cited AI news briefing."
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds everything New needs. Zero values take defaults.
//
// # Fields
//
//   - Port: Listen port. Default: 8080.
//   - Families: Tool families to register. Default: all.
//   - Environment: "development" or "production".
//   - ServiceName, Version: Reported on initialize and /health.
//   - BraveAPIKey: Required when the search family is enabled.
//   - BraveBaseURL, BraveLimits: Search client overrides.
//   - WeatherAPIKey, WeatherBaseURL: Forecast client overrides.
//   - ForecastDays: Default days for get_forecast. Default: 7.
//   - CompletionAPIKey: Optional; tech updates fail in-band without it.
//   - CompletionBackend, CompletionBaseURL, CompletionModel: Completion client.
//   - TopicsPath: Optional topics.yaml override.
//   - AuthToken: Optional bearer token for /mcp and /v1.
//   - OTelEndpoint: OTLP gRPC collector address.
//   - TraceExporter: "otlp", "stdout" or "none".
//   - DisableMetrics: Removes /metrics and the Prometheus collectors.
type Config struct {
	Port        int
	Families    []string
	Environment string
	ServiceName string
	Version     string

	BraveAPIKey  *secrets.Secret
	BraveBaseURL string
	BraveLimits  ratelimit.Limits

	WeatherAPIKey  *secrets.Secret
	WeatherBaseURL string
	ForecastDays   int

	CompletionAPIKey  *secrets.Secret
	CompletionBackend string
	CompletionBaseURL string
	CompletionModel   string
	TopicsPath        string

	AuthToken      *secrets.Secret
	OTelEndpoint   string
	TraceExporter  string
	DisableMetrics bool
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if len(cfg.Families) == 0 {
		cfg.Families = append([]string(nil), tools.AllFamilies...)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.BraveLimits.PerSecond <= 0 {
		cfg.BraveLimits.PerSecond = ratelimit.DefaultPerSecond
	}
	if cfg.BraveLimits.PerMonth <= 0 {
		cfg.BraveLimits.PerMonth = ratelimit.DefaultPerMonth
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = weather.DefaultDays
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = llm.DefaultModel
	}
	cfg.OTelEndpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.OTelEndpoint, "http://"), "https://")
	cfg.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.TraceExporter))
	if cfg.TraceExporter == "" {
		cfg.TraceExporter = TraceExporterNone
		if cfg.OTelEndpoint != "" {
			cfg.TraceExporter = TraceExporterOTLP
		}
	}
	return cfg
}

// =============================================================================
// Service
// =============================================================================

// Service is a runnable tool server.
type Service interface {
	// Run serves until ctx is cancelled, then shuts down gracefully.
	Run(ctx context.Context) error

	// Router returns the gin engine, mainly for tests.
	Router() *gin.Engine

	// Dispatcher returns the registered tools.
	Dispatcher() *tools.Dispatcher
}

type service struct {
	config        Config
	router        *gin.Engine
	dispatcher    *tools.Dispatcher
	registry      *prometheus.Registry
	tracerCleanup func(context.Context)
}

// New builds the server.
//
// # Outputs
//
//   - Service: Ready to Run.
//   - error: An unknown family, a missing BRAVE_API_KEY with the search family
//     enabled, an unreadable topics file, or a tracer setup failure.
func New(ctx context.Context, cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	families, err := tools.ParseFamilies(s.config.Families)
	if err != nil {
		return nil, err
	}
	s.config.Families = families

	if s.config.TraceExporter != TraceExporterNone {
		cleanup, err := s.initTracer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	var metrics *observability.Metrics
	if !s.config.DisableMetrics {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.New(s.registry)
	}

	dispatcher, err := BuildDispatcher(ctx, s.config, metrics)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	s.dispatcher = dispatcher

	s.initRouter()
	return s, nil
}

// Run listens on the configured port until ctx is cancelled.
func (s *service) Run(ctx context.Context) error {
	defer s.cleanup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting tool server",
			"port", s.config.Port,
			"families", s.config.Families,
			"tools", len(s.dispatcher.ListTools()),
			"env", s.config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down tool server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Dispatcher() *tools.Dispatcher {
	return s.dispatcher
}

// =============================================================================
// Assembly
// =============================================================================

// BuildDispatcher creates the upstream clients of the enabled families and
// registers their tools.
//
// # Description
//
// The search family needs BRAVE_API_KEY. The forecast family always builds:
// get_forecast works keyless, and get_tech_update reports missing
// credentials in-band when no completion key is configured.
//
// # Inputs
//
//   - ctx: Bounds the topics file read.
//   - cfg: Server configuration; defaults are applied again here so the CLI
//     can call this directly.
//   - metrics: Optional collectors shared by every client.
func BuildDispatcher(ctx context.Context, cfg Config, metrics *observability.Metrics) (*tools.Dispatcher, error) {
	cfg = applyConfigDefaults(cfg)

	families, err := tools.ParseFamilies(cfg.Families)
	if err != nil {
		return nil, err
	}
	deps := tools.Deps{ForecastDays: cfg.ForecastDays}

	if slices.Contains(families, tools.FamilySearch) {
		search, err := brave.NewClient(brave.Config{
			APIKey:  cfg.BraveAPIKey,
			BaseURL: cfg.BraveBaseURL,
			Limits:  cfg.BraveLimits,
			Metrics: metrics,
		})
		if err != nil {
			return nil, err
		}
		deps.Search = search
	}

	if slices.Contains(families, tools.FamilyForecast) {
		deps.Forecast = weather.NewClient(weather.Config{
			APIKey:  cfg.WeatherAPIKey,
			BaseURL: cfg.WeatherBaseURL,
			Metrics: metrics,
		})

		registry, err := news.LoadRegistry(ctx, cfg.TopicsPath)
		if err != nil {
			return nil, err
		}

		var completion llm.CompletionClient
		if cfg.CompletionAPIKey.IsZero() {
			slog.Warn("COMPLETION_API_KEY not set, get_tech_update will report an error")
		} else {
			completion, err = llm.New(llm.Config{
				Backend: cfg.CompletionBackend,
				APIKey:  cfg.CompletionAPIKey,
				BaseURL: cfg.CompletionBaseURL,
				Model:   cfg.CompletionModel,
				Metrics: metrics,
			})
			if err != nil {
				return nil, err
			}
		}
		deps.Updater = news.NewUpdater(registry, completion, cfg.CompletionModel)
		deps.TopicSlugs = registry.Slugs()
	}

	toolset, err := tools.BuildTools(deps, families)
	if err != nil {
		return nil, err
	}
	return tools.NewDispatcher(metrics, toolset...)
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// The otlp exporter ships spans over an insecure gRPC connection to the
// configured collector. The stdout exporter pretty-prints them to stderr for
// local debugging.
//
// # Outputs
//
//   - func(context.Context): Flushes and stops the exporter.
//   - error: Non-nil if tracer setup fails.
func (s *service) initTracer(ctx context.Context) (func(context.Context), error) {
	var (
		traceExporter sdktrace.SpanExporter
		conn          *grpc.ClientConn
		err           error
	)
	switch s.config.TraceExporter {
	case TraceExporterOTLP:
		if s.config.OTelEndpoint == "" {
			return nil, fmt.Errorf("otlp trace exporter requires OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		conn, err = grpc.NewClient(s.config.OTelEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}
		traceExporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	case TraceExporterStdout:
		traceExporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown trace exporter %q (want %s, %s or %s)",
			s.config.TraceExporter, TraceExporterOTLP, TraceExporterStdout, TraceExporterNone)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(s.config.ServiceName),
			semconv.ServiceVersionKey.String(s.config.Version),
			semconv.DeploymentEnvironmentKey.String(s.config.Environment),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceProvider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
		if conn != nil {
			if err := conn.Close(); err != nil {
				slog.Warn("failed to close collector connection", "error", err)
			}
		}
	}

	slog.Info("Tracing enabled", "exporter", s.config.TraceExporter, "endpoint", s.config.OTelEndpoint)
	return cleanup, nil
}

func (s *service) initRouter() {
	if s.config.Environment == EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), middleware.RequestLogger())
	s.router.Use(otelgin.Middleware(s.config.ServiceName))

	var metricsHandler http.Handler
	if s.registry != nil {
		metricsHandler = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
	}

	routes.SetupRoutes(s.router, routes.Options{
		Tools:        s.dispatcher,
		Info:         handlers.ServerInfo{Name: s.config.ServiceName, Version: s.config.Version},
		Instructions: serverInstructions,
		Families:     s.config.Families,
		AuthToken:    s.config.AuthToken,
		Metrics:      metricsHandler,
	})
}

// cleanup releases the tracer. Safe to call more than once.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
		s.tracerCleanup = nil
	}
}
