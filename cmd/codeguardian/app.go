package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/codeguardian/analysis"
	"github.com/c360studio/codeguardian/config"
	"github.com/c360studio/codeguardian/engine"
	"github.com/c360studio/codeguardian/ingest"
	"github.com/c360studio/codeguardian/metric"
	"github.com/c360studio/codeguardian/rules"
	"github.com/c360studio/codeguardian/source"
)

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	runID  string

	// Metrics
	registry *prometheus.Registry

	service *analysis.Service
}

// NewApp builds the rule set, engine and analysis service for cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	set, err := rules.DefaultBuilder(rules.Options{
		MaxLineLength:    cfg.Rules.MaxLineLength,
		MaxFunctionLines: cfg.Rules.MaxFunctionLines,
	}).
		Disable(cfg.Analysis.DisabledRules...).
		Only(cfg.Analysis.EnabledOnly...).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build rule set: %w", err)
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	registry := prometheus.NewRegistry()
	metrics, err := metric.NewObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	eng := engine.New(set, engine.Config{
		Observer: engine.Observers{engine.NewLogObserver(logger), metrics},
		Parallel: cfg.Analysis.Parallel,
	})

	app := &App{
		cfg:      cfg,
		logger:   logger,
		runID:    runID,
		registry: registry,
		service: analysis.New(eng, analysis.Config{
			DefaultLanguage: source.ParseLanguage(cfg.Analysis.DefaultLanguage),
			Logger:          logger,
		}),
	}

	logger.Debug("CodeGuardian ready",
		"version", Version,
		"rules", set.Len(),
		"parallel", cfg.Analysis.Parallel)

	return app, nil
}

// Rules returns the active rule set.
func (a *App) Rules() *rules.RuleSet {
	return a.service.Engine().RuleSet()
}

// directoryConfig returns the scan settings for root.
func (a *App) directoryConfig(root string) ingest.DirectoryConfig {
	return ingest.DirectoryConfig{
		Root:         root,
		Include:      a.cfg.Ingest.Include,
		Exclude:      a.cfg.Ingest.Exclude,
		MaxFileBytes: a.cfg.Ingest.MaxFileBytes,
		Fallback:     source.ParseLanguage(a.cfg.Analysis.DefaultLanguage),
		Logger:       a.logger,
	}
}

// ServeMetrics serves the Prometheus registry on /metrics until ctx is
// done. It returns once the listener is bound.
func (a *App) ServeMetrics(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("Serving metrics", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

// newLogger creates the text logger all components share.
func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
