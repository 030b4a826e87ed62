package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cinderbloom/heatrisk/internal/adapter/datagov"
	"github.com/cinderbloom/heatrisk/internal/adapter/gemini"
	"github.com/cinderbloom/heatrisk/internal/adapter/httpapi"
	kafkaadapter "github.com/cinderbloom/heatrisk/internal/adapter/kafka"
	"github.com/cinderbloom/heatrisk/internal/adapter/onemap"
	"github.com/cinderbloom/heatrisk/internal/config"
	"github.com/cinderbloom/heatrisk/internal/domain"
	"github.com/cinderbloom/heatrisk/internal/observability"
	"github.com/cinderbloom/heatrisk/internal/pipeline"
	"github.com/cinderbloom/heatrisk/internal/scheduler"
)

func main() {
	// .env is optional; real deployments use process env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if cfg.OneMapToken == "" {
		logger.Warn("ONEMAP_TOKEN not set; theme queries may be rejected upstream")
	}

	// The OneMap client serves as both the region and the theme source.
	onemapClient := onemap.NewClient(cfg.OneMapBaseURL, cfg.OneMapToken, cfg.OneMapYear, cfg.FetchTimeout, logger)
	weather := datagov.NewClient(cfg.DataGovBaseURL, cfg.FetchTimeout, logger)

	buckets := domain.ThemeBuckets{
		Green:       cfg.ThemesGreen,
		Commercial:  cfg.ThemesCommercial,
		Residential: cfg.ThemesResidential,
	}
	thresholds := domain.Thresholds{
		TempHigh:      cfg.RuleTempHigh,
		TempCritical:  cfg.RuleTempCritical,
		GreenLow:      cfg.RuleGreenLow,
		GreenCritical: cfg.RuleGreenCritical,
	}

	// Alert publishing is opt-in (feature-flagged via KAFKA_ALERTS_ENABLED).
	var alerts pipeline.AlertSink
	var alertWriter *kafkaadapter.Writer
	if cfg.KafkaAlertsEnabled {
		alertWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaAlertsTopic, logger)
		alerts = alertWriter
		logger.Info("kafka alerts enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertsTopic)
	} else {
		logger.Info("kafka alerts disabled")
	}

	// Advisory generation is feature-flagged via GEMINI_ENABLED / GEMINI_API_KEY.
	var advisor httpapi.Advisor
	if cfg.GeminiEnabled {
		client := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.FetchTimeout, metrics, logger)
		advisor = gemini.NewCachedAdvisor(client, cfg.GeminiCacheSize)
		logger.Info("gemini advisories enabled", "model", cfg.GeminiModel, "cache_size", cfg.GeminiCacheSize)
	} else {
		logger.Info("gemini advisories disabled")
	}

	p := pipeline.New(pipeline.Options{
		Regions:    onemapClient,
		Weather:    weather,
		Themes:     onemapClient,
		Alerts:     alerts,
		Buckets:    buckets,
		Thresholds: thresholds,
		Logger:     logger,
		Metrics:    metrics,
	})

	srv := httpapi.NewServer(cfg.HTTPAddr, p, advisor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run the first refresh inline so the service is ready as soon as the
	// upstream APIs answer. A failed first cycle is not fatal; the scheduler
	// retries on the normal interval.
	refreshCtx, cancel := context.WithTimeout(ctx, cfg.RefreshInterval)
	if _, err := p.Refresh(refreshCtx); err != nil {
		logger.Error("initial refresh failed", "error", err)
	}
	cancel()

	sched := scheduler.New(logger)
	if err := sched.Start(cfg.RefreshInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), cfg.RefreshInterval)
		defer cancel()
		if _, err := p.Refresh(jobCtx); err != nil {
			logger.Error("scheduled refresh failed", "error", err)
		}
	}); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if alertWriter != nil {
		if err := alertWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
