package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/cable-health-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/cable-health-service/internal/adapter/kafka"
	"github.com/couchcryptid/cable-health-service/internal/adapter/nga"
	"github.com/couchcryptid/cable-health-service/internal/config"
	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/healthcache"
	"github.com/couchcryptid/cable-health-service/internal/observability"
	"github.com/couchcryptid/cable-health-service/internal/pipeline"
	"github.com/couchcryptid/cable-health-service/internal/warninglog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		feed    domain.WarningFeed
		reader  *kafkaadapter.Reader
		warnLog *warninglog.Log
		etl     *pipeline.Pipeline
	)
	switch cfg.WarningSource {
	case config.SourceKafka:
		reader = kafkaadapter.NewReader(cfg, logger)
		warnLog = warninglog.New(cfg.WarningLogSize)
		etl = pipeline.New(reader, pipeline.NewTransformer(), warnLog, logger, metrics, cfg.BatchSize)
		feed = warnLog
		logger.Info("warning source: kafka", "topic", cfg.KafkaSourceTopic, "group", cfg.KafkaGroupID)
	default:
		feed = nga.NewClient(cfg.NGAFeedURL, cfg.NGATimeout, metrics, logger)
		logger.Info("warning source: nga", "url", cfg.NGAFeedURL, "timeout", cfg.NGATimeout)
	}

	registry := domain.DefaultRegistry()
	logger.Info("cable registry loaded", "cables", len(registry.Cables()))

	cache := healthcache.New(feed, domain.NewSynthesizer(registry, nil), healthcache.Options{
		TTL:         cfg.CacheTTL,
		NegativeTTL: cfg.CacheNegativeTTL,
	}, metrics, logger)
	if warnLog != nil {
		warnLog.OnUpdate(func() {
			cache.Invalidate()
			metrics.RecordWarningLog(warnLog.Len())
		})
	}

	var ready sharedobs.ReadinessChecker = cache
	if etl != nil {
		ready = etl
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, cache, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start warning pipeline.
	if etl != nil {
		go func() {
			if err := etl.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else if err := cache.Init(ctx); err != nil {
		// Not fatal: readiness stays false and the next request retries.
		logger.Warn("initial warning fetch failed", "error", err)
	}

	// Start snapshot publisher.
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher := pipeline.NewPublisher(cache, writer, cfg.PublishInterval, nil, logger, metrics)
		go func() {
			if err := publisher.Run(ctx); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
