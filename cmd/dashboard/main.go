package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/DataRozhlas/covid-obce/internal/adapter/feed"
	httpadapter "github.com/DataRozhlas/covid-obce/internal/adapter/http"
	kafkaadapter "github.com/DataRozhlas/covid-obce/internal/adapter/kafka"
	"github.com/DataRozhlas/covid-obce/internal/adapter/memstore"
	"github.com/DataRozhlas/covid-obce/internal/config"
	"github.com/DataRozhlas/covid-obce/internal/observability"
	"github.com/DataRozhlas/covid-obce/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := feed.NewClient(cfg.FeedURL, cfg.FeedTimeout, cfg.FeedMaxRetries, metrics, logger)
	fetcher := feed.NewCachedFetcher(client, metrics)

	store := memstore.New()
	sinks := []pipeline.Sink{{Name: "memory", Publisher: store}}

	// Kafka sink is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Publisher: writer})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	builder := pipeline.NewBuilder(cfg.Layout, cfg.Duplicates, cfg.Thresholds(), clock, logger)
	p := pipeline.New(fetcher, builder, sinks, cfg.RefreshInterval, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.CORSAllowOrigins, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
