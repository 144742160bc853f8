// Command magengine runs the seismic magnitude computation engine: a
// Kafka-fed pipeline that turns picks, amplitudes, and origins into
// station/network/summary magnitudes and republishes updated origins.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/seismag-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seismag-engine/internal/adapter/kafka"
	"github.com/couchcryptid/seismag-engine/internal/archive"
	"github.com/couchcryptid/seismag-engine/internal/config"
	"github.com/couchcryptid/seismag-engine/internal/engine"
	"github.com/couchcryptid/seismag-engine/internal/magnitude"
	"github.com/couchcryptid/seismag-engine/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("magengine exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file (optional; env vars always apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.LoggerConfig{
		LogLevel:  cfg.Logging.Level,
		LogFormat: cfg.Logging.Format,
	})
	metrics := observability.NewMetrics()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	registry, unknown := magnitude.NewRegistry(magnitude.DefaultProcessors(), engineCfg.MagnitudeTypes)
	for _, t := range unknown {
		logger.Warn("configured magnitude type has no known processor", "type", t)
	}
	resolver := magnitude.NewStationParameterResolver(cfg, engineCfg.ModuleName, engineCfg.StationParamCacheSize)

	var pg *archive.Postgres
	var arch engine.Archive
	if cfg.Postgres.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err = archive.Open(ctx, cfg.Postgres.DSN)
		cancel()
		if err != nil {
			return err
		}
		arch = pg
		logger.Info("postgres archive connected")
	} else {
		logger.Info("no postgres DSN configured; running without an archive")
	}

	sink := kafkaadapter.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.SinkTopic, logger)

	eng := engine.New(engineCfg, registry, resolver, arch, sink, logger, metrics)

	consumer := kafkaadapter.NewConsumer(kafkaadapter.ReaderConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		PicksTopic:      cfg.Kafka.PicksTopic,
		AmplitudesTopic: cfg.Kafka.AmplitudesTopic,
		OriginsTopic:    cfg.Kafka.OriginsTopic,
	}, eng, logger)

	srv := httpadapter.NewServer(cfg.HTTP.Addr, eng, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("kafka consumer error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := consumer.Close(); err != nil {
		logger.Error("kafka consumer close error", "error", err)
	}
	if err := sink.Close(); err != nil {
		logger.Error("kafka sink close error", "error", err)
	}
	if pg != nil {
		pg.Close()
	}

	logger.Info("shutdown complete")
	return nil
}
