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

	"github.com/couchcryptid/state-visit-map/internal/adapter/boundary"
	"github.com/couchcryptid/state-visit-map/internal/adapter/csvfile"
	"github.com/couchcryptid/state-visit-map/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/state-visit-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/state-visit-map/internal/adapter/kafka"
	"github.com/couchcryptid/state-visit-map/internal/config"
	"github.com/couchcryptid/state-visit-map/internal/observability"
	"github.com/couchcryptid/state-visit-map/internal/pipeline"
	"github.com/couchcryptid/state-visit-map/internal/render/chart"
	"github.com/couchcryptid/state-visit-map/internal/render/mapview"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	boundaries, err := boundary.NewSource(boundary.Options{
		CodeField:  cfg.BoundaryCodeField,
		NameField:  cfg.BoundaryNameField,
		CodePrefix: cfg.BoundaryCodePrefix,
	}, cfg.BoundaryCacheSize, metrics)
	if err != nil {
		logger.Error("failed to create boundary source", "error", err)
		os.Exit(1)
	}

	store := filestore.New(filestore.Dirs{
		Images:  cfg.ImageDir,
		Pages:   cfg.HTMLDir,
		Reports: cfg.ReportDir,
	})

	opts := pipeline.Options{
		BoundaryPath: cfg.BoundaryPath,
		Map:          mapOptions(cfg),
		Charts: chart.Options{
			ImageBaseURL: cfg.ImageBaseURL,
			Workbook:     cfg.ExportWorkbook,
		},
	}

	// Artifact notifications are feature-flagged via KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	if cfg.NotificationsEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaArtifactTopic, logger)
		opts.Notifier = writer
		logger.Info("artifact notifications enabled", "topic", cfg.KafkaArtifactTopic)
	} else {
		logger.Info("artifact notifications disabled")
	}

	p := pipeline.New(csvfile.Reader{}, boundaries, store, opts, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		DataDir:        cfg.DataDir,
		ImageDir:       cfg.ImageDir,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, p, store, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the boundary cache so /readyz reports ready as soon as possible.
	if err := p.CheckReadiness(ctx); err != nil {
		logger.Warn("boundary file not loaded at startup", "path", cfg.BoundaryPath, "error", err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
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

func mapOptions(cfg *config.Config) mapview.Options {
	opts := mapview.DefaultOptions()
	opts.CenterLat = cfg.MapCenterLat
	opts.CenterLon = cfg.MapCenterLon
	opts.Zoom = cfg.MapZoom
	opts.TileURL = cfg.MapTileURL
	opts.TileAttribution = cfg.MapTileAttribution
	return opts
}
