package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"thirdcoast.systems/vodload/internal/application"
	"thirdcoast.systems/vodload/internal/config"
	"thirdcoast.systems/vodload/internal/ingest"
	"thirdcoast.systems/vodload/internal/manifest"
)

type ingestOptions struct {
	envFiles    []string
	migrate     bool
	failOnError bool
}

func runIngest(ctx context.Context, stdout, stderr io.Writer, opts ingestOptions) error {
	if err := config.LoadDotEnv(opts.envFiles...); err != nil {
		return err
	}
	conf, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := application.NewLogger(conf.LogLevel, conf.LogFormat, stderr)
	slog.SetDefault(logger)

	lock, err := application.AcquireRunLock(conf.ScratchDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := application.OpenStore(ctx, *conf)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer store.Close()

	if opts.migrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Database migrations applied")
	}

	objects, err := application.NewObjectStore(*conf)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	rows, err := manifest.Read(conf.ManifestPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := ingest.NewMetrics(reg)

	if conf.MetricsAddr != "" {
		srvCtx, stopServer := context.WithCancel(ctx)
		defer stopServer()
		go application.NewMetricsServer(conf.MetricsAddr, reg).Run(srvCtx)
	}

	log := logger.With("run_id", uuid.NewString())

	processor, err := ingest.NewProcessor(ingest.ProcessorConfig{
		Store:      store,
		Objects:    objects,
		Transcoder: ingest.NewFFmpegTranscoder(log),
		Options: ingest.Options{
			VideoDir:         conf.VideoDir,
			ImageDir:         conf.ImageDir,
			ScratchDir:       conf.ScratchDir,
			TranscodeTimeout: conf.TranscodeTimeout,
			NetworkTimeout:   conf.NetworkTimeout,
		},
		Logger:  log,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	log.Info("Manifest loaded", "path", conf.ManifestPath, "rows", len(rows))
	stats := ingest.RunBatch(ctx, processor, rows, log)

	if err := ingest.WriteSummary(stdout, stats); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if opts.failOnError && stats.Failed > 0 {
		return &exitError{code: 2, err: fmt.Errorf("%d of %d items failed", stats.Failed, stats.Total)}
	}
	return nil
}
