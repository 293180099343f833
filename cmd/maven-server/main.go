package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/foundry/mavenrepo/internal/adapters/auth"
	"github.com/foundry/mavenrepo/internal/adapters/objectstore"
	"github.com/foundry/mavenrepo/internal/api/handlers"
	"github.com/foundry/mavenrepo/internal/config"
	"github.com/foundry/mavenrepo/internal/core/repository"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
	"github.com/foundry/mavenrepo/internal/util/logging"
	"github.com/foundry/mavenrepo/internal/util/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	bootLogger := logging.New(os.Stdout, "info").With().Str("service", "maven-repo").Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(os.Stdout, cfg.Log.Level).With().Str("service", "maven-repo").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize object store.
	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to initialize object store")
	}
	defer closeStore()

	var (
		recorder services.Recorder = services.NopRecorder{}
		prom     *metrics.Prom
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom = metrics.NewProm(reg)
		recorder = prom
	}

	catalogs := repository.Catalogs{}
	for _, repo := range maven.Repositories {
		catalogs[repo] = repository.NewCatalog(objectstore.Scoped(store, repo.Prefix()))
	}
	publisher := repository.NewPublisher(store, logger,
		repository.WithRecorder(recorder),
		repository.WithMetadataRetries(cfg.Publish.MetadataRetries),
		repository.WithChecksums(cfg.Publish.GenerateChecksums),
	)
	purger := repository.NewPurger(store, logger, recorder)
	authenticator := auth.NewBasicAuth(cfg.Auth.Username, cfg.Auth.Password)

	// Initialize HTTP handlers.
	handler := handlers.New(catalogs, publisher, purger, authenticator, logger, handlers.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		CacheMaxAge:    cfg.Server.CacheMaxAge,
		Metrics:        prom,
		MetricsPath:    cfg.Metrics.Path,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			_ = srv.Close()
		}
	}()

	logger.Info().
		Str("addr", addr).
		Str("backend", cfg.Storage.Backend).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("starting Maven repository server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// openStore builds the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.StorageConfig) (services.ObjectStore, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := objectstore.NewSQLiteStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendBolt:
		s, err := objectstore.NewBoltStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendDisk:
		s, err := objectstore.NewDiskStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.BackendS3:
		s, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
