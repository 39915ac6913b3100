package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/graphcapture/internal/api"
	"github.com/RMahshie/graphcapture/internal/config"
	"github.com/RMahshie/graphcapture/internal/curves"
	"github.com/RMahshie/graphcapture/internal/keepalive"
	"github.com/RMahshie/graphcapture/internal/metrics"
	"github.com/RMahshie/graphcapture/internal/repository/postgres"
	"github.com/RMahshie/graphcapture/internal/storage"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.SetGlobalLevel(cfg.Server.LogLevel)
	if cfg.Server.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().
		Str("env", cfg.Server.Env).
		Strs("allowed_origins", cfg.Server.AllowedOrigins).
		Bool("images_enabled", cfg.ImagesEnabled()).
		Msg("Configuration loaded")

	// Database
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := postgres.Open(startupCtx, cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.EnsureSchema(startupCtx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database schema")
	}
	cancelStartup()

	curveRepo := postgres.NewPostgresCurveRepository(db, cfg.Database.QueryTimeout)
	pointRepo := postgres.NewPostgresDataPointRepository(db, cfg.Database.QueryTimeout)

	// Image storage is optional
	var images storage.S3Service
	if cfg.ImagesEnabled() {
		images, err = storage.NewS3Service(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize image storage")
		}
	}

	collector := metrics.NewCollector("graphcapture")
	curveService := curves.NewCurveService(curveRepo, pointRepo, images, collector)

	router, _ := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Service:        curveService,
		Metrics:        collector,
		ImagesEnabled:  images != nil,
	})

	// Keep idle connections from being dropped by the database host
	keepAliveCtx, stopKeepAlive := context.WithCancel(context.Background())
	defer stopKeepAlive()
	prober := keepalive.NewProber(db, cfg.Database.KeepAliveInterval, cfg.Database.QueryTimeout, collector)
	go prober.Run(keepAliveCtx)

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting Graph Capture API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	stopKeepAlive()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
