// Command posd serves the point-of-sale backend over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"pos-backend/config"
	"pos-backend/internal/api"
	"pos-backend/internal/auth"
	"pos-backend/internal/db"
	"pos-backend/internal/license"
	"pos-backend/internal/notification"
	"pos-backend/internal/pos"
	"pos-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	setupLogger(cfg.Log)
	log.Info().Str("path", configPath).Msg("configuration loaded")

	if cfg.Database.Mode == config.ModeLocal {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			log.Fatal().Err(err).Msg("failed to create database directory")
		}
	}
	gormDB, mode, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	base, err := store.New(mode, gormDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create store")
	}
	appStore := store.Instrument(base, registry)

	authSvc := auth.NewService(appStore, cfg.Auth.SessionTTL)
	if mode == store.ModeLocal || cfg.Database.SeedAdmin {
		if _, err := authSvc.EnsureAdmin(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to seed administrator")
		}
	}

	authority := license.NewAuthority(appStore, cfg.License.Secret,
		license.WithChecksumVerification(*cfg.License.VerifyChecksum),
		license.WithFingerprinter(license.DefaultFingerprinter().WithProbeTimeout(cfg.License.ProbeTimeout())))
	monitor := license.NewMonitor(authority, cfg.License.CheckInterval)
	if mode == store.ModeLocal {
		go monitor.Run(ctx)
	}

	posOpts := []pos.Option{}
	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		posOpts = append(posOpts, pos.WithLowStockNotifier(pool))
	} else {
		log.Warn().Msg("vapid keys are not configured, low-stock push alerts are disabled")
	}

	handler := api.NewHandler(api.Deps{
		Store:   appStore,
		Auth:    authSvc,
		License: authority,
		Monitor: monitor,
		POS:     pos.NewService(appStore, posOpts...),
		WebPush: webpushOptions,
	})

	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handler, api.RouterOptions{
		RateLimit:   rate.Limit(cfg.Server.RateLimitPerSec),
		Burst:       cfg.Server.RateLimitBurst,
		CacheTTL:    time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		LicenseGate: mode == store.ModeLocal && !cfg.License.DisableGate,
		Gatherer:    registry,
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("mode", string(mode)).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server gracefully stopped")
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
