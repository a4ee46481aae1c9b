package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/api"
	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/crypto"
	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/notify"
	"github.com/aleckzsalas-29/itsm2/internal/report"
	"github.com/aleckzsalas-29/itsm2/internal/service"
	"github.com/aleckzsalas-29/itsm2/internal/tasks"
	"github.com/aleckzsalas-29/itsm2/internal/telemetry"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	flags, configFile, showVersion := config.ParseFlags()

	// Handle version flag
	if showVersion {
		fmt.Printf("ITSM v%s\n", version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting ITSM",
		zap.String("version", version),
		zap.String("database", cfg.Database.Type),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("ITSM stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize storage
	if cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLite.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Secrets come from config or are generated once and persisted
	if err := service.LoadSecrets(ctx, store, cfg, logger); err != nil {
		return err
	}
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return err
	}
	vault, err := crypto.NewVault(key)
	if err != nil {
		return err
	}

	compiler, err := report.NewCompiler(cfg.Reports.OutputDir, cfg.Reports.DefaultTemplate, logger)
	if err != nil {
		return err
	}

	mailer, err := notify.New(cfg.Email, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Background notifications
	journal, err := tasks.OpenBoltJournal(cfg.Tasks.DeadLetterPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	queue := tasks.NewQueue(tasks.Options{
		Workers:     cfg.Tasks.Workers,
		QueueSize:   cfg.Tasks.QueueSize,
		MaxAttempts: cfg.Tasks.MaxAttempts,
		Backoff:     cfg.Tasks.Backoff,
	}, journal, registry, logger.Named("tasks"))
	service.RegisterNotifications(queue, mailer)
	queue.Start()

	services := service.New(service.Deps{
		Store:   store,
		Vault:   vault,
		Tasks:   queue,
		Reports: compiler,
		Config:  cfg,
		Logger:  logger,
	})
	if _, err := services.Users.EnsureAdmin(ctx); err != nil {
		return err
	}

	// Initialize router
	router, err := api.NewRouter(api.Options{
		Config:   cfg,
		Services: services,
		Store:    store,
		Tasks:    queue,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if cfg.Server.TLSEnabled {
		created, err := crypto.EnsureServerCertificate(cfg.Server.TLSCert, cfg.Server.TLSKey,
			[]string{cfg.Server.Host, "localhost", "127.0.0.1"}, 365*24*time.Hour)
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		if created {
			logger.Warn("Generated self-signed TLS certificate",
				zap.String("cert", cfg.Server.TLSCert),
				zap.String("key", cfg.Server.TLSKey),
			)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", srv.Addr),
			zap.Bool("tls", cfg.Server.TLSEnabled),
		)

		var err error
		if cfg.Server.TLSEnabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("Background tasks did not drain", zap.Error(err))
	}
	return nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if cfg.Logging.Output != "" {
		zapConfig.OutputPaths = []string{cfg.Logging.Output}
	}

	return zapConfig.Build()
}
