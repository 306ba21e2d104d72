package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/omribarmats/pricegit/internal/api/middleware"
	"github.com/omribarmats/pricegit/internal/api/server"
	"github.com/omribarmats/pricegit/internal/api/shared/executor"
	"github.com/omribarmats/pricegit/internal/config"
	"github.com/omribarmats/pricegit/internal/emitter"
	"github.com/omribarmats/pricegit/internal/logger"
	"github.com/omribarmats/pricegit/internal/store"
	"github.com/omribarmats/pricegit/internal/store/schema"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting pricegit API")

	// Connect to database, retrying while it comes up
	db, err := connectDatabase(ctx, cfg.Database.DSN())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Run schema migrations
	if err := db.AutoMigrate(
		&schema.Product{},
		&schema.RetailStore{},
		&schema.PriceObservation{},
		&schema.ModerationEvent{},
	); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database schema", zap.Error(err))
	}

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize approved-price event publisher. NATS is optional: with no URL
	// configured the publisher is a no-op.
	var publisher emitter.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = emitter.NewJetStreamPublisher(emitter.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		publisher = emitter.NewNoopPublisher()
		logger.WarnCtx(ctx, "NATS URL not configured, approved-price events will not be published")
	}
	defer publisher.Close()

	// Create shared executor
	exec := executor.New(dataStore, publisher, cfg.Moderation.DuplicateWindow, cfg.Worker.PoolSize)

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
	authConfig := middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	}

	// Create and start server
	srv := server.New(serverConfig, exec, authConfig)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}

// connectDatabase opens the gorm connection with exponential backoff so the
// service survives a database that is still starting.
func connectDatabase(ctx context.Context, dsn string) (*gorm.DB, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)

	var db *gorm.DB
	err := backoff.RetryNotify(
		func() error {
			var openErr error
			db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{})
			return openErr
		},
		policy,
		func(err error, next time.Duration) {
			logger.WarnCtx(ctx, "Database not ready, retrying",
				zap.Error(err),
				zap.Duration("next_attempt_in", next),
			)
		},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
