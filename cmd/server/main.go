package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/api"
	"github.com/pharmaguard/pgx-risk-engine/internal/cache"
	"github.com/pharmaguard/pgx-risk-engine/internal/config"
	"github.com/pharmaguard/pgx-risk-engine/internal/database"
	"github.com/pharmaguard/pgx-risk-engine/internal/knowledge"
	"github.com/pharmaguard/pgx-risk-engine/internal/repository"
	"github.com/pharmaguard/pgx-risk-engine/internal/service"
	"github.com/pharmaguard/pgx-risk-engine/pkg/external"
)

const version = "1.0.0"

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	kb, err := knowledge.Load(cfg.Knowledge.AliasTablePath, cfg.Knowledge.DatabasePath, logger)
	if err != nil {
		logger.Fatalf("Failed to load knowledge base: %v", err)
	}

	resolver, err := service.NewResolver(kb, cfg.Resolver.CacheSize, logger)
	if err != nil {
		logger.Fatalf("Failed to create resolver: %v", err)
	}
	assessor := service.NewAssessor(kb, resolver, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := api.Options{
		Version:   version,
		DebugMode: strings.EqualFold(cfg.Logging.Level, "debug"),
	}

	if cfg.Database.Host != "" {
		db := mustConnectDatabase(ctx, configManager, logger)
		defer db.Close()
		opts.Store = repository.NewAssessmentRepository(db.Pool, logger)
	} else {
		logger.Info("No database configured; assessments will not be persisted")
	}

	if cfg.Cache.RedisURL != "" {
		resultCache, err := cache.NewAssessmentCache(cfg.Cache)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer resultCache.Close()
		opts.Cache = resultCache
	}

	if cfg.OCR.BaseURL != "" {
		opts.OCR = external.NewOCRServiceClient(cfg.OCR, logger)
	}

	server := api.NewServer(cfg.Server, assessor, opts, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

// mustConnectDatabase opens the pool and applies pending migrations.
func mustConnectDatabase(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) *database.DB {
	cfg := configManager.GetConfig()

	dbConfig := database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    int32(cfg.Database.MaxConns),
		MinConns:    2,
		MaxConnLife: cfg.Database.ConnMaxLifetime,
		MaxConnIdle: 5 * time.Minute,
	}

	runner, err := database.NewMigrationRunner(dbConfig.URL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.Fatalf("Failed to create migration runner: %v", err)
	}
	if err := runner.Up(); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	if err := runner.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close migration runner")
	}

	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
