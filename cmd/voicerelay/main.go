package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/voicerelay/voicerelay/config"
	"github.com/voicerelay/voicerelay/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	cfgPtr := &cfg

	logStartupInfo(ctx, logger, cfgPtr)

	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	queueClients, err := bootstrap.ConnectQueueRedis(cfg.Queue, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := queueClients.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	db, err := connectHistoryIfEnabled(ctx, cfgPtr, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config: cfgPtr,
		Queue:  queueClients,
		DB:     db,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfgPtr,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting voicerelay",
		"broker_addr", cfg.Queue.Broker.Addr,
		"history_enabled", cfg.History.Enabled(),
		"enabled_services", bootstrap.GetEnabledServices(cfg),
	)
}

func connectHistoryIfEnabled(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*sql.DB, error) {
	if !cfg.History.Enabled() {
		logger.InfoContext(ctx, "history database disabled; processed messages will not be recorded")
		return nil, nil
	}

	db, err := bootstrap.ConnectHistoryDB(cfg.History, logger)
	if err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}

	if cfg.History.RunMigrationsOnStart {
		if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return nil, errors.Join(err, db.Close())
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	return db, nil
}
