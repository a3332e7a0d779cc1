package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/voicerelay/voicerelay/config"
)

// ServiceOrchestrationConfig groups everything needed to run enabled services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and blocks until a
// shutdown signal arrives or a service fails. It stops everything gracefully
// on the way out.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Config.IsHTTPServerEnabled() {
		server := NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})

		g.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return ShutdownHTTPServer(context.Background(), server, logger)
		})
	}

	if cfg.Config.IsWorkerEnabled() {
		g.Go(func() error {
			return cfg.Services.Worker.Run(gctx)
		})
	}

	err := g.Wait()

	if sink := cfg.Services.Observability.MetricsSink; sink != nil {
		if closeErr := sink.Close(); closeErr != nil {
			logger.Error("close metrics sink failed", "error", closeErr)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("all services stopped")
	return nil
}
