package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/voicerelay/voicerelay/config"
	httpx "github.com/voicerelay/voicerelay/internal/http"
)

// HTTPServerConfig contains configuration for the webhook ingress server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the webhook ingress server. The caller owns starting
// and stopping it.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
		appCfg.Sanitize()
	}

	routerServices := httpx.RouterServices{
		Submitter:   cfg.Services.Queue,
		WaitTimeout: appCfg.Queue.WaitTimeout,
		Logger:      logger,
	}
	// Assign through the guard so a nil repo never becomes a non-nil interface.
	if repo := cfg.Services.History; repo != nil {
		routerServices.History = repo
	}

	router := httpx.NewRouter(routerServices)

	// Order: Recover -> Logging -> Router
	handler := httpx.Logging(logger)(router)
	handler = httpx.Recover(logger)(handler)

	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  appCfg.HTTP.ReadTimeout,
		WriteTimeout: appCfg.HTTP.WriteTimeout,
		IdleTimeout:  appCfg.HTTP.IdleTimeout,
	}
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
