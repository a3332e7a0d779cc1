// Package httpx provides the webhook ingress surface for voice-message
// recording callbacks.
package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/voicerelay/voicerelay/internal/core"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Submitter core.TaskSubmitter

	// WaitTimeout bounds the blocking-wait webhook variant.
	WaitTimeout time.Duration

	// History enables the processed-message read routes when set.
	History HistoryReader

	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	webhook := &WebhookHandlers{
		Submitter:   services.Submitter,
		Logger:      logger,
		WaitTimeout: services.WaitTimeout,
	}

	mux := http.NewServeMux()
	mux.Handle("POST /webhook", http.HandlerFunc(webhook.HandleCallback))
	mux.Handle("POST /webhook/sync", http.HandlerFunc(webhook.HandleCallbackSync))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.History != nil {
		history := &HistoryHandlers{History: services.History, Logger: logger}
		mux.Handle("GET /messages", http.HandlerFunc(history.HandleListMessages))
		mux.Handle("GET /messages/{recordingSID}", http.HandlerFunc(history.HandleGetMessage))
	}

	return mux
}
