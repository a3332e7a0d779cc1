package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/voicerelay/voicerelay/config"
	"github.com/voicerelay/voicerelay/internal/adapters/delivery"
	"github.com/voicerelay/voicerelay/internal/adapters/fetcher"
	"github.com/voicerelay/voicerelay/internal/adapters/generator"
	"github.com/voicerelay/voicerelay/internal/adapters/transcriber"
	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/data"
	"github.com/voicerelay/voicerelay/internal/domain/model"
	"github.com/voicerelay/voicerelay/internal/observability/notify/slack"
	"github.com/voicerelay/voicerelay/internal/observability/statsd"
	"github.com/voicerelay/voicerelay/internal/queue"
	"github.com/voicerelay/voicerelay/internal/service"
	"github.com/voicerelay/voicerelay/internal/service/failurenotifier"
	"github.com/voicerelay/voicerelay/internal/worker"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Queue    *queue.Queue
	Pipeline *service.Pipeline
	Worker   *worker.Runner

	// History is nil when no history database is configured.
	History       *data.HistoryRepo
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	FailureNotifier *failurenotifier.Service
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Queue  QueueClients
	DB     *sql.DB // nil when history is disabled
	Logger *slog.Logger
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "voicerelay",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	var sinks []failurenotifier.SinkRegistration

	if cfg.SlackWebhookURL != "" {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.SlackWebhookURL,
			Channel:    cfg.SlackChannel,
			Timeout:    cfg.Timeout,
			RetryLimit: 2,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: logger.With("component", "failure_notifier"),
		Sinks:  sinks,
	})
}

// NewServices wires the task queue, pipeline adapters and worker runner.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, cfg.Observability)

	q, err := queue.New(queue.Options{
		Broker:        deps.Queue.Broker,
		ResultBackend: deps.Queue.Result,
		KeyPrefix:     cfg.Queue.KeyPrefix,
		ResultTTL:     cfg.Queue.ResultTTL,
		Logger:        logger.With("component", "queue"),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build queue: %w", err)
	}

	// The pipeline takes the repo through its port; a nil *data.HistoryRepo
	// must not reach it as a non-nil interface.
	var historyRepo *data.HistoryRepo
	var history core.HistoryRepository
	if deps.DB != nil {
		historyRepo = data.NewHistoryRepo(deps.DB)
		history = historyRepo
	}

	var deliverer core.Deliverer
	if cfg.Delivery.URL != "" {
		deliverer = delivery.New(delivery.Options{
			URL:     cfg.Delivery.URL,
			Timeout: cfg.Delivery.Timeout,
		})
	} else {
		logger.Warn("no delivery endpoint configured; processed artifacts stay on the result backend")
	}

	pipeline, err := service.NewPipeline(service.PipelineOptions{
		Logger: logger.With("component", "pipeline"),
		Fetcher: fetcher.New(fetcher.Options{
			HTTPClient: &http.Client{Timeout: cfg.Speech.Timeout},
			TempDir:    cfg.Worker.TempDir,
			Username:   cfg.Telephony.AccountSID,
			Password:   cfg.Telephony.AuthToken,
		}),
		Transcriber: transcriber.New(transcriber.Options{
			BaseURL: cfg.Speech.BaseURL,
			APIKey:  cfg.Speech.APIKey,
			Model:   cfg.Speech.Model,
			Timeout: cfg.Speech.Timeout,
		}),
		Generator: generator.New(generator.Options{
			BaseURL:           cfg.Generation.BaseURL,
			APIKey:            cfg.Generation.APIKey,
			Model:             cfg.Generation.Model,
			ExemplarUser:      cfg.Generation.ExemplarUser,
			ExemplarAssistant: cfg.Generation.ExemplarAssistant,
			Timeout:           cfg.Generation.Timeout,
		}),
		Deliverer:          deliverer,
		History:            history,
		Metrics:            observability.MetricsSink,
		SummaryInstruction: cfg.Generation.SummaryInstruction,
		KeywordInstruction: cfg.Generation.KeywordInstruction,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build pipeline: %w", err)
	}

	runner, err := worker.NewRunner(worker.RunnerOptions{
		Queue:           q,
		Logger:          logger.With("component", "worker"),
		Concurrency:     cfg.Worker.Concurrency,
		DequeueTimeout:  cfg.Worker.DequeueTimeout,
		Metrics:         observability.MetricsSink,
		FailureNotifier: observability.FailureNotifier,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build worker runner: %w", err)
	}
	runner.Register(model.TaskVoiceMessage, worker.VoiceMessageHandler(pipeline))

	return ServiceContainer{
		Queue:         q,
		Pipeline:      pipeline,
		Worker:        runner,
		History:       historyRepo,
		Observability: observability,
	}, nil
}
