package config

import "time"

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - http.go: HTTP server configuration
//   - queue.go: task queue broker and result backend configuration
//   - providers.go: external speech/generation/telephony/delivery services
//   - database.go: optional result history database configuration
//   - services.go: service mode and worker configuration
type AppConfig struct {
	// IsDev controls development mode behavior (debug log level, etc.)
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Task queue configuration (Redis broker + result backend)
	Queue QueueConfig

	// Worker runner configuration
	Worker WorkerConfig

	// External service configuration
	Speech     SpeechConfig
	Generation GenerationConfig
	Telephony  TelephonyConfig
	Delivery   DeliveryConfig

	// Optional result history database configuration
	History HistoryDBConfig `envPrefix:"DB_"`

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http,worker"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Queue.Sanitize()
	c.Worker.Sanitize()
	c.Speech.Sanitize()
	c.Generation.Sanitize()
	c.Delivery.Sanitize()
	c.Observability.Sanitize()

	// The blocking-wait webhook holds its request open for up to the queue
	// wait timeout, so the write timeout must exceed it.
	if c.HTTP.WriteTimeout <= c.Queue.WaitTimeout {
		c.HTTP.WriteTimeout = c.Queue.WaitTimeout + 30*time.Second
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsWorkerEnabled returns true if the pipeline worker service is enabled.
func (c *AppConfig) IsWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeWorker]
}
