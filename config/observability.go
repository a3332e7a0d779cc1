package config

import (
	"strings"
	"time"
)

// ObservabilityConfig groups metrics and notification configuration.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// ObservabilityMetricsConfig contains StatsD metrics configuration.
type ObservabilityMetricsConfig struct {
	// Enabled toggles metric emission.
	Enabled bool `env:"METRICS_ENABLED" envDefault:"false"`

	// StatsdAddress is the UDP host:port of a StatsD-compatible sink.
	StatsdAddress string `env:"METRICS_STATSD_ADDRESS" envDefault:""`
}

// IsEnabled reports whether metrics should be emitted.
func (m ObservabilityMetricsConfig) IsEnabled() bool {
	return m.Enabled && strings.TrimSpace(m.StatsdAddress) != ""
}

// ObservabilityNotificationsConfig contains failure notification configuration.
type ObservabilityNotificationsConfig struct {
	// SlackWebhookURL enables Slack notifications for terminal pipeline
	// failures when set.
	SlackWebhookURL string `env:"NOTIFY_SLACK_WEBHOOK_URL" envDefault:""`

	// SlackChannel optionally overrides the webhook's default channel.
	SlackChannel string `env:"NOTIFY_SLACK_CHANNEL" envDefault:""`

	// Timeout bounds a single notification delivery.
	Timeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to observability configuration values.
func (o *ObservabilityConfig) Sanitize() {
	o.Metrics.StatsdAddress = strings.TrimSpace(o.Metrics.StatsdAddress)
	o.Notifications.SlackWebhookURL = strings.TrimSpace(o.Notifications.SlackWebhookURL)
	if o.Notifications.Timeout <= 0 {
		o.Notifications.Timeout = 5 * time.Second
	}
}
