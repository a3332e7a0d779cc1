package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the webhook ingress HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the voice-message pipeline worker.
	ServiceModeWorker ServiceMode = "worker"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeWorker}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, worker)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains pipeline worker configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines processing voice messages.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"2"`

	// DequeueTimeout is how long a blocking dequeue waits for a task before polling again.
	DequeueTimeout time.Duration `env:"WORKER_DEQUEUE_TIMEOUT" envDefault:"5s"`

	// TempDir is the directory used for per-job temporary audio files.
	// Empty means the OS default temp directory.
	TempDir string `env:"WORKER_TEMP_DIR" envDefault:""`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.DequeueTimeout < time.Second {
		w.DequeueTimeout = time.Second
	}
}
