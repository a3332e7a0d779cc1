package config

import "time"

// RedisConfig contains Redis connection configuration for the task queue
// broker and result backend.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// QueueConfig contains task queue configuration.
type QueueConfig struct {
	// Broker is the Redis connection used to hand tasks to workers.
	Broker RedisConfig `envPrefix:"BROKER_REDIS_"`

	// ResultBackend is the Redis connection used to hold terminal job results.
	// It defaults to the broker connection when left unset.
	ResultBackend RedisConfig `envPrefix:"RESULT_REDIS_"`

	// KeyPrefix namespaces all queue and result keys.
	KeyPrefix string `env:"QUEUE_KEY_PREFIX" envDefault:"voicerelay:"`

	// ResultTTL is how long a terminal result stays retrievable in the backend.
	ResultTTL time.Duration `env:"QUEUE_RESULT_TTL" envDefault:"1h"`

	// WaitTimeout bounds how long a blocking-wait webhook caller waits for a
	// job's terminal result. It bounds only the caller's wait; the in-flight
	// worker execution continues regardless.
	WaitTimeout time.Duration `env:"QUEUE_WAIT_TIMEOUT" envDefault:"90s"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	if q.KeyPrefix == "" {
		q.KeyPrefix = "voicerelay:"
	}
	if q.ResultTTL < time.Minute {
		q.ResultTTL = time.Minute
	}
	if q.WaitTimeout < time.Second {
		q.WaitTimeout = time.Second
	}
	if q.ResultBackend.Addr == "" {
		q.ResultBackend = q.Broker
	}
}
