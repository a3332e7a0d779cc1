package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voicerelay/voicerelay/config"
)

// QueueClients holds the Redis clients backing the task queue. Result may
// alias Broker when both point at the same instance.
type QueueClients struct {
	Broker redis.UniversalClient
	Result redis.UniversalClient
}

// Close releases both clients, closing shared ones only once.
func (q QueueClients) Close() error {
	var errs []error
	if q.Broker != nil {
		if err := q.Broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker client: %w", err))
		}
	}
	if q.Result != nil && q.Result != q.Broker {
		if err := q.Result.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close result client: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConnectQueueRedis establishes the broker and result-backend connections.
func ConnectQueueRedis(cfg config.QueueConfig, logger *slog.Logger) (QueueClients, error) {
	broker, err := connectRedis(cfg.Broker, "broker", logger)
	if err != nil {
		return QueueClients{}, err
	}

	clients := QueueClients{Broker: broker, Result: broker}
	if cfg.ResultBackend.Addr != "" && cfg.ResultBackend != cfg.Broker {
		result, err := connectRedis(cfg.ResultBackend, "result backend", logger)
		if err != nil {
			return QueueClients{}, errors.Join(err, clients.Close())
		}
		clients.Result = result
	}

	return clients, nil
}

func connectRedis(cfg config.RedisConfig, role string, logger *slog.Logger) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", role, pingErr)
	}

	if logger != nil {
		logger.Info("redis connected", "role", role, "addr", cfg.Addr, "db", cfg.DB)
	}
	return client, nil
}
