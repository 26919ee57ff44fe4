package providers

import (
	"context"
	"fmt"
	"standbot/internal/structures"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewRedisProvider connects to redis when dialogue states are kept there.
// It returns a nil client for any other state store driver.
func NewRedisProvider(conf *structures.Config, logger Logger) (*redis.Client, func(), error) {
	if conf.StateStore.Driver != "redis" {
		return nil, func() {}, nil
	}

	cfg := conf.StateStore.Redis
	var (
		client *redis.Client
		mini   *miniredis.Miniredis
	)

	switch cfg.Driver {
	case "standalone", "":
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case "miniredis":
		s, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
		}
		mini = s
		client = redis.NewClient(&redis.Options{Addr: s.Addr()})
	default:
		return nil, nil, fmt.Errorf("unsupported redis driver %q", cfg.Driver)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Errorf(TypeStorage, "Failed to close redis client: %v", err)
		}
		if mini != nil {
			mini.Close()
		}
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Infof(TypeStorage, "Connected to redis (%s)", client.Options().Addr)
	return client, cleanup, nil
}
