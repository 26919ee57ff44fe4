package storage

import (
	"fmt"
	"standbot/internal/providers"
	"standbot/internal/storage/interfaces"
	"standbot/internal/structures"

	"github.com/redis/go-redis/v9"
)

// NewStateStore picks the dialogue state backend from StateStore.Driver.
func NewStateStore(conf *structures.Config, client *redis.Client, fileManager *FileManager, logger providers.Logger, metrics providers.MetricsProviderInterface) (interfaces.StateStoreInterface, error) {
	switch conf.StateStore.Driver {
	case "file", "":
		return NewMemoryStateStore(fileManager, conf.Persistence.FilePath, logger, metrics), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis state store requires a redis client")
		}
		return NewRedisStateStore(client, conf.StateStore.Redis.Prefix, logger, metrics), nil
	default:
		return nil, fmt.Errorf("unsupported state store driver %q", conf.StateStore.Driver)
	}
}
