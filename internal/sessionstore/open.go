package sessionstore

import (
	"context"
	"fmt"

	"aorify/internal/config"
	"aorify/internal/logging"
	aredis "aorify/internal/redis"
)

var log = logging.For("sessionstore")

// Open builds the store selected by the configuration. The returned close
// function releases any connection the store holds.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionStore {
	case config.SessionStoreMemory, "":
		return NewMemoryStore(), noop, nil
	case config.SessionStoreFile:
		return NewFileStore(cfg.SessionFile), noop, nil
	case config.SessionStoreRedis:
		client, err := aredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect session redis: %w", err)
		}
		return NewRedisStore(client.Client, cfg.ProjectID), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
