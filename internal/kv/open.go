package kv

import (
	"context"
	"fmt"

	"github.com/FotoFacturas/revamp-sub000/internal/config"
)

// Open builds the store selected by cfg.StoreDriver. The returned close
// function releases any connection the store holds.
func Open(ctx context.Context, cfg config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.StoreMemory:
		return NewMemory(), noop, nil
	case config.StoreFile:
		s, err := NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.StoreRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, cfg.AppName+":"), client.Close, nil
	case config.StorePostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure kv schema: %w", err)
		}
		return s, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
