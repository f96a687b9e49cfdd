package kv

import (
	"context"
	"fmt"
	"log/slog"

	"zenpayroll/internal/platform/config"
	"zenpayroll/internal/platform/crypto"
	"zenpayroll/internal/platform/metrics"
)

// Open builds the configured driver and wraps it with encryption, metrics
// and simulated latency, innermost first.
func Open(ctx context.Context, cfg config.Config, collector *metrics.Collector) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.StorageDriver {
	case "", "memory":
		store = NewMemory()
	case "sqlite":
		store, err = OpenSQLite(cfg.StoragePath)
	case "postgres":
		store, err = OpenPostgres(ctx, cfg.DatabaseURL)
	case "redis":
		store, err = OpenRedis(ctx, RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		store.Close()
		return nil, err
	}
	store = WithEncryption(store, sealer)
	if cfg.MetricsEnabled {
		store = WithMetrics(store, collector)
	}
	store = WithLatency(store, cfg.StorageLatency)

	slog.Info("storage ready", "driver", cfg.StorageDriver, "encrypted", sealer.Configured(), "latency", cfg.StorageLatency)
	return store, nil
}
