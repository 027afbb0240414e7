// Package redis dials the shared Redis instance used for cross-instance locks.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Connect opens a Redis client and verifies connectivity with PING.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// ConnectOptional dials Redis when an address is configured. A nil client means callers
// should fall back to process-local coordination.
func ConnectOptional(ctx context.Context, logger *slog.Logger, addr, password string, db int) (*goredis.Client, func()) {
	if strings.TrimSpace(addr) == "" {
		logger.Warn("REDIS_ADDR not set, using in-process operation locks")
		return nil, func() {}
	}
	client, err := Connect(ctx, addr, password, db)
	if err != nil {
		logger.Warn("failed to connect to redis, using in-process operation locks", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("redis connection established", slog.String("addr", addr))
	return client, func() { _ = client.Close() }
}
