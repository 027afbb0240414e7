package redis

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

const (
	defaultKeyPrefix = "aims:catalog:lock:"
	defaultTTL       = 30 * time.Second
	releaseTimeout   = 2 * time.Second
)

var _ ports.OperationLock = (*OperationLock)(nil)

// OperationLock serializes ADD and UPDATE operations across instances using SETNX with a TTL.
type OperationLock struct {
	rdb     *goredis.Client
	release *goredis.Script
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
}

// Option customizes the redis lock.
type Option func(*OperationLock)

// WithTTL bounds how long a crashed holder can block others.
func WithTTL(ttl time.Duration) Option {
	return func(l *OperationLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the lock keys.
func WithKeyPrefix(prefix string) Option {
	return func(l *OperationLock) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *OperationLock) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewOperationLock(rdb *goredis.Client, opts ...Option) *OperationLock {
	l := &OperationLock{
		rdb:     rdb,
		release: goredis.NewScript(releaseLockScript),
		prefix:  defaultKeyPrefix,
		ttl:     defaultTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *OperationLock) TryAcquire(ctx context.Context, op domain.OperationType) (func(), error) {
	if !op.Locked() {
		return func() {}, nil
	}
	key := l.prefix + string(op)
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s lock: %w", op, err)
	}
	if !ok {
		return nil, ports.ErrLockHeld
	}
	return func() {
		// the request context may already be cancelled when the handler returns
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := l.release.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil && err != goredis.Nil {
			l.logger.Warn("release catalog lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
