package guard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
	"github.com/tecnoshop/checkout-service/pkg/cache"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

const keyPrefix = "checkout:attempt:"

func errBusy() error {
	return apperror.New(apperror.KindConflict, "a checkout with this idempotency key is already in progress")
}

// RedisGuard holds a token-checked lock per attempt key so attempts are
// serialized across service instances. The TTL bounds how long a crashed
// holder can block its key.
type RedisGuard struct {
	redis  *cache.RedisClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedisGuard(redis *cache.RedisClient, ttl time.Duration, log logger.ZapLogger) *RedisGuard {
	return &RedisGuard{redis: redis, ttl: ttl, logger: log}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	ok, err := g.redis.AcquireLock(ctx, keyPrefix+key, token, g.ttl)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistenceError, err, "acquire checkout lock")
	}
	if !ok {
		return nil, errBusy()
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := g.redis.ReleaseLock(releaseCtx, keyPrefix+key, token); err != nil {
			g.logger.Warn("failed to release checkout lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// LocalGuard is the single-process guard used with the memory storage driver.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(ctx context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, errBusy()
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
