package lock

import (
	"context"
	"sync"
	"time"

	"go-hris-engine/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock that was taken over by another node is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

const keyPrefix = "hris:lock:"

type RedisLocker struct {
	client       redis.Cmdable
	ttl          time.Duration
	pollInterval time.Duration
	token        func() string
	logger       *zap.Logger
}

type RedisOption func(*RedisLocker)

func WithPollInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.pollInterval = d }
}

func WithTokenFunc(fn func() string) RedisOption {
	return func(l *RedisLocker) { l.token = fn }
}

func WithLogger(logger *zap.Logger) RedisOption {
	return func(l *RedisLocker) { l.logger = logger }
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:       client,
		ttl:          ttl,
		pollInterval: 50 * time.Millisecond,
		token:        func() string { return uuid.NewString() },
		logger:       zap.L().Named("lock.redis"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := keyPrefix + key
	token := l.token()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, apperror.WithCause(apperror.ErrStoreUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, apperror.WithCause(ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.pollInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := l.client.Eval(releaseCtx, releaseScript, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("release lock failed",
					zap.String("key", redisKey),
					zap.Error(err),
				)
			}
		})
	}, nil
}
