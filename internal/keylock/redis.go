package keylock

import (
	"context"
	"fmt"
	"time"

	"github.com/Aaditya7171/event-platform/pkg/logger"
	pkgredis "github.com/Aaditya7171/event-platform/pkg/redis"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const releaseScriptName = "keylock_release"

// releaseScript deletes the lock only when the caller still owns it
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisConfig configures the distributed locker
type RedisConfig struct {
	Prefix     string
	TTL        time.Duration
	RetryDelay time.Duration
}

// DefaultRedisConfig returns defaults suited to one reconcile step
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Prefix:     "event-platform:lock:",
		TTL:        30 * time.Second,
		RetryDelay: 25 * time.Millisecond,
	}
}

// Redis locks keys across processes with SET NX and a token-checked release
type Redis struct {
	client *pkgredis.Client
	config *RedisConfig
	log    *logger.Logger
}

// NewRedis creates a distributed locker and loads its release script
func NewRedis(ctx context.Context, client *pkgredis.Client, cfg *RedisConfig, log *logger.Logger) (*Redis, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if _, err := client.LoadScript(ctx, releaseScriptName, releaseScript); err != nil {
		return nil, err
	}
	return &Redis{client: client, config: cfg, log: log.Named("keylock")}, nil
}

// Lock polls SET NX until it wins the key or ctx is done
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := r.config.Prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.config.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(r.config.RetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-t.C:
		}
	}

	return func() {
		// release must run even if the caller's ctx is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.client.EvalShaByName(releaseCtx, releaseScriptName, []string{lockKey}, token).Err(); err != nil {
			r.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
