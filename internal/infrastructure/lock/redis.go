package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockKeyPrefix = "gearsync:reconcile:"

// acquireScript takes the scope key only when neither it nor the global key
// is held. Acquiring "all" additionally requires that no other scope key
// exists under the prefix.
var acquireScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
if KEYS[1] == ARGV[3] then
  local others = redis.call("KEYS", ARGV[4])
  if #others > 0 then
    return 0
  end
else
  if redis.call("EXISTS", ARGV[3]) == 1 then
    return 0
  end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisReconcileLock is a Redis-backed ReconcileLock for deployments running
// more than one instance against the same event log.
type RedisReconcileLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisReconcileLock creates a new RedisReconcileLock. The TTL bounds how
// long a crashed holder can block other runs.
func NewRedisReconcileLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisReconcileLock {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisReconcileLock{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

var _ integration.ReconcileLock = (*RedisReconcileLock)(nil)

// Acquire takes the lock for the scope, or returns ErrReconcileInProgress.
func (l *RedisReconcileLock) Acquire(ctx context.Context, scope string) (func(), error) {
	key := lockKeyPrefix + scope
	globalKey := lockKeyPrefix + "all"
	token := uuid.NewString()

	ok, err := acquireScript.Run(ctx, l.client,
		[]string{key},
		token, l.ttl.Milliseconds(), globalKey, lockKeyPrefix+"*",
	).Int()
	if err != nil {
		return nil, fmt.Errorf("integration: acquire reconcile lock: %w", err)
	}
	if ok != 1 {
		return nil, integration.ErrReconcileInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release reconcile lock",
				zap.String("scope", scope),
				zap.Error(err))
		}
	}
	return release, nil
}
