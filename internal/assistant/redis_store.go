package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix = "chat:session:"
	lockKeyPrefix    = "chat:lock:"
	unlockTimeout    = 3 * time.Second
)

// unlockScript deletes the lock only if this holder still owns it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore is a SessionStore and TurnLocker backed by Redis, shared by all API instances.
type RedisStore struct {
	client     *redis.Client
	sessionTTL time.Duration
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewRedisStore creates a Redis-backed store. lockTTL bounds how long a crashed turn can hold
// a session.
func NewRedisStore(client *redis.Client, sessionTTL, lockTTL time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, sessionTTL: sessionTTL, lockTTL: lockTTL, logger: logger}
}

// Load implements SessionStore.
func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Save implements SessionStore. The TTL is refreshed on every save.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, data, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// TryLock implements TurnLocker with SET NX PX and a compare-and-delete release.
func (r *RedisStore) TryLock(ctx context.Context, sessionID string) (func(), bool, error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire turn lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		// the request context may already be done
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if err := unlockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			r.logger.Warn("release turn lock failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return unlock, true, nil
}
