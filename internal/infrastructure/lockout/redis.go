package lockout

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
)

// RedisStore shares lockout state between instances. Failures are counted in
// a key that expires after the cooldown; reaching the limit sets a lock key
// with the cooldown as its TTL. Redis errors fail open and are logged.
type RedisStore struct {
	client   *redis.Client
	max      int
	cooldown time.Duration
	prefix   string
	log      zerolog.Logger
}

func NewRedisStore(client *redis.Client, maxAttempts, cooldownSeconds int, log zerolog.Logger) *RedisStore {
	cd := time.Duration(cooldownSeconds) * time.Second
	if cd <= 0 {
		cd = DefaultCooldown
	}
	return &RedisStore{client: client, max: maxAttempts, cooldown: cd, prefix: "timesheets:lockout:", log: log}
}

func (s *RedisStore) failKey(email string) string { return s.prefix + "fail:" + key(email) }
func (s *RedisStore) lockKey(email string) string { return s.prefix + "lock:" + key(email) }

func (s *RedisStore) IsLocked(ctx context.Context, email string) (bool, int) {
	if s.max <= 0 {
		return false, 0
	}
	ttl, err := s.client.PTTL(ctx, s.lockKey(email)).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("lockout lookup failed")
		return false, 0
	}
	if ttl <= 0 {
		return false, 0
	}
	return true, retryAfter(ttl)
}

func (s *RedisStore) RecordFailure(ctx context.Context, email string) {
	if s.max <= 0 {
		return
	}
	fk := s.failKey(email)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fk)
	pipe.ExpireNX(ctx, fk, s.cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("lockout record failure failed")
		return
	}
	if incr.Val() < int64(s.max) {
		return
	}
	pipe = s.client.TxPipeline()
	pipe.Set(ctx, s.lockKey(email), 1, s.cooldown)
	pipe.Del(ctx, fk)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("lockout lock failed")
	}
}

func (s *RedisStore) RecordSuccess(ctx context.Context, email string) {
	if s.max <= 0 {
		return
	}
	if err := s.client.Del(ctx, s.failKey(email), s.lockKey(email)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("lockout reset failed")
	}
}

var _ ports.LoginLockoutStore = (*RedisStore)(nil)
