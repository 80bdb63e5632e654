package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares codes across replicas. Expiry is Redis' own TTL.
type RedisStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "verify"}
}

// consumeScript checks a code stored as a hash {code, attempts}.
// 1 ok, 0 missing, -1 mismatch, -2 mismatch that used up the attempts.
var consumeScript = redis.NewScript(`
local v = redis.call("HGET", KEYS[1], "code")
if not v then
  return 0
end
if v == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
local n = redis.call("HINCRBY", KEYS[1], "attempts", 1)
if n >= tonumber(ARGV[2]) then
  redis.call("DEL", KEYS[1])
  return -2
end
return -1
`)

func (s *RedisStore) key(scope, email string) string {
	return s.prefix + ":" + storeKey(scope, email)
}

func (s *RedisStore) Issue(ctx context.Context, scope, email string) (string, time.Time, error) {
	code, err := NewCode()
	if err != nil {
		return "", time.Time{}, err
	}
	key := s.key(scope, email)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "code", code, "attempts", 0)
		p.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("store verification code: %w", err)
	}
	return code, time.Now().Add(s.ttl), nil
}

func (s *RedisStore) Consume(ctx context.Context, scope, email, code string) error {
	res, err := consumeScript.Run(ctx, s.rdb, []string{s.key(scope, email)}, strings.TrimSpace(code), MaxAttempts).Int()
	if err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return consumeResult(res)
}

func consumeResult(res int) error {
	switch res {
	case 1:
		return nil
	case -1:
		return ErrCodeMismatch
	case -2:
		return ErrTooManyAttempts
	default:
		return ErrCodeExpired
	}
}
