package rollupcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl, prefix: "rollup"}
}

func (r *Redis) versionKey(eventTypeID string) string {
	return r.prefix + ":v:" + eventTypeID
}

func (r *Redis) dataKey(eventTypeID, version, key string) string {
	return r.prefix + ":" + eventTypeID + ":" + version + ":" + key
}

func (r *Redis) version(ctx context.Context, eventTypeID string) (string, error) {
	v, err := r.rdb.Get(ctx, r.versionKey(eventTypeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("read rollup version: %w", err)
	}
	return v, nil
}

func (r *Redis) Get(ctx context.Context, eventTypeID, key string) ([]byte, bool, error) {
	v, err := r.version(ctx, eventTypeID)
	if err != nil {
		return nil, false, err
	}
	b, err := r.rdb.Get(ctx, r.dataKey(eventTypeID, v, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read rollup: %w", err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, eventTypeID, key string, value []byte) error {
	v, err := r.version(ctx, eventTypeID)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.dataKey(eventTypeID, v, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("write rollup: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, eventTypeID string) error {
	if err := r.rdb.Incr(ctx, r.versionKey(eventTypeID)).Err(); err != nil {
		return fmt.Errorf("bump rollup version: %w", err)
	}
	return nil
}
