package oauthstate

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares states across instances; GETDEL makes Take single-use.
type RedisStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "oauth_state:"}
}

func (s *RedisStore) Put(ctx context.Context, shopID string) (string, error) {
	state := newState()
	if err := s.rdb.Set(ctx, s.prefix+state, shopID, s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

func (s *RedisStore) Take(ctx context.Context, state string) (string, error) {
	shopID, err := s.rdb.GetDel(ctx, s.prefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownState
	}
	if err != nil {
		return "", err
	}
	return shopID, nil
}
