package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OneTimeStore holds short-lived single-use values: magic-link tokens and
// the pending-session signal the reconciler polls for after an OAuth
// redirect.
type OneTimeStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Peek returns "" when the key does not exist.
	Peek(ctx context.Context, key string) (string, error)
	// Take consumes the value; a second Take returns "".
	Take(ctx context.Context, key string) (string, error)
}

type RedisOneTimeStore struct {
	client *redis.Client
	prefix string
}

func NewRedisOneTimeStore(client *redis.Client) *RedisOneTimeStore {
	return &RedisOneTimeStore{
		client: client,
		prefix: "onetime:",
	}
}

func (r *RedisOneTimeStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisOneTimeStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" || value == "" {
		return fmt.Errorf("onetime: missing key or value")
	}
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisOneTimeStore) Peek(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (r *RedisOneTimeStore) Take(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
