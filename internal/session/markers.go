package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Markers is the typed bag of flags recorded during the authentication
// handshake. It replaces ad-hoc string-keyed browser storage: one struct,
// one key, explicit stash/clear lifecycle. Keyed by the OAuth state value
// while the handshake is in flight, then by session ID once established.
type Markers struct {
	App        string `json:"app"`         // which application initiated login
	AuthMethod string `json:"auth_method"` // password, magic-link, google, line
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Registered bool   `json:"registered"` // tenant profile already exists
}

// MarkerStore persists Markers across the redirect boundary.
type MarkerStore interface {
	Stash(ctx context.Context, key string, m Markers, ttl time.Duration) error
	Peek(ctx context.Context, key string) (*Markers, error)
	// Take reads and deletes in one shot. Used for anti-replay checks
	// where the stashed value must not be reusable.
	Take(ctx context.Context, key string) (*Markers, error)
	Clear(ctx context.Context, key string) error
}

type RedisMarkerStore struct {
	client *redis.Client
	prefix string
}

func NewRedisMarkerStore(client *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{
		client: client,
		prefix: "markers:",
	}
}

func (r *RedisMarkerStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisMarkerStore) Stash(ctx context.Context, key string, m Markers, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("markers: missing key")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("markers: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisMarkerStore) Peek(ctx context.Context, key string) (*Markers, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var m Markers
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, fmt.Errorf("markers: failed to unmarshal: %w", err)
	}

	return &m, nil
}

func (r *RedisMarkerStore) Take(ctx context.Context, key string) (*Markers, error) {
	val, err := r.client.GetDel(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m Markers
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, fmt.Errorf("markers: failed to unmarshal: %w", err)
	}

	return &m, nil
}

func (r *RedisMarkerStore) Clear(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
