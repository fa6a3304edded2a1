package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in Redis as JSON. Keys expire shortly after
// the refresh window so abandoned sessions do not accumulate.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisStoreOptions configure a RedisStore.
type RedisStoreOptions struct {
	// Prefix is prepended to every key. Defaults to "supabase:".
	Prefix string

	// TTL applied on Save. Zero means keys never expire.
	TTL time.Duration
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(client redis.UniversalClient, opts RedisStoreOptions) *RedisStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "supabase:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: opts.TTL}
}

func (r *RedisStore) Load(ctx context.Context, key string) (*Session, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode stored session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
