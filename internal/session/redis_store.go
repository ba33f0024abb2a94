package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTokenTTL = 24 * time.Hour

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     storeKey(namespace),
		baseTTL: defaultTokenTTL,
		now:     time.Now,
	}
}

// RedisStore shares one credential between every client process pointed at
// the same Redis and namespace.
type RedisStore struct {
	client  *redis.Client
	key     string
	baseTTL time.Duration
	now     func() time.Time
}

func (r *RedisStore) Load(ctx context.Context) (Tokens, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Tokens{}, ErrNoTokens
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("redis get failed: %w", err)
	}

	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("unmarshal tokens failed: %w", err)
	}
	return tokens, nil
}

// Save keeps the tokens until the access token expires, or baseTTL when the
// token carries no expiry.
func (r *RedisStore) Save(ctx context.Context, tokens Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens failed: %w", err)
	}

	ttl := r.baseTTL
	if exp, ok := tokenExpiry(tokens.AccessToken); ok {
		ttl = exp.Sub(r.now())
		if ttl <= 0 {
			return r.Delete(ctx)
		}
	}

	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storeKey(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return fmt.Sprintf("storefront:session:%s", namespace)
}
