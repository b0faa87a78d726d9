package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps backend cookies in redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(workspaceID string) string {
	return fmt.Sprintf("console:workspace:%s:cookies", workspaceID)
}

// Save implements CookieStore.
func (s *RedisStore) Save(ctx context.Context, workspaceID string, cookies []StoredCookie) error {
	if len(cookies) == 0 {
		return s.Delete(ctx, workspaceID)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(workspaceID), data, s.ttl).Err()
}

// Load implements CookieStore.
func (s *RedisStore) Load(ctx context.Context, workspaceID string) ([]StoredCookie, error) {
	result, err := s.client.Get(ctx, s.key(workspaceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cookies []StoredCookie
	if err := json.Unmarshal([]byte(result), &cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}

// Delete implements CookieStore.
func (s *RedisStore) Delete(ctx context.Context, workspaceID string) error {
	return s.client.Del(ctx, s.key(workspaceID)).Err()
}
