package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// redisに置くサーバー側セッション
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, sessionID string, sess repository.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, key(sessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (repository.Session, error) {
	val, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.Session{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Session{}, fmt.Errorf("redis get failed: %w", err)
	}

	var sess repository.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return repository.Session{}, fmt.Errorf("session unmarshal failed: %w", err)
	}
	return sess, nil
}

// 無いセッションを消してもエラーにしない
func (s *RedisStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
