package progress

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "study:session:"

// RedisStorage implements fiber.Storage on top of a go-redis client so
// sessions survive restarts and can be shared by several instances.
type RedisStorage struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisStorage wraps client. The client stays owned by the caller.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStorage{client: client, prefix: prefix, timeout: 3 * time.Second}
}

func (s *RedisStorage) key(id string) string {
	return s.prefix + id
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil, nil when the key does not exist.
func (s *RedisStorage) Get(id string) ([]byte, error) {
	if id == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	value, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

// Set stores value for exp; a zero exp keeps the key until deleted.
func (s *RedisStorage) Set(id string, value []byte, exp time.Duration) error {
	if id == "" || len(value) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	return s.client.Set(ctx, s.key(id), value, exp).Err()
}

// Delete removes a session.
func (s *RedisStorage) Delete(id string) error {
	if id == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	return s.client.Del(ctx, s.key(id)).Err()
}

// Reset removes every session under the storage prefix.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close is a no-op; the redis client is closed by its owner.
func (s *RedisStorage) Close() error {
	return nil
}
