package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/aisign/internal/client"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "aisign:blob:"
	redisFieldData   = "data"
	redisFieldType   = "content_type"
	redisPingTimeout = 5 * time.Second
)

// RedisStore keeps signed images in Redis hashes so several server instances
// can share sessions
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(address, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if address == "" {
		return nil, errors.New("redis store requires an address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", address, err)
	}

	slog.Info("RedisStore: connected", "address", address, "db", db, "ttl", ttl)
	return &RedisStore{client: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, blob *client.Blob) error {
	redisKey := redisKeyPrefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey)
		pipe.HSet(ctx, redisKey, redisFieldData, blob.Data, redisFieldType, blob.ContentType)
		if s.ttl > 0 {
			pipe.Expire(ctx, redisKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*client.Blob, error) {
	values, err := s.client.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	data, ok := values[redisFieldData]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return &client.Blob{Data: []byte(data), ContentType: values[redisFieldType]}, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release blob %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
