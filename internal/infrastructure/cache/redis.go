package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.ErrCacheFailed("connect", err)
	}

	return client, nil
}

// RedisEmbeddingStore caches embeddings in Redis so multiple instances
// share one cache. Errors degrade to cache misses; the caller re-embeds.
type RedisEmbeddingStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisEmbeddingStore creates a Redis-backed embedding cache.
func NewRedisEmbeddingStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisEmbeddingStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisEmbeddingStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisEmbeddingStore) redisKey(text string) string {
	return "embedding:" + CacheKey(text)
}

// Get returns the cached vector for a text, if present.
func (s *RedisEmbeddingStore) Get(ctx context.Context, text string) ([]float32, bool) {
	raw, err := s.client.Get(ctx, s.redisKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Set stores a vector with the configured TTL.
func (s *RedisEmbeddingStore) Set(ctx context.Context, text string, vector []float32) {
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.redisKey(text), raw, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}
