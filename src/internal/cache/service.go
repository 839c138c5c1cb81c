package cache

import (
	"context"
	"encoding/json"
	"errors"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service is the Redis-backed key/value layer. The session store persists
// its record through the plain Get/Set/Delete methods; sign-in stats are
// cached through the typed helpers.
type Service interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SaveSignInStats(ctx context.Context, stats *models.SignInStats) error
	GetSignInStats(ctx context.Context) (*models.SignInStats, error)
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache}
}

// Get returns the value for key, or empty string when the key is absent.
func (c *cacheService) Get(ctx context.Context, key string) (string, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get key from cache")
		return "", models.ErrRedisGet
	}
	return data, nil
}

func (c *cacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to set key in cache")
		return models.ErrRedisSet
	}
	return nil
}

func (c *cacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).WithField("keys", keys).Error("Failed to delete keys from cache")
		return models.ErrRedisDelete
	}
	return nil
}

func (c *cacheService) SaveSignInStats(ctx context.Context, stats *models.SignInStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal sign-in stats for cache")
		return models.ErrRedisSet
	}
	expiration := time.Duration(c.cfg.SignInStatsExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.cfg.SignInStatsKey, data, expiration).Err(); err != nil {
		logrus.WithError(err).Error("Failed to cache sign-in stats")
		return models.ErrRedisSet
	}
	return nil
}

func (c *cacheService) GetSignInStats(ctx context.Context) (*models.SignInStats, error) {
	data, err := c.client.Get(ctx, c.cfg.SignInStatsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Sign-in stats not found in cache")
			return nil, nil
		}
		logrus.WithError(err).Error("Failed to get sign-in stats from cache")
		return nil, models.ErrRedisGet
	}

	var stats models.SignInStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal sign-in stats from cache")
		return nil, models.ErrRedisGet
	}

	return &stats, nil
}
