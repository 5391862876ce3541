package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "dietcalc:ingredient:"

// CachedIngredientRepository is a read-through Redis cache in front of another repository.
// Cache errors are logged and the backing repository is used instead.
type CachedIngredientRepository struct {
	next   IngredientRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewCachedIngredientRepository wraps next with a Redis cache
func NewCachedIngredientRepository(next IngredientRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedIngredientRepository {
	return &CachedIngredientRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(name string) string {
	return cacheKeyPrefix + name
}

// List always reads through to the backing repository
func (r *CachedIngredientRepository) List(ctx context.Context) ([]models.IngredientProfile, error) {
	return r.next.List(ctx)
}

// GetByName serves from cache when possible and fills it on a miss
func (r *CachedIngredientRepository) GetByName(ctx context.Context, name string) (*models.IngredientProfile, error) {
	raw, err := r.client.Get(ctx, cacheKey(name)).Bytes()
	switch {
	case err == nil:
		var p models.IngredientProfile
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
		r.logger.Warn("discarding undecodable cache entry", "ingredient", name)
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.logger.Warn("ingredient cache read failed", "ingredient", name, "error", err)
	}

	profile, err := r.next.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(profile); err == nil {
		if err := r.client.Set(ctx, cacheKey(name), data, r.ttl).Err(); err != nil {
			r.logger.Warn("ingredient cache write failed", "ingredient", name, "error", err)
		}
	}
	return profile, nil
}

// Upsert writes through and invalidates the cached entries
func (r *CachedIngredientRepository) Upsert(ctx context.Context, profiles []models.IngredientProfile) (int, error) {
	n, err := r.next.Upsert(ctx, profiles)
	if err != nil {
		return n, err
	}

	keys := make([]string, 0, len(profiles))
	for _, p := range profiles {
		keys = append(keys, cacheKey(p.Name))
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			r.logger.Warn("ingredient cache invalidation failed", "count", len(keys), "error", err)
		}
	}
	return n, nil
}
