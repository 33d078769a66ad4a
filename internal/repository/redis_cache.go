package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	activeOrderKeyPrefix = "active_order:"

	// Entitlement lookups tolerate short staleness; transitions
	// invalidate eagerly anyway
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository caches active-subscription lookups in Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository connects to Redis and verifies the connection
func NewRedisCacheRepository(addr, password string, db int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("repository: connect to redis: %w", err)
	}

	log.Infow("Connected to Redis", "addr", addr)
	return &RedisCacheRepository{client: client, log: log}, nil
}

// Close closes the Redis connection
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheActiveOrder stores the owner's active order
func (r *RedisCacheRepository) CacheActiveOrder(ctx context.Context, order domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("repository: marshal order for cache: %w", err)
	}

	key := activeOrderKeyPrefix + order.OwnerID
	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		return fmt.Errorf("repository: cache order: %w", err)
	}
	return nil
}

// GetCachedActiveOrder returns the cached active order of an owner.
// A cache miss is reported as ErrNotFound.
func (r *RedisCacheRepository) GetCachedActiveOrder(ctx context.Context, ownerID string) (domain.Order, error) {
	data, err := r.client.Get(ctx, activeOrderKeyPrefix+ownerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("repository: read order cache: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return domain.Order{}, fmt.Errorf("repository: unmarshal cached order: %w", err)
	}
	return order, nil
}

// InvalidateOwner drops the cached entitlement of an owner
func (r *RedisCacheRepository) InvalidateOwner(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, activeOrderKeyPrefix+ownerID).Err(); err != nil {
		return fmt.Errorf("repository: invalidate owner cache: %w", err)
	}
	return nil
}
