package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/google/uuid"
)

// CachedOrderRepository decorates an OrderRepository with a Redis cache
// for active-subscription lookups. Writes go to the primary store first;
// cache failures are logged and never fail the request.
type CachedOrderRepository struct {
	repo  OrderRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedOrderRepository creates a caching decorator over repo
func NewCachedOrderRepository(repo OrderRepository, cache *RedisCacheRepository, log *logger.Logger) OrderRepository {
	return &CachedOrderRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create stores the order and invalidates the owner's entitlement cache
func (r *CachedOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	created, err := r.repo.Create(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	if err := r.cache.InvalidateOwner(ctx, created.OwnerID); err != nil {
		r.log.Warnw("Failed to invalidate owner cache after create", "error", err, "ownerID", created.OwnerID)
	}

	return created, nil
}

// GetByID delegates to the primary store
func (r *CachedOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	return r.repo.GetByID(ctx, id)
}

// GetByOwnerID delegates to the primary store
func (r *CachedOrderRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]domain.Order, error) {
	return r.repo.GetByOwnerID(ctx, ownerID)
}

// GetActiveByOwnerID tries the cache first and falls back to the store.
// Cached entries may have expired since they were written, so the
// entitlement window is re-checked before use.
func (r *CachedOrderRepository) GetActiveByOwnerID(ctx context.Context, ownerID string, now time.Time) (domain.Order, error) {
	cached, err := r.cache.GetCachedActiveOrder(ctx, ownerID)
	if err == nil && cached.Active(now) {
		return cached, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		r.log.Warnw("Entitlement cache read failed", "error", err, "ownerID", ownerID)
	}

	order, err := r.repo.GetActiveByOwnerID(ctx, ownerID, now)
	if err != nil {
		return domain.Order{}, err
	}

	if err := r.cache.CacheActiveOrder(ctx, order); err != nil {
		r.log.Warnw("Failed to cache active order", "error", err, "ownerID", ownerID)
	}

	return order, nil
}

// TransitionStatus applies the conditional update and invalidates the
// owner's entitlement cache on success
func (r *CachedOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, expected domain.OrderStatus, update domain.OrderUpdate) (domain.Order, error) {
	order, err := r.repo.TransitionStatus(ctx, id, expected, update)
	if err != nil {
		return domain.Order{}, err
	}

	if err := r.cache.InvalidateOwner(ctx, order.OwnerID); err != nil {
		r.log.Warnw("Failed to invalidate owner cache after transition", "error", err, "ownerID", order.OwnerID)
	}

	return order, nil
}
