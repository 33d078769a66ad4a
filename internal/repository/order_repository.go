package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/google/uuid"
)

// OrderRepository persists premium orders. Orders are never physically
// deleted; terminal states are immutable history.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]domain.Order, error)
	GetActiveByOwnerID(ctx context.Context, ownerID string, now time.Time) (domain.Order, error)

	// TransitionStatus applies update only if the order still has the
	// expected status at write time. Returns ErrNotFound when no such
	// order exists and ErrStatusConflict when the status moved on, so
	// concurrent callback deliveries resolve to exactly one winner.
	TransitionStatus(ctx context.Context, id uuid.UUID, expected domain.OrderStatus, update domain.OrderUpdate) (domain.Order, error)
}

// InMemoryOrderRepository keeps orders in a map, used by tests and by
// local runs without a database
type InMemoryOrderRepository struct {
	orders map[uuid.UUID]domain.Order
	mutex  sync.RWMutex
	log    *logger.Logger
}

// NewInMemoryOrderRepository creates a new in-memory order repository
func NewInMemoryOrderRepository(log *logger.Logger) *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders: make(map[uuid.UUID]domain.Order),
		log:    log,
	}
}

// Create stores a new order
func (r *InMemoryOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	r.orders[order.ID] = order

	return order, nil
}

// GetByID returns the order with the given id
func (r *InMemoryOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return domain.Order{}, ErrNotFound
	}

	return order, nil
}

// GetByOwnerID returns all orders of an owner, newest first
func (r *InMemoryOrderRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]domain.Order, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var orders []domain.Order
	for _, order := range r.orders {
		if order.OwnerID == ownerID {
			orders = append(orders, order)
		}
	}

	sortOrdersNewestFirst(orders)
	return orders, nil
}

// GetActiveByOwnerID returns the owner's unexpired success order.
// When several overlap, the latest-expiring one wins, same as the
// Postgres store.
func (r *InMemoryOrderRepository) GetActiveByOwnerID(ctx context.Context, ownerID string, now time.Time) (domain.Order, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var best domain.Order
	found := false
	for _, order := range r.orders {
		if order.OwnerID != ownerID || !order.Active(now) {
			continue
		}
		if !found || order.ValidTo.After(*best.ValidTo) {
			best = order
			found = true
		}
	}
	if !found {
		return domain.Order{}, ErrNotFound
	}

	return best, nil
}

// TransitionStatus applies a conditional status update
func (r *InMemoryOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, expected domain.OrderStatus, update domain.OrderUpdate) (domain.Order, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return domain.Order{}, ErrNotFound
	}
	if order.Status != expected {
		return domain.Order{}, ErrStatusConflict
	}

	order.Status = update.Status
	if update.ValidFrom != nil {
		order.ValidFrom = update.ValidFrom
	}
	if update.ValidTo != nil {
		order.ValidTo = update.ValidTo
	}
	if update.RefundAmount != nil {
		order.RefundAmount = update.RefundAmount
	}
	if update.CancelReason != "" {
		order.CancelReason = update.CancelReason
	}
	order.UpdatedAt = time.Now()

	r.orders[id] = order

	return order, nil
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
