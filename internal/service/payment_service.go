package service

import (
	"context"
	"errors"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/internal/kafka"
	"github.com/nghia193193/recruitment-payment-service/internal/metrics"
	"github.com/nghia193193/recruitment-payment-service/internal/repository"
	"github.com/nghia193193/recruitment-payment-service/internal/vnpay"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/google/uuid"
)

// PaymentService drives the owner-facing half of the payment pipeline:
// creating priced orders with signed redirect URLs, querying order
// history and cancelling active subscriptions with a prorated refund.
type PaymentService interface {
	CreatePaymentRequest(ctx context.Context, ownerID string, req domain.PaymentRequest, clientIP string) (domain.Order, string, error)
	GetOrders(ctx context.Context, ownerID string) ([]domain.Order, error)
	GetActiveSubscription(ctx context.Context, ownerID string) (domain.Order, error)
	CancelSubscription(ctx context.Context, ownerID, reason string) (domain.Order, error)
}

type paymentService struct {
	repo     repository.OrderRepository
	gateway  *vnpay.Client
	producer kafka.OrderProducer
	metrics  metrics.PaymentMetrics
	log      *logger.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	repo repository.OrderRepository,
	gateway *vnpay.Client,
	producer kafka.OrderProducer,
	m metrics.PaymentMetrics,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		repo:     repo,
		gateway:  gateway,
		producer: producer,
		metrics:  m,
		log:      log,
	}
}

// CreatePaymentRequest prices the requested package, persists a pending
// order and returns the signed gateway redirect URL. An unknown package
// is rejected before anything is persisted.
func (s *paymentService) CreatePaymentRequest(ctx context.Context, ownerID string, req domain.PaymentRequest, clientIP string) (domain.Order, string, error) {
	pkg, err := domain.PackageByName(req.Package)
	if err != nil {
		s.log.Warnw("Rejected payment request for unknown package", "package", req.Package, "ownerID", ownerID)
		return domain.Order{}, "", err
	}

	order := domain.Order{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Package: pkg.Name,
		Price:   pkg.Price,
		Status:  domain.OrderStatusPending,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return domain.Order{}, "", err
	}

	paymentURL := s.gateway.BuildPaymentURL(created, clientIP, req.Locale, created.CreatedAt)

	s.metrics.IncOrderCreated(pkg.Name)
	if err := s.producer.PublishOrderCreated(ctx, created); err != nil {
		// Event delivery is best effort, the order itself is committed
		s.log.Warnw("Failed to publish order created event", "error", err, "orderID", created.ID)
	}

	s.log.Infow("Created pending premium order", "orderID", created.ID, "ownerID", ownerID, "package", pkg.Name, "price", pkg.Price)
	return created, paymentURL, nil
}

// GetOrders returns the owner's order history, newest first
func (s *paymentService) GetOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	return s.repo.GetByOwnerID(ctx, ownerID)
}

// GetActiveSubscription returns the owner's unexpired success order
func (s *paymentService) GetActiveSubscription(ctx context.Context, ownerID string) (domain.Order, error) {
	order, err := s.repo.GetActiveByOwnerID(ctx, ownerID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Order{}, domain.ErrNoActiveSubscription
		}
		return domain.Order{}, err
	}
	return order, nil
}

// CancelSubscription terminates the owner's active subscription with a
// prorated refund. The transition is conditional on the order still
// being a success, which resolves the theoretical cancel-vs-callback
// race the same way duplicate callbacks are resolved.
func (s *paymentService) CancelSubscription(ctx context.Context, ownerID, reason string) (domain.Order, error) {
	now := time.Now()

	order, err := s.repo.GetActiveByOwnerID(ctx, ownerID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Order{}, domain.ErrNoActiveSubscription
		}
		return domain.Order{}, err
	}

	refund, err := ComputeRefund(order, now)
	if err != nil {
		return domain.Order{}, err
	}

	cancelled, err := s.repo.TransitionStatus(ctx, order.ID, domain.OrderStatusSuccess, domain.OrderUpdate{
		Status:       domain.OrderStatusCancelled,
		RefundAmount: &refund,
		CancelReason: reason,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return domain.Order{}, domain.ErrNoActiveSubscription
		}
		return domain.Order{}, err
	}

	s.metrics.IncOrderStatus(string(domain.OrderStatusCancelled))
	s.metrics.ObserveRefundAmount(float64(refund))
	if err := s.producer.PublishOrderCancelled(ctx, cancelled); err != nil {
		s.log.Warnw("Failed to publish order cancelled event", "error", err, "orderID", cancelled.ID)
	}

	s.log.Infow("Cancelled premium subscription", "orderID", cancelled.ID, "ownerID", ownerID, "refund", refund)
	return cancelled, nil
}
