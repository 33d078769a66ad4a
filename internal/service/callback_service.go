package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/internal/kafka"
	"github.com/nghia193193/recruitment-payment-service/internal/metrics"
	"github.com/nghia193193/recruitment-payment-service/internal/repository"
	"github.com/nghia193193/recruitment-payment-service/internal/vnpay"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/google/uuid"
)

// CallbackResult is the answer returned to the gateway's IPN call.
// RspCode follows the gateway protocol; Order is set once a verified
// callback has been matched to a stored order.
type CallbackResult struct {
	RspCode string
	Message string
	Order   *domain.Order
}

// CallbackService resolves inbound gateway notifications
type CallbackService interface {
	ResolveCallback(ctx context.Context, params map[string]string) CallbackResult
}

type callbackService struct {
	repo     repository.OrderRepository
	gateway  *vnpay.Client
	producer kafka.OrderProducer
	metrics  metrics.PaymentMetrics
	log      *logger.Logger
}

// NewCallbackService creates a new callback service
func NewCallbackService(
	repo repository.OrderRepository,
	gateway *vnpay.Client,
	producer kafka.OrderProducer,
	m metrics.PaymentMetrics,
	log *logger.Logger,
) CallbackService {
	return &callbackService{
		repo:     repo,
		gateway:  gateway,
		producer: producer,
		metrics:  m,
		log:      log,
	}
}

// ResolveCallback verifies an inbound notification and performs the
// idempotent order transition. Checks run in a fixed order and
// short-circuit: signature, order lookup, amount binding, terminal
// replay, then the response-code branch. The signature check comes
// first; nothing is read or written on unverified input.
func (s *callbackService) ResolveCallback(ctx context.Context, params map[string]string) CallbackResult {
	if !s.gateway.VerifyCallback(params) {
		s.log.Warnw("Callback rejected",
			"error", domain.NewPaymentError(vnpay.IPNCodeChecksumFailed, "signature verification failed", params[vnpay.ParamTxnRef], nil))
		return s.finish(CallbackResult{RspCode: vnpay.IPNCodeChecksumFailed, Message: "Invalid signature"})
	}

	orderID, err := uuid.Parse(params[vnpay.ParamTxnRef])
	if err != nil {
		return s.finish(CallbackResult{RspCode: vnpay.IPNCodeOrderNotFound, Message: "Order not found"})
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(CallbackResult{RspCode: vnpay.IPNCodeOrderNotFound, Message: "Order not found"})
		}
		// A store outage is not a data answer; the gateway must keep
		// redelivering until the lookup can actually run
		s.log.Errorw("Order lookup failed during callback", "error", err, "orderID", orderID)
		return s.finish(CallbackResult{RspCode: vnpay.IPNCodeUnknownError, Message: "Unknown error"})
	}

	// Amount binding guards a valid signature replayed against a
	// different order id
	amount, err := strconv.ParseInt(params[vnpay.ParamAmount], 10, 64)
	if err != nil || amount != vnpay.ScaledAmount(order.Price) {
		s.log.Warnw("Callback rejected",
			"error", domain.NewPaymentError(vnpay.IPNCodeInvalidAmount, "amount does not match the stored price", order.ID.String(), nil),
			"got", params[vnpay.ParamAmount], "want", vnpay.ScaledAmount(order.Price))
		return s.finish(CallbackResult{RspCode: vnpay.IPNCodeInvalidAmount, Message: "Invalid amount"})
	}

	if order.Status.Terminal() {
		return s.finish(CallbackResult{RspCode: vnpay.IPNCodeOrderConfirmed, Message: "Order already confirmed", Order: &order})
	}

	updated, err := s.transition(ctx, order, params[vnpay.ParamResponseCode])
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			// A concurrent delivery won the conditional update; report the
			// state the winner left behind, not our stale pending snapshot
			if settled, getErr := s.repo.GetByID(ctx, order.ID); getErr == nil {
				order = settled
			}
			return s.finish(CallbackResult{RspCode: vnpay.IPNCodeOrderConfirmed, Message: "Order already confirmed", Order: &order})
		}
		// A failed write must never be acknowledged as a transition
		s.log.Errorw("Order transition failed during callback", "error", err, "orderID", orderID)
		return s.finish(CallbackResult{RspCode: vnpay.IPNCodeUnknownError, Message: "Unknown error"})
	}

	return s.finish(CallbackResult{RspCode: vnpay.IPNCodeSuccess, Message: "Confirm Success", Order: &updated})
}

// transition applies the single conditional Pending -> terminal update
func (s *callbackService) transition(ctx context.Context, order domain.Order, responseCode string) (domain.Order, error) {
	if responseCode == vnpay.ResponseCodeSuccess {
		pkg, err := domain.PackageByName(order.Package)
		if err != nil {
			return domain.Order{}, err
		}

		now := time.Now()
		validTo := now.AddDate(0, 0, pkg.Days)

		updated, err := s.repo.TransitionStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderUpdate{
			Status:    domain.OrderStatusSuccess,
			ValidFrom: &now,
			ValidTo:   &validTo,
		})
		if err != nil {
			return domain.Order{}, err
		}

		s.metrics.IncOrderStatus(string(domain.OrderStatusSuccess))
		if err := s.producer.PublishOrderCompleted(ctx, updated); err != nil {
			s.log.Warnw("Failed to publish order completed event", "error", err, "orderID", updated.ID)
		}

		s.log.Infow("Order completed", "orderID", updated.ID, "ownerID", updated.OwnerID, "validTo", validTo)
		return updated, nil
	}

	updated, err := s.repo.TransitionStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderUpdate{
		Status: domain.OrderStatusFailed,
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.IncOrderStatus(string(domain.OrderStatusFailed))
	if err := s.producer.PublishOrderFailed(ctx, updated); err != nil {
		s.log.Warnw("Failed to publish order failed event", "error", err, "orderID", updated.ID)
	}

	s.log.Infow("Order failed", "orderID", updated.ID, "responseCode", responseCode)
	return updated, nil
}

func (s *callbackService) finish(result CallbackResult) CallbackResult {
	s.metrics.IncCallbackResult(result.RspCode)
	return result
}
