package service

import (
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
)

const day = 24 * time.Hour

// ComputeRefund prorates the order price over the remaining entitlement:
// ceil the remaining days, floor the resulting amount. The order must be
// a success whose window has not ended; at exactly validTo the refund
// is zero.
func ComputeRefund(order domain.Order, now time.Time) (int64, error) {
	if order.Status != domain.OrderStatusSuccess || order.ValidTo == nil || order.ValidTo.Before(now) {
		return 0, domain.ErrNoActiveSubscription
	}

	pkg, err := domain.PackageByName(order.Package)
	if err != nil {
		return 0, err
	}

	remaining := order.ValidTo.Sub(now)
	remainingDays := int64(remaining / day)
	if remaining%day != 0 {
		remainingDays++
	}

	return order.Price * remainingDays / int64(pkg.Days), nil
}
