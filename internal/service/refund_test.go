package service

import (
	"testing"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successOrder(pkg string, price int64, validFrom, validTo time.Time) domain.Order {
	return domain.Order{
		ID:        uuid.New(),
		OwnerID:   "recruiter-1",
		Package:   pkg,
		Price:     price,
		Status:    domain.OrderStatusSuccess,
		ValidFrom: &validFrom,
		ValidTo:   &validTo,
	}
}

func TestComputeRefundHalfwayThroughOneMonth(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	order := successOrder("1 tháng", 600000, now.AddDate(0, 0, -15), now.AddDate(0, 0, 15))

	refund, err := ComputeRefund(order, now)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), refund)
}

func TestComputeRefundCeilsPartialDays(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	// 14 days and 12 hours remain, counted as 15 days
	order := successOrder("1 tháng", 600000, now, now.Add(14*24*time.Hour+12*time.Hour))

	refund, err := ComputeRefund(order, now)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), refund)
}

func TestComputeRefundZeroAtExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	order := successOrder("1 tháng", 600000, now.AddDate(0, 0, -30), now)

	refund, err := ComputeRefund(order, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), refund)
}

func TestComputeRefundMonotonicNonIncreasing(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	order := successOrder("3 tháng", 1500000, start, start.AddDate(0, 0, 90))

	prev := order.Price
	for hours := 0; hours <= 90*24; hours += 7 {
		now := start.Add(time.Duration(hours) * time.Hour)

		refund, err := ComputeRefund(order, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, refund, prev, "refund must not grow as time advances (t=%v)", now)
		prev = refund
	}
}

func TestComputeRefundRequiresActiveSubscription(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		order domain.Order
	}{
		{
			name: "pending order",
			order: domain.Order{
				Package: "1 tháng",
				Price:   600000,
				Status:  domain.OrderStatusPending,
			},
		},
		{
			name: "failed order",
			order: domain.Order{
				Package: "1 tháng",
				Price:   600000,
				Status:  domain.OrderStatusFailed,
			},
		},
		{
			name:  "expired subscription",
			order: successOrder("1 tháng", 600000, now.AddDate(0, 0, -60), now.AddDate(0, 0, -30)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeRefund(tt.order, now)
			assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
		})
	}
}

func TestComputeRefundSixMonthPackage(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	order := successOrder("6 tháng", 2700000, now, now.AddDate(0, 0, 45))

	refund, err := ComputeRefund(order, now)
	require.NoError(t, err)
	// floor(2700000 * 45 / 180)
	assert.Equal(t, int64(675000), refund)
}
