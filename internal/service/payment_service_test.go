package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nghia193193/recruitment-payment-service/config"
	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/internal/metrics"
	"github.com/nghia193193/recruitment-payment-service/internal/repository"
	"github.com/nghia193193/recruitment-payment-service/internal/vnpay"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "VNPAYSECRETKEY123456"

// eventRecorder captures published order events for assertions
type eventRecorder struct {
	mu     sync.Mutex
	events map[string][]domain.Order
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{events: make(map[string][]domain.Order)}
}

func (r *eventRecorder) record(topic string, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[topic] = append(r.events[topic], order)
	return nil
}

func (r *eventRecorder) published(topic string) []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[topic]
}

func (r *eventRecorder) PublishOrderCreated(_ context.Context, o domain.Order) error {
	return r.record("order.created", o)
}
func (r *eventRecorder) PublishOrderCompleted(_ context.Context, o domain.Order) error {
	return r.record("order.completed", o)
}
func (r *eventRecorder) PublishOrderFailed(_ context.Context, o domain.Order) error {
	return r.record("order.failed", o)
}
func (r *eventRecorder) PublishOrderCancelled(_ context.Context, o domain.Order) error {
	return r.record("order.cancelled", o)
}
func (r *eventRecorder) Close() error { return nil }

type testEnv struct {
	repo     *repository.InMemoryOrderRepository
	gateway  *vnpay.Client
	producer *eventRecorder
	payments PaymentService
	callback CallbackService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.New(logger.ERROR)

	gateway, err := vnpay.NewClient(config.VNPayConfig{
		TmnCode:    "DEMOV210",
		HashSecret: testSecret,
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/payments/vnpay/return",
		TimeZone:   "Asia/Ho_Chi_Minh",
	}, log)
	require.NoError(t, err)

	repo := repository.NewInMemoryOrderRepository(log)
	producer := newEventRecorder()
	m := metrics.NewPaymentMetrics(prometheus.NewRegistry(), log)

	return &testEnv{
		repo:     repo,
		gateway:  gateway,
		producer: producer,
		payments: NewPaymentService(repo, gateway, producer, m, log),
		callback: NewCallbackService(repo, gateway, producer, m, log),
	}
}

func TestCreatePaymentRequestUnknownPackage(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.payments.CreatePaymentRequest(context.Background(), "recruiter-1",
		domain.PaymentRequest{Package: "12 tháng"}, "1.2.3.4")
	assert.ErrorIs(t, err, domain.ErrInvalidPackage)

	orders, err := env.payments.GetOrders(context.Background(), "recruiter-1")
	require.NoError(t, err)
	assert.Empty(t, orders, "a rejected request must not create an order")
}

func TestCreatePaymentRequestCreatesPendingOrder(t *testing.T) {
	env := newTestEnv(t)

	order, paymentURL, err := env.payments.CreatePaymentRequest(context.Background(), "recruiter-1",
		domain.PaymentRequest{Package: "1 tháng"}, "113.160.92.202")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(600000), order.Price, "price comes from the static catalog")
	assert.Equal(t, "recruiter-1", order.OwnerID)
	assert.Nil(t, order.ValidTo)

	stored, err := env.repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)

	parsed, err := url.Parse(paymentURL)
	require.NoError(t, err)
	assert.Equal(t, order.ID.String(), parsed.Query().Get(vnpay.ParamTxnRef))
	assert.True(t, strings.HasPrefix(paymentURL, "https://sandbox.vnpayment.vn/"))

	assert.Len(t, env.producer.published("order.created"), 1)
}

func TestGetActiveSubscriptionNone(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.payments.GetActiveSubscription(context.Background(), "recruiter-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
}

func TestCancelSubscriptionRefundsAndTerminates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := completeOrder(t, env, "recruiter-1", "1 tháng")

	cancelled, err := env.payments.CancelSubscription(ctx, "recruiter-1", "switching plans")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "switching plans", cancelled.CancelReason)
	require.NotNil(t, cancelled.RefundAmount)
	// The full window remains, so the refund is the full price
	assert.Equal(t, order.Price, *cancelled.RefundAmount)

	assert.Len(t, env.producer.published("order.cancelled"), 1)

	// A second cancellation finds nothing active
	_, err = env.payments.CancelSubscription(ctx, "recruiter-1", "again")
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
}

func TestCancelSubscriptionNeverFromPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.payments.CreatePaymentRequest(ctx, "recruiter-1",
		domain.PaymentRequest{Package: "1 tháng"}, "1.2.3.4")
	require.NoError(t, err)

	_, err = env.payments.CancelSubscription(ctx, "recruiter-1", "changed my mind")
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
}

// completeOrder drives a fresh order through a successful callback
func completeOrder(t *testing.T, env *testEnv, ownerID, pkg string) domain.Order {
	t.Helper()
	ctx := context.Background()

	order, _, err := env.payments.CreatePaymentRequest(ctx, ownerID,
		domain.PaymentRequest{Package: pkg}, "1.2.3.4")
	require.NoError(t, err)

	result := env.callback.ResolveCallback(ctx, signedCallback(order, vnpay.ResponseCodeSuccess))
	require.Equal(t, vnpay.IPNCodeSuccess, result.RspCode)
	require.NotNil(t, result.Order)
	require.Equal(t, domain.OrderStatusSuccess, result.Order.Status)

	return *result.Order
}

// signedCallback builds a valid IPN parameter set for an order
func signedCallback(order domain.Order, responseCode string) map[string]string {
	params := map[string]string{
		vnpay.ParamTmnCode:      "DEMOV210",
		vnpay.ParamTxnRef:       order.ID.String(),
		vnpay.ParamAmount:       strconv.FormatInt(vnpay.ScaledAmount(order.Price), 10),
		vnpay.ParamResponseCode: responseCode,
		"vnp_BankCode":          "NCB",
		"vnp_PayDate":           time.Now().Format("20060102150405"),
	}
	params[vnpay.SecureHashField] = vnpay.Sign(params, testSecret)
	params[vnpay.SecureHashTypeField] = "HmacSHA512"
	return params
}
