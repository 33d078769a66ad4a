package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nghia193193/recruitment-payment-service/config"
	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(config.VNPayConfig{
		TmnCode:    "DEMOV210",
		HashSecret: testSecret,
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/payments/vnpay/return",
		TimeZone:   "Asia/Ho_Chi_Minh",
	}, logger.New(logger.ERROR))
	require.NoError(t, err)
	return client
}

func pendingOrder() domain.Order {
	return domain.Order{
		ID:      uuid.New(),
		OwnerID: "recruiter-1",
		Package: "1 tháng",
		Price:   600000,
		Status:  domain.OrderStatusPending,
	}
}

func TestBuildPaymentURLParams(t *testing.T) {
	client := testClient(t)
	order := pendingOrder()
	createdAt := time.Date(2024, 1, 15, 3, 30, 0, 0, time.UTC)

	paymentURL := client.BuildPaymentURL(order, "113.160.92.202", "", createdAt)

	parsed, err := url.Parse(paymentURL)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, Version, q.Get(ParamVersion))
	assert.Equal(t, CommandPay, q.Get(ParamCommand))
	assert.Equal(t, "DEMOV210", q.Get(ParamTmnCode))
	assert.Equal(t, DefaultLocale, q.Get(ParamLocale), "missing locale falls back to vn")
	assert.Equal(t, CurrencyCode, q.Get(ParamCurrCode))
	assert.Equal(t, order.ID.String(), q.Get(ParamTxnRef))
	assert.Contains(t, q.Get(ParamOrderInfo), order.ID.String())
	assert.Equal(t, "60000000", q.Get(ParamAmount), "price scaled by the minor-unit multiplier")
	assert.Equal(t, "113.160.92.202", q.Get(ParamIPAddr))
	assert.NotEmpty(t, q.Get(SecureHashField))

	// 03:30 UTC is 10:30 in the merchant's time zone
	assert.Equal(t, "20240115103000", q.Get(ParamCreateDate))
}

func TestBuildPaymentURLKeepsExplicitLocale(t *testing.T) {
	client := testClient(t)

	paymentURL := client.BuildPaymentURL(pendingOrder(), "1.2.3.4", "en", time.Now())

	parsed, err := url.Parse(paymentURL)
	require.NoError(t, err)
	assert.Equal(t, "en", parsed.Query().Get(ParamLocale))
}

func TestBuildPaymentURLRoundTripVerifies(t *testing.T) {
	client := testClient(t)

	paymentURL := client.BuildPaymentURL(pendingOrder(), "113.160.92.202", "vn", time.Now())

	query := paymentURL[strings.Index(paymentURL, "?")+1:]
	values, err := url.ParseQuery(query)
	require.NoError(t, err)

	params := make(map[string]string, len(values))
	for k, v := range values {
		params[k] = v[0]
	}

	assert.True(t, client.VerifyCallback(params),
		"a URL signed by the builder must verify with the same secret")

	// Any mutation of a signed parameter must break verification
	params[ParamAmount] = "1"
	assert.False(t, client.VerifyCallback(params))
}

func TestNewClientRejectsUnknownTimeZone(t *testing.T) {
	_, err := NewClient(config.VNPayConfig{
		TmnCode:    "DEMOV210",
		HashSecret: testSecret,
		TimeZone:   "Mars/Olympus_Mons",
	}, logger.New(logger.ERROR))
	assert.Error(t, err)
}

func TestScaledAmount(t *testing.T) {
	assert.Equal(t, int64(60000000), ScaledAmount(600000))
}
