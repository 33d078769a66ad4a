package vnpay

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nghia193193/recruitment-payment-service/config"
	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"
)

// Protocol constants of the pay command
const (
	Version       = "2.1.0"
	CommandPay    = "pay"
	CurrencyCode  = "VND"
	DefaultLocale = "vn"
	OrderTypeCode = "270000" // recruitment services category

	// createDateLayout is yyyyMMddHHmmss in the merchant time zone
	createDateLayout = "20060102150405"

	// amountMultiplier scales VND into the gateway's minor unit
	amountMultiplier = 100
)

// Gateway parameter names
const (
	ParamVersion      = "vnp_Version"
	ParamCommand      = "vnp_Command"
	ParamTmnCode      = "vnp_TmnCode"
	ParamLocale       = "vnp_Locale"
	ParamCurrCode     = "vnp_CurrCode"
	ParamTxnRef       = "vnp_TxnRef"
	ParamOrderInfo    = "vnp_OrderInfo"
	ParamOrderType    = "vnp_OrderType"
	ParamAmount       = "vnp_Amount"
	ParamReturnURL    = "vnp_ReturnUrl"
	ParamIPAddr       = "vnp_IpAddr"
	ParamCreateDate   = "vnp_CreateDate"
	ParamResponseCode = "vnp_ResponseCode"
)

// ResponseCodeSuccess is the gateway response code for a completed payment
const ResponseCodeSuccess = "00"

// IPN result codes returned to the gateway from the callback endpoint
const (
	IPNCodeSuccess        = "00"
	IPNCodeOrderNotFound  = "01"
	IPNCodeOrderConfirmed = "02"
	IPNCodeInvalidAmount  = "04"
	IPNCodeChecksumFailed = "97"
	IPNCodeUnknownError   = "99"
)

// Client builds signed gateway requests for one merchant account. It is
// stateless and safe for concurrent use.
type Client struct {
	tmnCode    string
	hashSecret string
	baseURL    string
	returnURL  string
	loc        *time.Location
	log        *logger.Logger
}

// NewClient creates a gateway client from the merchant configuration.
// The time zone is resolved once here; vnp_CreateDate must always be
// rendered in the merchant's local time.
func NewClient(cfg config.VNPayConfig, log *logger.Logger) (*Client, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("vnpay: invalid time zone %q: %w", cfg.TimeZone, err)
	}

	return &Client{
		tmnCode:    cfg.TmnCode,
		hashSecret: cfg.HashSecret,
		baseURL:    cfg.BaseURL,
		returnURL:  cfg.ReturnURL,
		loc:        loc,
		log:        log,
	}, nil
}

// BuildPaymentURL assembles, signs and serializes the redirect URL for a
// pending order. No network I/O happens here; the caller redirects the
// browser to the returned URL.
func (c *Client) BuildPaymentURL(order domain.Order, clientIP, locale string, createdAt time.Time) string {
	if locale == "" {
		locale = DefaultLocale
	}

	params := map[string]string{
		ParamVersion:    Version,
		ParamCommand:    CommandPay,
		ParamTmnCode:    c.tmnCode,
		ParamLocale:     locale,
		ParamCurrCode:   CurrencyCode,
		ParamTxnRef:     order.ID.String(),
		ParamOrderInfo:  fmt.Sprintf("Thanh toan goi Premium cho don hang %s", order.ID),
		ParamOrderType:  OrderTypeCode,
		ParamAmount:     strconv.FormatInt(order.Price*amountMultiplier, 10),
		ParamReturnURL:  c.returnURL,
		ParamIPAddr:     clientIP,
		ParamCreateDate: createdAt.In(c.loc).Format(createDateLayout),
	}

	c.log.Debugw("Built gateway payment params", "orderID", order.ID, "amount", params[ParamAmount])

	return c.baseURL + "?" + SignedQuery(params, c.hashSecret)
}

// VerifyCallback checks the signature of an inbound parameter set. The
// reserved hash fields are stripped before recomputation.
func (c *Client) VerifyCallback(params map[string]string) bool {
	return Verify(params, params[SecureHashField], c.hashSecret)
}

// ScaledAmount converts an order price into the gateway amount field
func ScaledAmount(price int64) int64 {
	return price * amountMultiplier
}
