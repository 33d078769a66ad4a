package handlers

import (
	"net/http"

	"github.com/nghia193193/recruitment-payment-service/internal/service"
	"github.com/nghia193193/recruitment-payment-service/internal/vnpay"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CallbackHandler serves the gateway-facing endpoints: the IPN
// notification and the browser return URL.
type CallbackHandler struct {
	service service.CallbackService
	gateway *vnpay.Client
	log     *logger.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(svc service.CallbackService, gateway *vnpay.Client, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{
		service: svc,
		gateway: gateway,
		log:     log,
	}
}

// HandleIPN resolves the gateway's server-to-server notification. The
// gateway delivers at least once and retries on anything but an HTTP
// 200 with a JSON body, so every outcome is answered with 200 and the
// protocol result code.
func (h *CallbackHandler) HandleIPN(c *gin.Context) {
	params := queryToMap(c)

	result := h.service.ResolveCallback(c.Request.Context(), params)

	h.log.Infow("Resolved gateway IPN", "rspCode", result.RspCode, "txnRef", params[vnpay.ParamTxnRef])
	c.JSON(http.StatusOK, gin.H{
		"RspCode": result.RspCode,
		"Message": result.Message,
	})
}

// HandleReturn serves the browser redirect back from the gateway. It
// only reports the outcome to the user; the IPN endpoint is the
// authoritative state transition.
func (h *CallbackHandler) HandleReturn(c *gin.Context) {
	params := queryToMap(c)

	if !h.gateway.VerifyCallback(params) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	responseCode := params[vnpay.ParamResponseCode]
	c.JSON(http.StatusOK, gin.H{
		"order_id":      params[vnpay.ParamTxnRef],
		"response_code": responseCode,
		"success":       responseCode == vnpay.ResponseCodeSuccess,
	})
}

// queryToMap flattens the request query into the parameter map the
// signature engine expects. Repeated keys keep the first value.
func queryToMap(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
