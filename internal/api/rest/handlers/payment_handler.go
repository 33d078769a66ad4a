package handlers

import (
	"errors"
	"net/http"

	"github.com/nghia193193/recruitment-payment-service/internal/api/rest/middleware"
	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/internal/service"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentHandler serves the owner-facing payment endpoints
type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(svc service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		log:     log,
	}
}

// CreatePayment creates a pending order and returns the gateway
// redirect URL
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing owner identity"})
		return
	}

	var req domain.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, paymentURL, err := h.service.CreatePaymentRequest(c.Request.Context(), ownerID, req, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPackage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown premium package"})
			return
		}
		h.log.Error("Failed to create payment request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":       order,
		"payment_url": paymentURL,
	})
}

// GetOrders returns the owner's order history
func (h *PaymentHandler) GetOrders(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing owner identity"})
		return
	}

	orders, err := h.service.GetOrders(c.Request.Context(), ownerID)
	if err != nil {
		h.log.Error("Failed to list orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetSubscription returns the owner's active subscription, if any
func (h *PaymentHandler) GetSubscription(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing owner identity"})
		return
	}

	order, err := h.service.GetActiveSubscription(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		h.log.Error("Failed to get subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelSubscription cancels the active subscription with a prorated
// refund
func (h *PaymentHandler) CancelSubscription(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing owner identity"})
		return
	}

	var req domain.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, err := h.service.CancelSubscription(c.Request.Context(), ownerID, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSubscription) {
			c.JSON(http.StatusConflict, gin.H{"error": "No active subscription to cancel"})
			return
		}
		h.log.Error("Failed to cancel subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetPackages returns the static premium package catalog
func (h *PaymentHandler) GetPackages(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Packages())
}
