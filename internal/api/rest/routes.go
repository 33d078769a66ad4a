package rest

import (
	"github.com/nghia193193/recruitment-payment-service/internal/api/rest/handlers"
	"github.com/nghia193193/recruitment-payment-service/internal/api/rest/middleware"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires the gin router with routes and middleware
func SetupRouter(
	paymentHandler *handlers.PaymentHandler,
	callbackHandler *handlers.CallbackHandler,
	auth *middleware.AuthMiddleware,
	registry *prometheus.Registry,
	log *logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Owner-facing API, requires an authenticated recruiter
	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireOwner())
	{
		v1.GET("/packages", paymentHandler.GetPackages)
		v1.POST("/payments", paymentHandler.CreatePayment)
		v1.GET("/orders", paymentHandler.GetOrders)
		v1.GET("/subscription", paymentHandler.GetSubscription)
		v1.POST("/subscription/cancel", paymentHandler.CancelSubscription)
	}

	// Gateway-facing endpoints, authenticated by signature instead of
	// bearer tokens
	payments := r.Group("/payments/vnpay")
	{
		payments.GET("/ipn", callbackHandler.HandleIPN)
		payments.GET("/return", callbackHandler.HandleReturn)
	}

	return r
}
