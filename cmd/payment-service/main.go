package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nghia193193/recruitment-payment-service/config"
	"github.com/nghia193193/recruitment-payment-service/internal/api/rest"
	"github.com/nghia193193/recruitment-payment-service/internal/api/rest/handlers"
	"github.com/nghia193193/recruitment-payment-service/internal/api/rest/middleware"
	"github.com/nghia193193/recruitment-payment-service/internal/kafka"
	"github.com/nghia193193/recruitment-payment-service/internal/metrics"
	"github.com/nghia193193/recruitment-payment-service/internal/repository"
	"github.com/nghia193193/recruitment-payment-service/internal/service"
	"github.com/nghia193193/recruitment-payment-service/internal/vnpay"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.INFO).Fatal("Failed to load configuration: %v", err)
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))
	log.Infow("Payment service starting up", "env", cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Order store: Postgres when a DSN is configured, in-memory otherwise
	var orderRepo repository.OrderRepository
	if cfg.Database.DSN != "" {
		pgRepo, err := repository.NewPostgresOrderRepository(ctx, cfg.Database.DSN, log)
		if err != nil {
			log.Fatalw("Failed to connect to Postgres", "error", err)
		}
		defer pgRepo.Close()
		orderRepo = pgRepo
	} else {
		log.Warnw("DATABASE_DSN is empty, using the in-memory order store")
		orderRepo = repository.NewInMemoryOrderRepository(log)
	}

	// Entitlement cache is optional
	if cfg.Redis.Addr != "" {
		cache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatalw("Failed to connect to Redis", "error", err)
		}
		defer cache.Close()
		orderRepo = repository.NewCachedOrderRepository(orderRepo, cache, log)
	}

	// Order event publishing is optional
	var producer kafka.OrderProducer = kafka.NoopOrderProducer{}
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := kafka.NewOrderProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Fatalw("Failed to initialize Kafka producer", "error", err)
		}
		defer p.Close()
		producer = p
	}

	gateway, err := vnpay.NewClient(cfg.VNPay, log)
	if err != nil {
		log.Fatalw("Failed to initialize gateway client", "error", err)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry, log)

	paymentService := service.NewPaymentService(orderRepo, gateway, producer, paymentMetrics, log)
	callbackService := service.NewCallbackService(orderRepo, gateway, producer, paymentMetrics, log)

	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, log)
	if err != nil {
		log.Fatalw("Failed to initialize auth middleware", "error", err)
	}

	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	callbackHandler := handlers.NewCallbackHandler(callbackService, gateway, log)

	router := rest.SetupRouter(paymentHandler, callbackHandler, authMiddleware, registry, log)
	server := rest.NewServer(router, cfg, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalw("Server stopped unexpectedly", "error", err)
		}
	case sig := <-quit:
		log.Infow("Shutdown signal received", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}

	log.Info("Payment service stopped")
}
