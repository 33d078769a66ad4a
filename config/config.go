package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	VNPay    VNPayConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig configures the Postgres connection.
// An empty DSN switches the service to the in-memory order store.
type DatabaseConfig struct {
	DSN string
}

// RedisConfig configures the entitlement cache.
// An empty Addr disables caching entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures the order event producer.
// An empty broker list disables event publishing.
type KafkaConfig struct {
	Brokers []string
}

// VNPayConfig holds the merchant-side gateway settings.
// All values are injected explicitly into the components that need them;
// nothing reads the process environment at call time.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	TimeZone   string
}

// AuthConfig configures the recruiter token validation
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level string
}

// Load reads the configuration from environment variables, optionally
// seeded from a .env file outside production.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine, the environment may be set directly
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ReadTimeout:     getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS"),
		},
		VNPay: VNPayConfig{
			TmnCode:    getEnv("VNPAY_TMN_CODE", ""),
			HashSecret: getEnv("VNPAY_HASH_SECRET", ""),
			BaseURL:    getEnv("VNPAY_BASE_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  getEnv("VNPAY_RETURN_URL", "http://localhost:8080/payments/vnpay/return"),
			TimeZone:   getEnv("VNPAY_TIME_ZONE", "Asia/Ho_Chi_Minh"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.VNPay.TmnCode == "" || cfg.VNPay.HashSecret == "" {
		return nil, fmt.Errorf("config: VNPAY_TMN_CODE and VNPAY_HASH_SECRET are required")
	}

	return cfg, nil
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as int with a fallback default
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsSlice reads a comma-separated environment variable
func getEnvAsSlice(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
