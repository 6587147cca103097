package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pix payment service.
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Payment gateway (Cielo-compatible split API)
	GatewayBaseURL      string
	GatewayQueryURL     string
	GatewayAuthURL      string
	GatewayClientID     string
	GatewayClientSecret string
	GatewayTimeout      time.Duration

	// Split defaults
	PlatformMerchantID string
	QrExpirationSecs   int

	// Collaborator services
	VoucherServiceURL  string
	OrderServiceURL    string
	DefaultCallbackURL string

	// Events
	NatsURL string

	// Authorization replay cache
	AuthorizationTTL time.Duration
}

// buildDatabaseURL constructs the database URL from individual components
// unless DATABASE_URL is set explicitly.
func buildDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "pix_payments")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}

// Load loads configuration from the environment. A local .env file is
// applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	config := &Config{
		Port:        getEnv("PORT", "8093"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: buildDatabaseURL(),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		GatewayBaseURL:      getEnv("GATEWAY_BASE_URL", "https://apisandbox.cieloecommerce.cielo.com.br"),
		GatewayQueryURL:     getEnv("GATEWAY_QUERY_URL", "https://apiquerysandbox.cieloecommerce.cielo.com.br"),
		GatewayAuthURL:      getEnv("GATEWAY_AUTH_URL", "https://authsandbox.braspag.com.br/oauth2/token"),
		GatewayClientID:     getEnv("GATEWAY_CLIENT_ID", ""),
		GatewayClientSecret: getEnv("GATEWAY_CLIENT_SECRET", ""),
		GatewayTimeout:      getDuration("GATEWAY_TIMEOUT", 30*time.Second),

		PlatformMerchantID: getEnv("PLATFORM_MERCHANT_ID", ""),
		QrExpirationSecs:   getInt("QR_EXPIRATION_SECS", 86400),

		VoucherServiceURL:  getEnv("VOUCHER_SERVICE_URL", "http://voucher-service:8080"),
		OrderServiceURL:    getEnv("ORDER_SERVICE_URL", "http://order-service:8080"),
		DefaultCallbackURL: getEnv("DEFAULT_CALLBACK_URL", ""),

		NatsURL: getEnv("NATS_URL", ""),

		AuthorizationTTL: getDuration("AUTHORIZATION_TTL", 24*time.Hour),
	}

	if config.GatewayClientID == "" || config.GatewayClientSecret == "" {
		log.Fatal("GATEWAY_CLIENT_ID and GATEWAY_CLIENT_SECRET are required")
	}
	if config.PlatformMerchantID == "" {
		log.Fatal("PLATFORM_MERCHANT_ID is required")
	}

	return config
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid value for %s, using default", key)
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid value for %s, using default", key)
		return defaultValue
	}
	return parsed
}
