package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pix-payment-service/internal/clients"
	"pix-payment-service/internal/config"
	"pix-payment-service/internal/events"
	"pix-payment-service/internal/gateway"
	"pix-payment-service/internal/handlers"
	"pix-payment-service/internal/middleware"
	"pix-payment-service/internal/models"
	"pix-payment-service/internal/repository"
	"pix-payment-service/internal/services"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	db, err := connectDatabase(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.PaymentRecord{}); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)

	paymentRepo := repository.NewPaymentRepository(db)
	authCache := repository.NewAuthorizationCache(redisClient, cfg.AuthorizationTTL, logger)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:      cfg.GatewayBaseURL,
		QueryURL:     cfg.GatewayQueryURL,
		AuthURL:      cfg.GatewayAuthURL,
		ClientID:     cfg.GatewayClientID,
		ClientSecret: cfg.GatewayClientSecret,
		Timeout:      cfg.GatewayTimeout,
	}, logger)

	voucherClient := clients.NewVoucherClient(cfg.VoucherServiceURL, logger)
	orderClient := clients.NewOrderClient(cfg.OrderServiceURL, logger)
	forwardingClient := clients.NewForwardingClient(cfg.DefaultCallbackURL, logger)

	// The publisher is optional; a missing broker degrades to log-only.
	var publisher services.EventPublisher
	if cfg.NatsURL != "" {
		natsPublisher, err := events.NewPublisher(cfg.NatsURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
			log.Println("✓ NATS events publisher initialized")
		}
	}

	authorizationService := services.NewAuthorizationService(
		paymentRepo, authCache, gatewayClient, cfg.PlatformMerchantID, cfg.QrExpirationSecs, logger)
	operationsService := services.NewOperationsService(paymentRepo, gatewayClient, publisher, logger)
	notificationService := services.NewNotificationService(paymentRepo, gatewayClient, forwardingClient, publisher, logger)
	refundService := services.NewRefundService(paymentRepo, voucherClient, orderClient, publisher, logger)

	paymentHandler := handlers.NewPaymentHandler(authorizationService, operationsService, refundService, paymentRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)

	router := setupRouter(cfg, logger, paymentHandler, notificationHandler)

	log.Printf("Pix Payment Service starting on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// connectDatabase establishes a connection to the database.
func connectDatabase(databaseURL, environment string) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✓ Connected to database")
	return db, nil
}

// setupRouter configures the HTTP router.
func setupRouter(cfg *config.Config, logger *logrus.Logger, paymentHandler *handlers.PaymentHandler, notificationHandler *handlers.NotificationHandler) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	limits := middleware.NewLimits()

	router.Use(middleware.RequestLog(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ValidateRequest())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "pix-payment-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("/pix",
				middleware.RateLimit(limits.Authorize),
				paymentHandler.CreatePixPayment)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.POST("/:id/cancel",
				middleware.RateLimit(limits.Operation),
				paymentHandler.CancelPayment)
			payments.POST("/:id/settle",
				middleware.RateLimit(limits.Operation),
				paymentHandler.SettlePayment)
			payments.POST("/:id/voucher-refund",
				middleware.RateLimit(limits.Operation),
				paymentHandler.VoucherRefund)
		}
	}

	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.RateLimit(limits.Webhook))
	{
		webhooks.POST("/pix", notificationHandler.HandlePixNotification)
	}

	return router
}
