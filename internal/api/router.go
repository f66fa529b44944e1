package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/api/handlers"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/api/middleware"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/carrier"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/payment"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) (*gin.Engine, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	packer := packing.NewPacker(packing.DefaultCatalog())

	origin := domain.Address{
		Name:       cfg.Checkout.Origin.Name,
		Street:     cfg.Checkout.Origin.Street,
		City:       cfg.Checkout.Origin.City,
		State:      cfg.Checkout.Origin.State,
		PostalCode: cfg.Checkout.Origin.PostalCode,
		Country:    cfg.Checkout.Origin.Country,
	}

	carrierClient := carrier.NewClient(cfg.Carrier, logger)
	paymentClient := payment.NewClient(cfg.Payment, logger)
	notifier := service.NewNotifier(cfg.Notify, logger)

	orderSvc := service.NewOrderService(repos, notifier, logger)
	shippingSvc := service.NewShippingService(carrierClient, packer, cfg.Rates, origin, repos, logger)
	checkoutSvc, err := service.NewCheckoutService(repos, shippingSvc, paymentClient, cfg.Checkout.TaxRate, logger)
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}
	eventSvc := service.NewEventService(repos, orderSvc, logger)

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks: authenticated by HMAC signature, not API key
	router.POST("/webhooks/payment", handlers.HandlePaymentWebhook(cfg, eventSvc, logger))
	router.POST("/webhooks/carrier", handlers.HandleCarrierWebhook(cfg, eventSvc, logger))

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.API, logger))
	{
		v1.POST("/checkout", handlers.HandleCheckout(checkoutSvc, logger))
		v1.POST("/shipping/rates", handlers.HandleCalculateRates(shippingSvc, logger))
		v1.GET("/orders/:id", handlers.HandleGetOrder(orderSvc, repos, logger))
		v1.GET("/orders/:id/history", handlers.HandleGetOrderHistory(orderSvc, logger))

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(repos, logger))
			adminRoutes.POST("/orders/:id/transition", handlers.HandleTransitionOrder(orderSvc, logger))
			adminRoutes.POST("/orders/:id/label", handlers.HandlePurchaseLabel(shippingSvc, logger))
		}
	}

	return router, nil
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
