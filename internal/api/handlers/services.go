package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/api/middleware"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/service"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

// CheckoutService is what the checkout handler needs from the service layer
type CheckoutService interface {
	Checkout(ctx context.Context, req *service.CheckoutRequest) (*service.CheckoutResult, error)
}

// OrderService is what the order handlers need from the service layer
type OrderService interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	History(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusHistoryEntry, error)
	Transition(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus, actor domain.Actor, comment string) error
}

// ShippingService is what the shipping handlers need from the service layer
type ShippingService interface {
	CalculateRates(ctx context.Context, addressTo domain.Address, items []packing.Item) (*service.RateQuote, error)
	PurchaseLabel(ctx context.Context, orderID uuid.UUID, rateID string) (*domain.Shipment, error)
}

// EventService is what the webhook handlers need from the service layer
type EventService interface {
	HandlePaymentEvent(ctx context.Context, event *service.PaymentEvent) error
	HandleCarrierEvent(ctx context.Context, event *service.CarrierEvent) error
}

// writeError maps service-layer errors to HTTP responses
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrValidation:
		body := gin.H{"error": e.Message}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case *errors.ErrInvalidTransition:
		c.JSON(http.StatusConflict, gin.H{
			"error":   e.Error(),
			"allowed": e.Allowed,
		})
	case *errors.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": e.Message})
	case *errors.ErrInsufficientStock:
		c.JSON(http.StatusConflict, gin.H{
			"error":      e.Error(),
			"variant_id": e.VariantID.String(),
			"requested":  e.Requested,
			"available":  e.Available,
		})
	case *errors.ErrShippingNotAvailable:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": e.Error()})
	case *errors.ErrShippingRate:
		logger.Error("Shipping provider error", zap.Error(err))
		body := gin.H{"error": "shipping provider unavailable"}
		// Admins get the provider's own message so they can diagnose a
		// failed label purchase without provider-console access
		if actor, ok := middleware.GetActorFromContext(c); ok && actor.Role == domain.RoleAdmin {
			body["detail"] = e.Err.Error()
		}
		c.JSON(http.StatusBadGateway, body)
	case *errors.ErrPaymentProvider:
		logger.Error("Payment provider error", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
	default:
		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
