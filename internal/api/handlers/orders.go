package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/api/middleware"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
)

// OrderResponse represents the order response
type OrderResponse struct {
	ID              string                `json:"id"`
	Number          string                `json:"number"`
	Status          domain.OrderStatus    `json:"status"`
	Currency        string                `json:"currency"`
	Subtotal        string                `json:"subtotal"`
	Tax             string                `json:"tax"`
	Shipping        string                `json:"shipping"`
	Discount        string                `json:"discount"`
	Total           string                `json:"total"`
	CustomerID      string                `json:"customer_id"`
	ShippingAddress domain.Address        `json:"shipping_address"`
	BillingAddress  domain.Address        `json:"billing_address"`
	PackingResult   *domain.PackingResult `json:"packing_result,omitempty"`
	QuotedRateID    *string               `json:"quoted_rate_id,omitempty"`
	PaymentIntentID *string               `json:"payment_intent_id,omitempty"`
	Items           []OrderItemResponse   `json:"items,omitempty"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

type OrderItemResponse struct {
	VariantID string `json:"variant_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type HistoryEntryResponse struct {
	Status    domain.OrderStatus `json:"status"`
	Actor     string             `json:"actor"`
	Comment   string             `json:"comment,omitempty"`
	CreatedAt string             `json:"created_at"`
}

// TransitionRequest is the admin "move this order" payload
type TransitionRequest struct {
	Target  domain.OrderStatus `json:"target" binding:"required"`
	Comment string             `json:"comment"`
}

func orderResponse(order *domain.Order, items []*domain.OrderItem) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID.String(),
		Number:          order.Number,
		Status:          order.Status,
		Currency:        order.Currency,
		Subtotal:        order.Subtotal.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		Shipping:        order.Shipping.StringFixed(2),
		Discount:        order.Discount.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		CustomerID:      order.CustomerID,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		PackingResult:   order.PackingResult,
		QuotedRateID:    order.QuotedRateID,
		PaymentIntentID: order.PaymentIntentID,
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       order.UpdatedAt.Format(time.RFC3339),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, OrderItemResponse{
			VariantID: item.VariantID.String(),
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}
	return resp
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(orders OrderService, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := orders.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		// Customers can only read their own orders
		actor, _ := middleware.GetActorFromContext(c)
		if actor.Role == domain.RoleCustomer && order.CustomerID != actor.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		items, err := repos.Order.ItemsByOrderID(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, orderResponse(order, items))
	}
}

// HandleGetOrderHistory handles GET /v1/orders/:id/history
func HandleGetOrderHistory(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		entries, err := orders.History(c.Request.Context(), orderID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		out := make([]HistoryEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, HistoryEntryResponse{
				Status:    e.Status,
				Actor:     e.Actor,
				Comment:   e.Comment,
				CreatedAt: e.CreatedAt.Format(time.RFC3339),
			})
		}
		c.JSON(http.StatusOK, gin.H{"history": out})
	}
}

// HandleListOrders handles GET /v1/admin/orders
func HandleListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntQuery(c, "limit", 50)
		offset := parseIntQuery(c, "offset", 0)
		if limit < 1 || limit > 200 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		var orders []*domain.Order
		var err error
		if customerID := c.Query("customer_id"); customerID != "" {
			orders, err = repos.Order.ListByCustomerID(c.Request.Context(), customerID, limit, offset)
		} else {
			status := domain.OrderStatus(c.Query("status"))
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "status or customer_id query parameter required"})
				return
			}
			orders, err = repos.Order.ListByStatus(c.Request.Context(), status, limit, offset)
		}
		if err != nil {
			logger.Error("Failed to list orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		out := make([]OrderResponse, 0, len(orders))
		for _, order := range orders {
			out = append(out, orderResponse(order, nil))
		}
		c.JSON(http.StatusOK, gin.H{
			"orders": out,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// HandleTransitionOrder handles POST /v1/admin/orders/:id/transition
func HandleTransitionOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		if !req.Target.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + string(req.Target)})
			return
		}

		actor, ok := middleware.GetActorFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := orders.Transition(c.Request.Context(), orderID, req.Target, actor, req.Comment); err != nil {
			writeError(c, logger, err)
			return
		}

		order, err := orders.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(order, nil))
	}
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
