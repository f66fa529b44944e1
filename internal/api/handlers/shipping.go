package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
)

// RatesRequest is the "quote shipping for this cart" payload
type RatesRequest struct {
	ShippingAddress domain.Address `json:"shipping_address" binding:"required"`
	Items           []RatesItem    `json:"items" binding:"required,min=1,dive"`
}

type RatesItem struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	LengthCm  float64   `json:"length_cm" binding:"required,gt=0"`
	WidthCm   float64   `json:"width_cm" binding:"required,gt=0"`
	HeightCm  float64   `json:"height_cm" binding:"required,gt=0"`
	WeightKg  float64   `json:"weight_kg" binding:"required,gt=0"`
}

type RateResponse struct {
	RateID        string              `json:"rate_id"`
	Carrier       string              `json:"carrier"`
	Service       string              `json:"service"`
	Amount        string              `json:"amount"`
	Currency      string              `json:"currency"`
	EstimatedDays int                 `json:"estimated_days,omitempty"`
	Category      domain.RateCategory `json:"category"`
}

// PurchaseLabelRequest selects the rate to buy for an order
type PurchaseLabelRequest struct {
	RateID string `json:"rate_id" binding:"required"`
}

type ShipmentResponse struct {
	ID           string                `json:"id"`
	OrderID      string                `json:"order_id"`
	Carrier      string                `json:"carrier"`
	Service      string                `json:"service"`
	TrackingCode string                `json:"tracking_code"`
	LabelURL     string                `json:"label_url"`
	Status       domain.ShipmentStatus `json:"status"`
}

// HandleCalculateRates handles POST /v1/shipping/rates
func HandleCalculateRates(shipping ShippingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RatesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		items := make([]packing.Item, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, packing.Item{
				VariantID: item.VariantID,
				LengthCm:  item.LengthCm,
				WidthCm:   item.WidthCm,
				HeightCm:  item.HeightCm,
				WeightKg:  item.WeightKg,
				Quantity:  item.Quantity,
			})
		}

		quote, err := shipping.CalculateRates(c.Request.Context(), req.ShippingAddress, items)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"parcels":  quote.Parcels,
			"standard": rateResponses(quote.Standard),
			"express":  rateResponses(quote.Express),
		})
	}
}

// HandlePurchaseLabel handles POST /v1/admin/orders/:id/label
func HandlePurchaseLabel(shipping ShippingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req PurchaseLabelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		shipment, err := shipping.PurchaseLabel(c.Request.Context(), orderID, req.RateID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, ShipmentResponse{
			ID:           shipment.ID.String(),
			OrderID:      shipment.OrderID.String(),
			Carrier:      shipment.Carrier,
			Service:      shipment.Service,
			TrackingCode: shipment.TrackingCode,
			LabelURL:     shipment.LabelURL,
			Status:       shipment.Status,
		})
	}
}

func rateResponses(rates []domain.ShippingRate) []RateResponse {
	out := make([]RateResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, RateResponse{
			RateID:        rate.RateID,
			Carrier:       rate.Carrier,
			Service:       rate.Service,
			Amount:        rate.Amount.StringFixed(2),
			Currency:      rate.Currency,
			EstimatedDays: rate.EstimatedDays,
			Category:      rate.Category,
		})
	}
	return out
}
