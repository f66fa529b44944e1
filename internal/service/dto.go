package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
)

// CheckoutItem is one cart line presented to checkout
type CheckoutItem struct {
	VariantID uuid.UUID       `json:"variant_id" binding:"required"`
	SKU       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	LengthCm  float64         `json:"length_cm" binding:"required,gt=0"`
	WidthCm   float64         `json:"width_cm" binding:"required,gt=0"`
	HeightCm  float64         `json:"height_cm" binding:"required,gt=0"`
	WeightKg  float64         `json:"weight_kg" binding:"required,gt=0"`
}

// CheckoutRequest is the "create purchase" payload. ClientReference is the
// storefront's idempotency token: a request replayed with the same reference
// returns the order it already created instead of creating another.
type CheckoutRequest struct {
	CustomerID      string          `json:"customer_id" binding:"required"`
	ClientReference string          `json:"client_reference"`
	Currency        string          `json:"currency" binding:"required,len=3"`
	Items           []CheckoutItem  `json:"items" binding:"required,min=1,dive"`
	ShippingAddress domain.Address  `json:"shipping_address" binding:"required"`
	BillingAddress  domain.Address  `json:"billing_address"`
	Discount        decimal.Decimal `json:"discount"`
}

// CheckoutResult is returned to the storefront so it can confirm the payment
type CheckoutResult struct {
	OrderID       uuid.UUID             `json:"order_id"`
	OrderNumber   string                `json:"order_number"`
	Status        domain.OrderStatus    `json:"status"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Tax           decimal.Decimal       `json:"tax"`
	Shipping      decimal.Decimal       `json:"shipping"`
	Discount      decimal.Decimal       `json:"discount"`
	Total         decimal.Decimal       `json:"total"`
	Currency      string                `json:"currency"`
	IntentID      string                `json:"intent_id"`
	ClientSecret  string                `json:"client_secret"`
	Parcels       []domain.Parcel       `json:"parcels"`
	ShippingRates []domain.ShippingRate `json:"shipping_rates"`
}

// PackingItems converts checkout items to packer input
func PackingItems(items []CheckoutItem) []packing.Item {
	out := make([]packing.Item, 0, len(items))
	for _, item := range items {
		out = append(out, packing.Item{
			VariantID: item.VariantID,
			LengthCm:  item.LengthCm,
			WidthCm:   item.WidthCm,
			HeightCm:  item.HeightCm,
			WeightKg:  item.WeightKg,
			Quantity:  item.Quantity,
		})
	}
	return out
}
