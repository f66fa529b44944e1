package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

// CarrierProvider is the narrow interface to the carrier-rate provider,
// satisfied by carrier.Client
type CarrierProvider interface {
	Quote(ctx context.Context, from, to domain.Address, parcels []domain.Parcel) ([]domain.ShippingRate, error)
	PurchaseLabel(ctx context.Context, rateID string) (*domain.Label, error)
}

// PaymentProvider is the narrow interface to the payment provider,
// satisfied by payment.Client
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*domain.PaymentIntent, error)
}

// Notifier delivers customer notifications. Implementations are
// fire-and-forget; state transitions never block on them.
type Notifier interface {
	Notify(event string, order *domain.Order)
}
