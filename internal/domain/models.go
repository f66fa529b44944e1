package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is a point-in-time snapshot stored on the order (JSONB)
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Order is the authoritative order entity. Money fields are immutable after
// creation; corrections happen via refund records, not mutation.
type Order struct {
	ID              uuid.UUID
	Number          string // human-readable, e.g. ORD-7F3A92C1
	Status          OrderStatus
	Currency        string
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	CustomerID      string
	ShippingAddress Address
	BillingAddress  Address
	PackingResult   *PackingResult // JSONB audit blob; set at checkout
	QuotedRateID    *string        // carrier rate id cached from checkout quote
	PaymentIntentID *string
	ClientReference *string // storefront's idempotency reference, unique when set
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TotalsBalanced checks the money invariant:
// total == subtotal + tax + shipping - discount
func (o *Order) TotalsBalanced() bool {
	sum := o.Subtotal.Add(o.Tax).Add(o.Shipping).Sub(o.Discount)
	return o.Total.Equal(sum) && !o.Total.IsNegative()
}

// OrderItem is a snapshot of the purchased variant taken at order-creation
// time, decoupled from the live catalog
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	VariantID uuid.UUID
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
	// Physical dimensions in cm / kg, used by the parcel packer
	LengthCm  float64
	WidthCm   float64
	HeightCm  float64
	WeightKg  float64
	CreatedAt time.Time
}

// InventoryRecord tracks per-variant stock. Mutated only through the
// inventory repository's atomic operations.
type InventoryRecord struct {
	VariantID         uuid.UUID
	SKU               string
	Stock             int
	TrackInventory    bool
	AllowBackorder    bool
	LowStockThreshold int
	UpdatedAt         time.Time
}

// StockAdjustment is one line of a reserve/release batch
type StockAdjustment struct {
	VariantID uuid.UUID
	Quantity  int
}

// Payment records a payment intent created for an order
type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Provider  string
	IntentID  string
	Amount    decimal.Decimal
	Currency  string
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentIntent is the provider's response to intent creation
type PaymentIntent struct {
	IntentID     string
	ClientSecret string
}

// Shipment is created when a label is purchased. At most one active shipment
// per order drives tracking-status webhooks.
type Shipment struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	Carrier      string
	Service      string
	TrackingCode string
	LabelURL     string
	Status       ShipmentStatus
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Label is the carrier's response to a label purchase
type Label struct {
	TrackingCode string
	LabelURL     string
	Carrier      string
	Service      string
}

// StatusHistoryEntry is one row of the order's append-only status log
type StatusHistoryEntry struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    OrderStatus
	Actor     string
	Comment   string
	CreatedAt time.Time
}

// WebhookEvent deduplicates provider deliveries by (source, event_id).
// Rows are never deleted; they are the audit trail of external events.
type WebhookEvent struct {
	ID         uuid.UUID
	Source     EventSource
	EventID    string // the provider's idempotency key
	EventType  string
	Processed  bool
	RetryCount int
	LastError  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Parcel is one physical package produced by the packer, bound to a catalog
// box (or the unit's own dimensions when oversized)
type Parcel struct {
	BoxID     string       `json:"box_id"`
	BoxName   string       `json:"box_name"`
	LengthCm  float64      `json:"length_cm"`
	WidthCm   float64      `json:"width_cm"`
	HeightCm  float64      `json:"height_cm"`
	WeightKg  float64      `json:"weight_kg"`
	Oversized bool         `json:"oversized,omitempty"`
	Contents  []ParcelItem `json:"contents"`
}

// ParcelItem is the (variant, quantity) manifest line of a parcel
type ParcelItem struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// PackingResult is stored on the order so admin tooling can purchase a label
// against the same parcel breakdown that was quoted
type PackingResult struct {
	Parcels  []Parcel  `json:"parcels"`
	PackedAt time.Time `json:"packed_at"`
}

// ShippingRate is an ephemeral carrier quote, valid for a short window
type ShippingRate struct {
	RateID        string
	Carrier       string
	Service       string
	Amount        decimal.Decimal
	Currency      string
	EstimatedDays int
	Category      RateCategory
}
