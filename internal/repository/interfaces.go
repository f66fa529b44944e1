package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

// OrderRepository defines order data access methods. Status changes go
// through UpdateStatus only, which compare-and-swaps on the current status
// and appends the history entry in the same transaction. Create returns
// ErrConflict when the order's client reference is already taken.
type OrderRepository interface {
	// Create persists the order, its items, the initial history entry and,
	// when non-nil, the payment record in one transaction.
	Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error)
	GetByClientReference(ctx context.Context, ref string) (*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*domain.Order, error)
	ItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
	// UpdateStatus moves the order from `from` to `to`, appends the history
	// entry, and applies the stock release (nil when no stock returns) in one
	// transaction, so a terminal status and its release commit or fail
	// together. Returns ErrConflict if the order is no longer in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, entry *domain.StatusHistoryEntry, release []domain.StockAdjustment) error
	HistoryByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusHistoryEntry, error)
}

// InventoryRepository defines the inventory ledger's atomic operations.
// Reserve is all-or-nothing across the batch; Release does not deduplicate,
// the caller owns exactly-once semantics.
type InventoryRepository interface {
	GetByVariantID(ctx context.Context, variantID uuid.UUID) (*domain.InventoryRecord, error)
	Upsert(ctx context.Context, rec *domain.InventoryRecord) error
	Reserve(ctx context.Context, items []domain.StockAdjustment) error
	Release(ctx context.Context, items []domain.StockAdjustment) error
}

// PaymentRepository defines payment record data access methods
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
}

// ShipmentRepository defines shipment data access methods
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *domain.Shipment) error
	GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error)
	GetByTrackingCode(ctx context.Context, trackingCode string) (*domain.Shipment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ShipmentStatus) error
}

// WebhookEventRepository deduplicates provider events by (source, event_id).
// Create must return ErrConflict when the pair already exists so that two
// concurrent deliveries of the same event cannot both proceed.
type WebhookEventRepository interface {
	GetBySourceAndEventID(ctx context.Context, source domain.EventSource, eventID string) (*domain.WebhookEvent, error)
	Create(ctx context.Context, event *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Order        OrderRepository
	Inventory    InventoryRepository
	Payment      PaymentRepository
	Shipment     ShipmentRepository
	WebhookEvent WebhookEventRepository
}
