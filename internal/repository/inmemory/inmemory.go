// Package inmemory provides mutex-guarded in-memory repositories with the
// same semantics as the postgres implementations. They back unit tests and
// local runs without a database.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

// NewRepositories creates all in-memory repositories. The order repository
// is wired to the inventory and payment stores so Create and UpdateStatus
// can mirror the postgres single-transaction behavior.
func NewRepositories() *repository.Repositories {
	inventory := NewInventoryRepository()
	payments := NewPaymentRepository()
	orders := NewOrderRepository()
	orders.inventory = inventory
	orders.payments = payments
	return &repository.Repositories{
		Order:        orders,
		Inventory:    inventory,
		Payment:      payments,
		Shipment:     NewShipmentRepository(),
		WebhookEvent: NewWebhookEventRepository(),
	}
}

type orderRepository struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	items     map[uuid.UUID][]*domain.OrderItem
	history   map[uuid.UUID][]*domain.StatusHistoryEntry
	inventory *inventoryRepository
	payments  *paymentRepository
}

// NewOrderRepository creates an in-memory order repository
func NewOrderRepository() *orderRepository {
	return &orderRepository{
		orders:  make(map[uuid.UUID]*domain.Order),
		items:   make(map[uuid.UUID][]*domain.OrderItem),
		history: make(map[uuid.UUID][]*domain.StatusHistoryEntry),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ClientReference != nil && *order.ClientReference != "" {
		for _, existing := range r.orders {
			if existing.ClientReference != nil && *existing.ClientReference == *order.ClientReference {
				return &errors.ErrConflict{Message: "order already exists for this client reference"}
			}
		}
	}

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	cp := *order
	r.orders[order.ID] = &cp
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		ic := *item
		r.items[order.ID] = append(r.items[order.ID], &ic)
	}
	r.history[order.ID] = append(r.history[order.ID], &domain.StatusHistoryEntry{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    order.Status,
		Actor:     order.CustomerID,
		Comment:   "order created",
		CreatedAt: now,
	})
	if payment != nil && r.payments != nil {
		payment.OrderID = order.ID
		if err := r.payments.Create(ctx, payment); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	cp := *order
	return &cp, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range r.orders {
		if order.Number == number {
			cp := *order
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: number}
}

func (r *orderRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range r.orders {
		if order.PaymentIntentID != nil && *order.PaymentIntentID == intentID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: intentID}
}

func (r *orderRepository) GetByClientReference(ctx context.Context, ref string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range r.orders {
		if order.ClientReference != nil && *order.ClientReference == ref {
			cp := *order
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: ref}
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Order
	for _, order := range r.orders {
		if order.Status == status {
			cp := *order
			out = append(out, &cp)
		}
	}
	sortOrders(out)
	return paginate(out, limit, offset), nil
}

func (r *orderRepository) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			cp := *order
			out = append(out, &cp)
		}
	}
	sortOrders(out)
	return paginate(out, limit, offset), nil
}

func (r *orderRepository) ItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*domain.OrderItem, 0, len(r.items[orderID]))
	for _, item := range r.items[orderID] {
		cp := *item
		items = append(items, &cp)
	}
	return items, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, entry *domain.StatusHistoryEntry, release []domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if order.Status != from {
		return &errors.ErrConflict{Message: "order status changed concurrently"}
	}
	order.Status = to
	order.UpdatedAt = time.Now()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.OrderID = id
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	ec := *entry
	r.history[id] = append(r.history[id], &ec)

	if len(release) > 0 && r.inventory != nil {
		return r.inventory.Release(ctx, release)
	}
	return nil
}

func (r *orderRepository) HistoryByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*domain.StatusHistoryEntry, 0, len(r.history[orderID]))
	for _, e := range r.history[orderID] {
		cp := *e
		entries = append(entries, &cp)
	}
	return entries, nil
}

func sortOrders(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func paginate(orders []*domain.Order, limit, offset int) []*domain.Order {
	if offset >= len(orders) {
		return nil
	}
	orders = orders[offset:]
	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders
}
