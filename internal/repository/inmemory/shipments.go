package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type shipmentRepository struct {
	mu        sync.Mutex
	shipments map[uuid.UUID]*domain.Shipment
}

// NewShipmentRepository creates an in-memory shipment repository
func NewShipmentRepository() *shipmentRepository {
	return &shipmentRepository{
		shipments: make(map[uuid.UUID]*domain.Shipment),
	}
}

func (r *shipmentRepository) Create(ctx context.Context, shipment *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	if shipment.CreatedAt.IsZero() {
		shipment.CreatedAt = now
	}
	shipment.UpdatedAt = now

	cp := *shipment
	r.shipments[shipment.ID] = &cp
	return nil
}

func (r *shipmentRepository) GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *domain.Shipment
	for _, s := range r.shipments {
		if s.OrderID == orderID && s.Active {
			if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, &errors.ErrNotFound{Resource: "shipment", ID: orderID.String()}
	}
	cp := *latest
	return &cp, nil
}

func (r *shipmentRepository) GetByTrackingCode(ctx context.Context, trackingCode string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.shipments {
		if s.TrackingCode == trackingCode {
			cp := *s
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "shipment", ID: trackingCode}
}

func (r *shipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ShipmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shipments[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "shipment", ID: id.String()}
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

type paymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*domain.Payment
}

// NewPaymentRepository creates an in-memory payment repository
func NewPaymentRepository() *paymentRepository {
	return &paymentRepository{
		payments: make(map[uuid.UUID]*domain.Payment),
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.IntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "payment", ID: intentID}
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "payment", ID: id.String()}
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}
