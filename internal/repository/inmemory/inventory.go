package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type inventoryRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.InventoryRecord
}

// NewInventoryRepository creates an in-memory inventory repository
func NewInventoryRepository() *inventoryRepository {
	return &inventoryRepository{
		records: make(map[uuid.UUID]*domain.InventoryRecord),
	}
}

func (r *inventoryRepository) GetByVariantID(ctx context.Context, variantID uuid.UUID) (*domain.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[variantID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "inventory_record", ID: variantID.String()}
	}
	cp := *rec
	return &cp, nil
}

func (r *inventoryRepository) Upsert(ctx context.Context, rec *domain.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.UpdatedAt = time.Now()
	cp := *rec
	r.records[rec.VariantID] = &cp
	return nil
}

// Reserve holds the mutex for the whole batch, which gives the same
// all-or-nothing, single-winner semantics as the postgres FOR UPDATE path.
func (r *inventoryRepository) Reserve(ctx context.Context, items []domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate the whole batch before touching any stock
	for _, item := range items {
		rec, ok := r.records[item.VariantID]
		if !ok {
			return &errors.ErrNotFound{Resource: "inventory_record", ID: item.VariantID.String()}
		}
		if !rec.TrackInventory {
			continue
		}
		if rec.Stock < item.Quantity && !rec.AllowBackorder {
			return &errors.ErrInsufficientStock{
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: rec.Stock,
			}
		}
	}

	for _, item := range items {
		rec := r.records[item.VariantID]
		if !rec.TrackInventory {
			continue
		}
		rec.Stock -= item.Quantity
		rec.UpdatedAt = time.Now()
	}
	return nil
}

func (r *inventoryRepository) Release(ctx context.Context, items []domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		rec, ok := r.records[item.VariantID]
		if !ok || !rec.TrackInventory {
			continue
		}
		rec.Stock += item.Quantity
		rec.UpdatedAt = time.Now()
	}
	return nil
}
