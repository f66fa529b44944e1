package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type inventoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *sql.DB, logger *zap.Logger) *inventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *inventoryRepository) GetByVariantID(ctx context.Context, variantID uuid.UUID) (*domain.InventoryRecord, error) {
	query := `
		SELECT variant_id, sku, stock, track_inventory, allow_backorder, low_stock_threshold, updated_at
		FROM inventory_records
		WHERE variant_id = $1
	`

	var rec domain.InventoryRecord
	err := r.db.QueryRowContext(ctx, query, variantID).Scan(
		&rec.VariantID,
		&rec.SKU,
		&rec.Stock,
		&rec.TrackInventory,
		&rec.AllowBackorder,
		&rec.LowStockThreshold,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "inventory_record", ID: variantID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory record", zap.Error(err))
		return nil, err
	}

	return &rec, nil
}

func (r *inventoryRepository) Upsert(ctx context.Context, rec *domain.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (variant_id, sku, stock, track_inventory, allow_backorder, low_stock_threshold, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (variant_id) DO UPDATE
		SET sku = EXCLUDED.sku, stock = EXCLUDED.stock, track_inventory = EXCLUDED.track_inventory,
			allow_backorder = EXCLUDED.allow_backorder, low_stock_threshold = EXCLUDED.low_stock_threshold,
			updated_at = EXCLUDED.updated_at
	`

	rec.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		rec.VariantID,
		rec.SKU,
		rec.Stock,
		rec.TrackInventory,
		rec.AllowBackorder,
		rec.LowStockThreshold,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert inventory record", zap.Error(err))
		return err
	}

	return nil
}

// Reserve decrements stock for every item in one transaction. Rows are locked
// with FOR UPDATE so two concurrent checkouts of the last unit serialize; the
// loser sees the decremented stock and gets ErrInsufficientStock. If any item
// is short the whole transaction rolls back. Rows are locked in variant-id
// order so two batches over the same variants cannot deadlock.
func (r *inventoryRepository) Reserve(ctx context.Context, items []domain.StockAdjustment) error {
	batch := make([]domain.StockAdjustment, len(items))
	copy(batch, items)
	sort.Slice(batch, func(i, j int) bool {
		return bytes.Compare(batch[i].VariantID[:], batch[j].VariantID[:]) < 0
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range batch {
		var stock int
		var track, backorder bool
		err := tx.QueryRowContext(ctx, `
			SELECT stock, track_inventory, allow_backorder
			FROM inventory_records
			WHERE variant_id = $1
			FOR UPDATE
		`, item.VariantID).Scan(&stock, &track, &backorder)
		if err == sql.ErrNoRows {
			return &errors.ErrNotFound{Resource: "inventory_record", ID: item.VariantID.String()}
		}
		if err != nil {
			r.logger.Error("Failed to lock inventory record", zap.Error(err), zap.String("variant_id", item.VariantID.String()))
			return err
		}

		if !track {
			continue
		}
		if stock < item.Quantity && !backorder {
			return &errors.ErrInsufficientStock{
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: stock,
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE inventory_records
			SET stock = stock - $2, updated_at = $3
			WHERE variant_id = $1
		`, item.VariantID, item.Quantity, time.Now())
		if err != nil {
			r.logger.Error("Failed to decrement stock", zap.Error(err), zap.String("variant_id", item.VariantID.String()))
			return err
		}
	}

	return tx.Commit()
}

// Release increments stock back for a prior reservation. It does not
// deduplicate; the order state machine guards against double release.
func (r *inventoryRepository) Release(ctx context.Context, items []domain.StockAdjustment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			UPDATE inventory_records
			SET stock = stock + $2, updated_at = $3
			WHERE variant_id = $1 AND track_inventory
		`, item.VariantID, item.Quantity, time.Now())
		if err != nil {
			r.logger.Error("Failed to release stock", zap.Error(err), zap.String("variant_id", item.VariantID.String()))
			return err
		}
	}

	return tx.Commit()
}
