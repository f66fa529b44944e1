package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, number, status, currency, subtotal, tax, shipping, discount, total,
	customer_id, shipping_address, billing_address, packing_result,
	quoted_rate_id, payment_intent_id, client_reference, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem, payment *domain.Payment) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}
	billingJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return err
	}
	var packingJSON []byte
	if order.PackingResult != nil {
		if packingJSON, err = json.Marshal(order.PackingResult); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		order.ID,
		order.Number,
		order.Status,
		order.Currency,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Discount,
		order.Total,
		order.CustomerID,
		shippingJSON,
		billingJSON,
		packingJSON,
		order.QuotedRateID,
		order.PaymentIntentID,
		order.ClientReference,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "order already exists for this client reference"}
		}
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, variant_id, sku, name, unit_price, quantity,
				line_total, length_cm, width_cm, height_cm, weight_kg, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			item.ID,
			item.OrderID,
			item.VariantID,
			item.SKU,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
			item.LengthCm,
			item.WidthCm,
			item.HeightCm,
			item.WeightKg,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err), zap.String("sku", item.SKU))
			return err
		}
	}

	// Initial history entry in the same transaction
	_, err = tx.ExecContext(ctx, `
		INSERT INTO status_history (id, order_id, status, actor, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), order.ID, order.Status, order.CustomerID, "order created", now)
	if err != nil {
		r.logger.Error("Failed to create initial history entry", zap.Error(err))
		return err
	}

	// The payment record commits with the order so a capture webhook always
	// finds a row to update
	if payment != nil {
		if payment.ID == uuid.Nil {
			payment.ID = uuid.New()
		}
		payment.OrderID = order.ID
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = now
		}
		payment.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, order_id, provider, intent_id, amount, currency, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			payment.ID,
			payment.OrderID,
			payment.Provider,
			payment.IntentID,
			payment.Amount,
			payment.Currency,
			payment.Status,
			payment.CreatedAt,
			payment.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create payment record", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := r.scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
	order, err := r.scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: number}
	}
	if err != nil {
		r.logger.Error("Failed to get order by number", zap.Error(err), zap.String("number", number))
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	if intentID == "" {
		return nil, &errors.ErrNotFound{Resource: "order", ID: "payment_intent_id empty"}
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1 LIMIT 1`, intentID)
	order, err := r.scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: intentID}
	}
	if err != nil {
		r.logger.Error("Failed to get order by payment intent ID", zap.Error(err), zap.String("intent_id", intentID))
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByClientReference(ctx context.Context, ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, &errors.ErrNotFound{Resource: "order", ID: "client_reference empty"}
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE client_reference = $1 LIMIT 1`, ref)
	order, err := r.scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: ref}
	}
	if err != nil {
		r.logger.Error("Failed to get order by client reference", zap.Error(err), zap.String("client_reference", ref))
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

func (r *orderRepository) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, customerID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders by customer ID", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

func (r *orderRepository) ItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, variant_id, sku, name, unit_price, quantity,
			line_total, length_cm, width_cm, height_cm, weight_kg, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		r.logger.Error("Failed to get order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.VariantID,
			&item.SKU,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
			&item.LengthCm,
			&item.WidthCm,
			&item.HeightCm,
			&item.WeightKg,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// UpdateStatus compare-and-swaps the order status and appends the history
// entry in one transaction. A concurrent transition that already moved the
// order away from `from` makes the CAS affect zero rows, which is surfaced
// as ErrConflict. The release adjustments ride in the same transaction: if
// putting stock back fails, the status change rolls back with it and the
// caller can retry the whole transition.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, entry *domain.StatusHistoryEntry, release []domain.StockAdjustment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, from, to, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrConflict{Message: "order status changed concurrently"}
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.OrderID = id
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO status_history (id, order_id, status, actor, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.OrderID, entry.Status, entry.Actor, entry.Comment, entry.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to append status history", zap.Error(err))
		return err
	}

	for _, adj := range release {
		_, err := tx.ExecContext(ctx, `
			UPDATE inventory_records
			SET stock = stock + $2, updated_at = $3
			WHERE variant_id = $1 AND track_inventory
		`, adj.VariantID, adj.Quantity, time.Now())
		if err != nil {
			r.logger.Error("Failed to release stock with status update",
				zap.Error(err), zap.String("variant_id", adj.VariantID.String()))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) HistoryByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, actor, comment, created_at
		FROM status_history
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		r.logger.Error("Failed to get status history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.StatusHistoryEntry
	for rows.Next() {
		var e domain.StatusHistoryEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Actor, &e.Comment, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *orderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var shippingJSON, billingJSON []byte
	var packingJSON []byte
	var quotedRateID sql.NullString
	var paymentIntentID sql.NullString
	var clientReference sql.NullString

	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.Status,
		&order.Currency,
		&order.Subtotal,
		&order.Tax,
		&order.Shipping,
		&order.Discount,
		&order.Total,
		&order.CustomerID,
		&shippingJSON,
		&billingJSON,
		&packingJSON,
		&quotedRateID,
		&paymentIntentID,
		&clientReference,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if quotedRateID.Valid {
		order.QuotedRateID = &quotedRateID.String
	}
	if paymentIntentID.Valid {
		order.PaymentIntentID = &paymentIntentID.String
	}
	if clientReference.Valid {
		order.ClientReference = &clientReference.String
	}
	if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billingJSON, &order.BillingAddress); err != nil {
		return nil, err
	}
	if len(packingJSON) > 0 {
		var pr domain.PackingResult
		if err := json.Unmarshal(packingJSON, &pr); err != nil {
			return nil, err
		}
		order.PackingResult = &pr
	}

	return &order, nil
}

func (r *orderRepository) collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
