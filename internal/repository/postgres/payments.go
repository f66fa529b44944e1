package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type paymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) *paymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	now := time.Now()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
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
		r.logger.Error("Failed to create payment", zap.Error(err))
		return err
	}

	return nil
}

func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	if intentID == "" {
		return nil, &errors.ErrNotFound{Resource: "payment", ID: "intent_id empty"}
	}

	var p domain.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, provider, intent_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE intent_id = $1
		LIMIT 1
	`, intentID).Scan(
		&p.ID,
		&p.OrderID,
		&p.Provider,
		&p.IntentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "payment", ID: intentID}
	}
	if err != nil {
		r.logger.Error("Failed to get payment by intent ID", zap.Error(err), zap.String("intent_id", intentID))
		return nil, err
	}

	return &p, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update payment status", zap.Error(err))
		return err
	}
	return nil
}
