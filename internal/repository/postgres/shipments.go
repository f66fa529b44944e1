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

type shipmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShipmentRepository creates a new shipment repository
func NewShipmentRepository(db *sql.DB, logger *zap.Logger) *shipmentRepository {
	return &shipmentRepository{
		db:     db,
		logger: logger,
	}
}

const shipmentColumns = `id, order_id, carrier, service, tracking_code, label_url, status, active, created_at, updated_at`

func (r *shipmentRepository) Create(ctx context.Context, shipment *domain.Shipment) error {
	now := time.Now()
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	if shipment.CreatedAt.IsZero() {
		shipment.CreatedAt = now
	}
	shipment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shipments (`+shipmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		shipment.ID,
		shipment.OrderID,
		shipment.Carrier,
		shipment.Service,
		shipment.TrackingCode,
		shipment.LabelURL,
		shipment.Status,
		shipment.Active,
		shipment.CreatedAt,
		shipment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create shipment", zap.Error(err))
		return err
	}

	return nil
}

func (r *shipmentRepository) GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE order_id = $1 AND active
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)

	shipment, err := r.scanShipment(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shipment", ID: orderID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get active shipment", zap.Error(err))
		return nil, err
	}
	return shipment, nil
}

func (r *shipmentRepository) GetByTrackingCode(ctx context.Context, trackingCode string) (*domain.Shipment, error) {
	if trackingCode == "" {
		return nil, &errors.ErrNotFound{Resource: "shipment", ID: "tracking_code empty"}
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE tracking_code = $1
		LIMIT 1
	`, trackingCode)

	shipment, err := r.scanShipment(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shipment", ID: trackingCode}
	}
	if err != nil {
		r.logger.Error("Failed to get shipment by tracking code", zap.Error(err), zap.String("tracking_code", trackingCode))
		return nil, err
	}
	return shipment, nil
}

func (r *shipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ShipmentStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update shipment status", zap.Error(err))
		return err
	}
	return nil
}

func (r *shipmentRepository) scanShipment(row rowScanner) (*domain.Shipment, error) {
	var s domain.Shipment
	err := row.Scan(
		&s.ID,
		&s.OrderID,
		&s.Carrier,
		&s.Service,
		&s.TrackingCode,
		&s.LabelURL,
		&s.Status,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
