package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type webhookEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *sql.DB, logger *zap.Logger) *webhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookEventRepository) GetBySourceAndEventID(ctx context.Context, source domain.EventSource, eventID string) (*domain.WebhookEvent, error) {
	query := `
		SELECT id, source, event_id, event_type, processed, retry_count, last_error, created_at, updated_at
		FROM webhook_events
		WHERE source = $1 AND event_id = $2
	`

	var ev domain.WebhookEvent
	var lastError sql.NullString

	err := r.db.QueryRowContext(ctx, query, source, eventID).Scan(
		&ev.ID,
		&ev.Source,
		&ev.EventID,
		&ev.EventType,
		&ev.Processed,
		&ev.RetryCount,
		&lastError,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get webhook event", zap.Error(err))
		return nil, err
	}

	if lastError.Valid {
		ev.LastError = &lastError.String
	}

	return &ev, nil
}

// Create inserts the event record. The UNIQUE(source, event_id) constraint
// turns a concurrent duplicate delivery into ErrConflict instead of a second
// business-logic execution.
func (r *webhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (id, source, event_id, event_type, processed, retry_count, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Source,
		event.EventID,
		event.EventType,
		event.Processed,
		event.RetryCount,
		event.LastError,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "webhook event already recorded"}
		}
		r.logger.Error("Failed to create webhook event", zap.Error(err))
		return err
	}

	return nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_events
		SET processed = TRUE, updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark webhook event processed", zap.Error(err))
		return err
	}
	return nil
}

func (r *webhookEventRepository) RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_events
		SET retry_count = retry_count + 1, last_error = $2, updated_at = $3
		WHERE id = $1
	`, id, lastError, time.Now())
	if err != nil {
		r.logger.Error("Failed to record webhook event failure", zap.Error(err))
		return err
	}
	return nil
}
