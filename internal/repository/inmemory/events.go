package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type eventKey struct {
	source  domain.EventSource
	eventID string
}

type webhookEventRepository struct {
	mu     sync.Mutex
	byKey  map[eventKey]uuid.UUID
	events map[uuid.UUID]*domain.WebhookEvent
}

// NewWebhookEventRepository creates an in-memory webhook event repository
func NewWebhookEventRepository() *webhookEventRepository {
	return &webhookEventRepository{
		byKey:  make(map[eventKey]uuid.UUID),
		events: make(map[uuid.UUID]*domain.WebhookEvent),
	}
}

func (r *webhookEventRepository) GetBySourceAndEventID(ctx context.Context, source domain.EventSource, eventID string) (*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byKey[eventKey{source, eventID}]
	if !ok {
		return nil, nil
	}
	cp := *r.events[id]
	return &cp, nil
}

func (r *webhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := eventKey{event.Source, event.EventID}
	if _, exists := r.byKey[key]; exists {
		return &errors.ErrConflict{Message: "webhook event already recorded"}
	}

	now := time.Now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	cp := *event
	r.byKey[key] = event.ID
	r.events[event.ID] = &cp
	return nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "webhook_event", ID: id.String()}
	}
	ev.Processed = true
	ev.UpdatedAt = time.Now()
	return nil
}

func (r *webhookEventRepository) RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "webhook_event", ID: id.String()}
	}
	ev.RetryCount++
	ev.LastError = &lastError
	ev.UpdatedAt = time.Now()
	return nil
}
