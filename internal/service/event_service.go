package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

// Payment provider event types
const (
	PaymentEventCaptured = "payment_intent.captured"
	PaymentEventFailed   = "payment_intent.failed"
)

// Carrier tracking statuses reported by webhook
const (
	CarrierTrackingInTransit = "in_transit"
	CarrierTrackingDelivered = "delivered"
)

// PaymentEvent is the parsed payment-provider webhook payload
type PaymentEvent struct {
	EventID  string `json:"event_id" binding:"required"`
	Type     string `json:"type" binding:"required"`
	IntentID string `json:"intent_id" binding:"required"`
}

// CarrierEvent is the parsed carrier webhook payload
type CarrierEvent struct {
	EventID      string `json:"event_id" binding:"required"`
	Type         string `json:"type" binding:"required"`
	TrackingCode string `json:"tracking_code" binding:"required"`
	Status       string `json:"status"`
}

type eventService struct {
	repos  *repository.Repositories
	orders *orderService
	logger *zap.Logger
}

// NewEventService creates the webhook event processor
func NewEventService(repos *repository.Repositories, orders *orderService, logger *zap.Logger) *eventService {
	return &eventService{
		repos:  repos,
		orders: orders,
		logger: logger,
	}
}

// HandlePaymentEvent processes one payment-provider delivery, exactly once
// per event id. A returned error means the delivery was recorded but not
// completed; the provider should redeliver.
func (s *eventService) HandlePaymentEvent(ctx context.Context, event *PaymentEvent) error {
	return s.process(ctx, domain.EventSourcePayment, event.EventID, event.Type, func(ctx context.Context) error {
		switch event.Type {
		case PaymentEventCaptured:
			return s.paymentCaptured(ctx, event.IntentID)
		case PaymentEventFailed:
			return s.paymentFailed(ctx, event.IntentID)
		default:
			s.logger.Info("Ignoring unhandled payment event type",
				zap.String("event_id", event.EventID),
				zap.String("type", event.Type))
			return nil
		}
	})
}

// HandleCarrierEvent processes one carrier tracking delivery, exactly once
// per event id
func (s *eventService) HandleCarrierEvent(ctx context.Context, event *CarrierEvent) error {
	return s.process(ctx, domain.EventSourceCarrier, event.EventID, event.Type, func(ctx context.Context) error {
		switch event.Status {
		case CarrierTrackingInTransit:
			return s.trackingUpdate(ctx, event.TrackingCode, domain.ShipmentStatusInTransit, domain.OrderStatusInTransit)
		case CarrierTrackingDelivered:
			return s.trackingUpdate(ctx, event.TrackingCode, domain.ShipmentStatusDelivered, domain.OrderStatusDelivered)
		default:
			s.logger.Info("Ignoring unhandled carrier tracking status",
				zap.String("event_id", event.EventID),
				zap.String("status", event.Status))
			return nil
		}
	})
}

// process is the record-then-execute idempotency gate shared by both
// sources. The unique (source, event_id) constraint is what makes two
// concurrent deliveries of the same event safe: exactly one Create wins,
// the loser acks without executing.
func (s *eventService) process(ctx context.Context, source domain.EventSource, eventID, eventType string, execute func(context.Context) error) error {
	existing, err := s.repos.WebhookEvent.GetBySourceAndEventID(ctx, source, eventID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Processed {
		s.logger.Info("Duplicate event delivery, already processed",
			zap.String("source", string(source)),
			zap.String("event_id", eventID))
		return nil
	}

	var record *domain.WebhookEvent
	if existing != nil {
		// A prior delivery recorded the event but failed mid-execution;
		// this redelivery retries it.
		record = existing
	} else {
		record = &domain.WebhookEvent{
			ID:        uuid.New(),
			Source:    source,
			EventID:   eventID,
			EventType: eventType,
		}
		if err := s.repos.WebhookEvent.Create(ctx, record); err != nil {
			if _, conflict := err.(*errors.ErrConflict); conflict {
				s.logger.Info("Concurrent duplicate event delivery, skipping",
					zap.String("source", string(source)),
					zap.String("event_id", eventID))
				return nil
			}
			return err
		}
	}

	if err := execute(ctx); err != nil {
		s.logger.Error("Event processing failed",
			zap.String("source", string(source)),
			zap.String("event_id", eventID),
			zap.String("type", eventType),
			zap.Error(err))
		if recErr := s.repos.WebhookEvent.RecordFailure(ctx, record.ID, err.Error()); recErr != nil {
			s.logger.Error("Failed to record event failure", zap.Error(recErr))
		}
		return err
	}

	return s.repos.WebhookEvent.MarkProcessed(ctx, record.ID)
}

func (s *eventService) paymentCaptured(ctx context.Context, intentID string) error {
	order, err := s.repos.Order.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		return err
	}
	if err := s.orders.Transition(ctx, order.ID, domain.OrderStatusPaid, domain.SystemActor, "payment captured"); err != nil {
		// A replayed capture on an already-paid order is not a failure
		if _, invalid := err.(*errors.ErrInvalidTransition); invalid && order.Status != domain.OrderStatusPending {
			s.logger.Info("Capture event for order past PENDING, ignoring",
				zap.String("order_id", order.ID.String()),
				zap.String("status", string(order.Status)))
			return nil
		}
		return err
	}
	return s.updatePaymentStatus(ctx, intentID, domain.PaymentStatusCaptured)
}

func (s *eventService) paymentFailed(ctx context.Context, intentID string) error {
	order, err := s.repos.Order.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusPending {
		s.logger.Info("Failure event for order past PENDING, ignoring",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)))
		return nil
	}
	if err := s.orders.Transition(ctx, order.ID, domain.OrderStatusCancelled, domain.SystemActor, "payment failed"); err != nil {
		return err
	}
	return s.updatePaymentStatus(ctx, intentID, domain.PaymentStatusFailed)
}

func (s *eventService) updatePaymentStatus(ctx context.Context, intentID string, status domain.PaymentStatus) error {
	payment, err := s.repos.Payment.GetByIntentID(ctx, intentID)
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); notFound {
			return nil
		}
		return err
	}
	return s.repos.Payment.UpdateStatus(ctx, payment.ID, status)
}

func (s *eventService) trackingUpdate(ctx context.Context, trackingCode string, shipStatus domain.ShipmentStatus, orderStatus domain.OrderStatus) error {
	shipment, err := s.repos.Shipment.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return err
	}
	if !shipment.Active {
		s.logger.Info("Tracking update for inactive shipment, ignoring",
			zap.String("tracking_code", trackingCode))
		return nil
	}
	if err := s.repos.Shipment.UpdateStatus(ctx, shipment.ID, shipStatus); err != nil {
		return err
	}

	err = s.orders.Transition(ctx, shipment.OrderID, orderStatus, domain.SystemActor, "carrier tracking update")
	if err != nil {
		// Out-of-order carrier events: an IN_TRANSIT scan arriving after
		// delivery must not fail the delivery
		if _, invalid := err.(*errors.ErrInvalidTransition); invalid {
			s.logger.Info("Tracking update arrived out of order, ignoring",
				zap.String("tracking_code", trackingCode),
				zap.String("target", string(orderStatus)))
			return nil
		}
		return err
	}
	return nil
}
