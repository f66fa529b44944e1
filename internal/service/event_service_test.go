package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
)

func newEventFixture(t *testing.T) (*repository.Repositories, *eventService) {
	t.Helper()
	repos := newTestRepos()
	orders := NewOrderService(repos, &fakeNotifier{}, zap.NewNop())
	return repos, NewEventService(repos, orders, zap.NewNop())
}

func seedPaidableOrder(t *testing.T, repos *repository.Repositories, intentID string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:              uuid.New(),
		Number:          "ORD-EVENT001",
		Status:          domain.OrderStatusPending,
		Currency:        "CAD",
		Subtotal:        decimal.RequireFromString("40.00"),
		Tax:             decimal.Zero,
		Shipping:        decimal.Zero,
		Discount:        decimal.Zero,
		Total:           decimal.RequireFromString("40.00"),
		CustomerID:      "cust-1",
		PaymentIntentID: &intentID,
	}
	require.NoError(t, repos.Order.Create(context.Background(), order, nil, &domain.Payment{
		Provider: "payment",
		IntentID: intentID,
		Amount:   order.Total,
		Currency: "CAD",
		Status:   domain.PaymentStatusPending,
	}))
	return order
}

func TestPaymentCapturedMovesOrderToPaid(t *testing.T) {
	repos, svc := newEventFixture(t)
	order := seedPaidableOrder(t, repos, "pi_123")

	err := svc.HandlePaymentEvent(context.Background(), &PaymentEvent{
		EventID:  "evt_1",
		Type:     PaymentEventCaptured,
		IntentID: "pi_123",
	})
	require.NoError(t, err)

	got, err := repos.Order.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, got.Status)

	payment, err := repos.Payment.GetByIntentID(context.Background(), "pi_123")
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusCaptured, payment.Status)

	record, err := repos.WebhookEvent.GetBySourceAndEventID(context.Background(), domain.EventSourcePayment, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.True(t, record.Processed)
}

func TestPaymentEventReplayExecutesOnce(t *testing.T) {
	repos, svc := newEventFixture(t)
	order := seedPaidableOrder(t, repos, "pi_replay")

	event := &PaymentEvent{EventID: "evt_dup", Type: PaymentEventCaptured, IntentID: "pi_replay"}
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), event))
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), event))
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), event))

	history, err := repos.Order.HistoryByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2) // creation + one PAID transition
}

func TestPaymentFailedCancelsPendingOrder(t *testing.T) {
	repos, svc := newEventFixture(t)
	order := seedPaidableOrder(t, repos, "pi_fail")

	err := svc.HandlePaymentEvent(context.Background(), &PaymentEvent{
		EventID:  "evt_fail",
		Type:     PaymentEventFailed,
		IntentID: "pi_fail",
	})
	require.NoError(t, err)

	got, err := repos.Order.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, got.Status)
}

func TestPaymentEventUnknownIntentFailsAndRecords(t *testing.T) {
	repos, svc := newEventFixture(t)

	event := &PaymentEvent{EventID: "evt_orphan", Type: PaymentEventCaptured, IntentID: "pi_missing"}
	err := svc.HandlePaymentEvent(context.Background(), event)
	require.Error(t, err)

	record, err := repos.WebhookEvent.GetBySourceAndEventID(context.Background(), domain.EventSourcePayment, "evt_orphan")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.False(t, record.Processed)
	require.Equal(t, 1, record.RetryCount)
	require.NotNil(t, record.LastError)

	// The order arrives late, then the provider redelivers the same event
	seedPaidableOrder(t, repos, "pi_missing")
	require.NoError(t, svc.HandlePaymentEvent(context.Background(), event))

	record, err = repos.WebhookEvent.GetBySourceAndEventID(context.Background(), domain.EventSourcePayment, "evt_orphan")
	require.NoError(t, err)
	require.True(t, record.Processed)
}

func TestPaymentEventUnknownTypeIsAcked(t *testing.T) {
	repos, svc := newEventFixture(t)

	err := svc.HandlePaymentEvent(context.Background(), &PaymentEvent{
		EventID:  "evt_other",
		Type:     "payment_intent.created",
		IntentID: "pi_whatever",
	})
	require.NoError(t, err)

	record, err := repos.WebhookEvent.GetBySourceAndEventID(context.Background(), domain.EventSourcePayment, "evt_other")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.True(t, record.Processed)
}

func seedShippedOrderWithShipment(t *testing.T, repos *repository.Repositories, trackingCode string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:         uuid.New(),
		Number:     "ORD-SHIP0001",
		Status:     domain.OrderStatusShipped,
		Currency:   "CAD",
		Subtotal:   decimal.RequireFromString("60.00"),
		Tax:        decimal.Zero,
		Shipping:   decimal.Zero,
		Discount:   decimal.Zero,
		Total:      decimal.RequireFromString("60.00"),
		CustomerID: "cust-2",
	}
	require.NoError(t, repos.Order.Create(context.Background(), order, nil, nil))
	require.NoError(t, repos.Shipment.Create(context.Background(), &domain.Shipment{
		OrderID:      order.ID,
		Carrier:      "testcarrier",
		Service:      "Ground",
		TrackingCode: trackingCode,
		Status:       domain.ShipmentStatusLabelCreated,
		Active:       true,
	}))
	return order
}

func TestCarrierDeliveredEvent(t *testing.T) {
	repos, svc := newEventFixture(t)
	order := seedShippedOrderWithShipment(t, repos, "TRK-1")

	event := &CarrierEvent{
		EventID:      "trk_evt_1",
		Type:         "tracking.updated",
		TrackingCode: "TRK-1",
		Status:       CarrierTrackingDelivered,
	}
	require.NoError(t, svc.HandleCarrierEvent(context.Background(), event))

	got, err := repos.Order.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDelivered, got.Status)

	shipment, err := repos.Shipment.GetByTrackingCode(context.Background(), "TRK-1")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentStatusDelivered, shipment.Status)
}

func TestCarrierDeliveredReplayedThreeTimes(t *testing.T) {
	repos, svc := newEventFixture(t)
	order := seedShippedOrderWithShipment(t, repos, "TRK-2")

	// The carrier sends the same delivery three times with distinct event
	// ids; only the first transition lands, the rest are no-ops.
	for i, id := range []string{"trk_a", "trk_b", "trk_c"} {
		event := &CarrierEvent{
			EventID:      id,
			Type:         "tracking.updated",
			TrackingCode: "TRK-2",
			Status:       CarrierTrackingDelivered,
		}
		require.NoError(t, svc.HandleCarrierEvent(context.Background(), event), "delivery %d", i)
	}

	history, err := repos.Order.HistoryByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2) // creation + one DELIVERED transition
}

func TestCarrierInTransitAfterDeliveryIsIgnored(t *testing.T) {
	repos, svc := newEventFixture(t)
	order := seedShippedOrderWithShipment(t, repos, "TRK-3")

	require.NoError(t, svc.HandleCarrierEvent(context.Background(), &CarrierEvent{
		EventID: "trk_d", Type: "tracking.updated", TrackingCode: "TRK-3", Status: CarrierTrackingDelivered,
	}))
	// A stale scan arrives after delivery
	require.NoError(t, svc.HandleCarrierEvent(context.Background(), &CarrierEvent{
		EventID: "trk_e", Type: "tracking.updated", TrackingCode: "TRK-3", Status: CarrierTrackingInTransit,
	}))

	got, err := repos.Order.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDelivered, got.Status)
}

func TestCarrierEventUnknownTracking(t *testing.T) {
	_, svc := newEventFixture(t)

	err := svc.HandleCarrierEvent(context.Background(), &CarrierEvent{
		EventID:      "trk_missing",
		Type:         "tracking.updated",
		TrackingCode: "TRK-NOPE",
		Status:       CarrierTrackingDelivered,
	})
	require.Error(t, err)
}
