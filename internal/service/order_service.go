package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type orderService struct {
	repos    *repository.Repositories
	notifier Notifier
	logger   *zap.Logger
}

// NewOrderService creates the order state machine service
func NewOrderService(repos *repository.Repositories, notifier Notifier, logger *zap.Logger) *orderService {
	return &orderService{
		repos:    repos,
		notifier: notifier,
		logger:   logger,
	}
}

// Transition moves an order to the target status. The transition table in
// domain.OrderStatus is authoritative; an illegal target fails with
// ErrInvalidTransition listing the legal ones. The status update and the
// history entry are persisted atomically, and a compare-and-swap on the
// current status serializes concurrent transitions on the same order.
//
// Side effects by target:
//   - CANCELLED / REFUNDED: reserved stock is released back to the ledger,
//     exactly once (the source status was necessarily non-terminal because
//     terminal states have no outgoing transitions). The release rides in
//     the same transaction as the status change, so a failed release fails
//     the whole transition and the caller can retry it.
//   - SHIPPED / DELIVERED / REFUND_REQUESTED / REFUNDED: customer
//     notification, fire-and-forget
//
// A transition to DELIVERED on an already-delivered order returns success
// without side effects, so carrier webhook replays are harmless.
func (s *orderService) Transition(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus, actor domain.Actor, comment string) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	// Webhook replay safety: already delivered is a success, not a conflict
	if target == domain.OrderStatusDelivered && order.Status == domain.OrderStatusDelivered {
		return nil
	}

	if !order.Status.CanTransitionTo(target) {
		return &errors.ErrInvalidTransition{
			From:    order.Status,
			To:      target,
			Allowed: order.Status.ValidTargets(),
		}
	}

	var release []domain.StockAdjustment
	if target.IsTerminal() {
		if release, err = s.releaseAdjustments(ctx, orderID); err != nil {
			return err
		}
	}

	entry := &domain.StatusHistoryEntry{
		OrderID: orderID,
		Status:  target,
		Actor:   actor.UserID,
		Comment: comment,
	}
	// The CAS succeeds from a non-terminal source only, so the release
	// applies at most once per order even under concurrent attempts.
	if err := s.repos.Order.UpdateStatus(ctx, orderID, order.Status, target, entry, release); err != nil {
		return err
	}

	s.logger.Info("Order transitioned",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actor.UserID),
	)

	order.Status = target
	switch target {
	case domain.OrderStatusShipped:
		s.notifier.Notify(NotifyOrderShipped, order)
	case domain.OrderStatusDelivered:
		s.notifier.Notify(NotifyOrderDelivered, order)
	case domain.OrderStatusCancelled:
		s.notifier.Notify(NotifyOrderCancelled, order)
	case domain.OrderStatusRefundRequested:
		s.notifier.Notify(NotifyRefundRequested, order)
	case domain.OrderStatusRefunded:
		s.notifier.Notify(NotifyOrderRefunded, order)
	}

	return nil
}

// GetOrder returns the order by id
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repos.Order.GetByID(ctx, orderID)
}

// History returns the order's status log
func (s *orderService) History(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusHistoryEntry, error) {
	if _, err := s.repos.Order.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repos.Order.HistoryByOrderID(ctx, orderID)
}

func (s *orderService) releaseAdjustments(ctx context.Context, orderID uuid.UUID) ([]domain.StockAdjustment, error) {
	items, err := s.repos.Order.ItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	adjustments := make([]domain.StockAdjustment, 0, len(items))
	for _, item := range items {
		adjustments = append(adjustments, domain.StockAdjustment{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return adjustments, nil
}
