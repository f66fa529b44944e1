package domain

// OrderStatus represents the status of an order
type OrderStatus string

const (
	// PENDING - Order created, awaiting payment capture
	OrderStatusPending OrderStatus = "PENDING"
	// PAID - Payment captured
	OrderStatusPaid OrderStatus = "PAID"
	// SHIPPED - Label purchased and package handed to carrier
	OrderStatusShipped OrderStatus = "SHIPPED"
	// IN_TRANSIT - Carrier reported movement
	OrderStatusInTransit OrderStatus = "IN_TRANSIT"
	// DELIVERED - Carrier reported delivery
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// CANCELLED - Order cancelled before fulfillment
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// REFUNDED - Order refunded
	OrderStatusRefunded OrderStatus = "REFUNDED"
	// REFUND_REQUESTED - Customer asked for a refund, awaiting resolution
	OrderStatusRefundRequested OrderStatus = "REFUND_REQUESTED"
)

// orderTransitions is the canonical transition table. SHIPPED may go straight
// to DELIVERED; IN_TRANSIT is an optional intermediate step.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:            {OrderStatusShipped, OrderStatusRefundRequested, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:         {OrderStatusInTransit, OrderStatusDelivered},
	OrderStatusInTransit:       {OrderStatusDelivered},
	OrderStatusDelivered:       {OrderStatusRefundRequested, OrderStatusRefunded},
	OrderStatusRefundRequested: {OrderStatusRefunded},
	OrderStatusCancelled:       {},
	OrderStatusRefunded:        {},
}

// IsValid checks if the order status is a known status
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether the status has no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	targets, ok := orderTransitions[s]
	return ok && len(targets) == 0
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTargets returns the statuses reachable from s, used for operator
// feedback when a transition is rejected
func (s OrderStatus) ValidTargets() []OrderStatus {
	targets := orderTransitions[s]
	out := make([]OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// EventSource identifies which provider delivered a webhook event
type EventSource string

const (
	EventSourcePayment EventSource = "payment"
	EventSourceCarrier EventSource = "carrier"
)

// ShipmentStatus represents the status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusLabelCreated ShipmentStatus = "LABEL_CREATED"
	ShipmentStatusInTransit    ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusDelivered    ShipmentStatus = "DELIVERED"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// RateCategory buckets carrier services for the storefront
type RateCategory string

const (
	RateCategoryStandard RateCategory = "standard"
	RateCategoryExpress  RateCategory = "express"
)

// Role is the actor role supplied by the identity provider
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleSystem   Role = "system"
)

// Actor is the authenticated caller of a state-mutating operation.
// It is threaded explicitly through every call; there is no ambient
// "current user".
type Actor struct {
	UserID string
	Role   Role
}

// SystemActor is used for transitions driven by provider events
var SystemActor = Actor{UserID: "system", Role: RoleSystem}
