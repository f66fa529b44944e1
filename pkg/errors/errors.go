package errors

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict is returned on a concurrent-update or duplicate-key conflict
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrValidation is returned when request validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrInvalidTransition is returned when an illegal order status transition is
// attempted. The message enumerates the legal targets so the operator knows
// what would be accepted.
type ErrInvalidTransition struct {
	From    domain.OrderStatus
	To      domain.OrderStatus
	Allowed []domain.OrderStatus
}

func (e *ErrInvalidTransition) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid transition from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	targets := make([]string, len(e.Allowed))
	for i, t := range e.Allowed {
		targets[i] = string(t)
	}
	return fmt.Sprintf("invalid transition from %s to %s: valid targets are %s",
		e.From, e.To, strings.Join(targets, ", "))
}

// ErrInsufficientStock is returned when a reservation cannot be satisfied.
// The whole batch is rejected; no stock was decremented.
type ErrInsufficientStock struct {
	VariantID uuid.UUID
	Requested int
	Available int
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

// ErrInvalidSignature is returned when a webhook signature fails verification.
// It is rejected at the boundary and never reaches business logic.
type ErrInvalidSignature struct {
	Source domain.EventSource
}

func (e *ErrInvalidSignature) Error() string {
	return fmt.Sprintf("invalid %s webhook signature", e.Source)
}

// ErrShippingNotAvailable is the business outcome of a quote request that
// returned zero ratable services (e.g. unsupported destination)
type ErrShippingNotAvailable struct {
	Reason string
}

func (e *ErrShippingNotAvailable) Error() string {
	if e.Reason != "" {
		return "shipping not available: " + e.Reason
	}
	return "shipping not available for this destination"
}

// ErrShippingRate is an infrastructure failure talking to the carrier-rate
// provider, distinct from "no rates found" so callers can retry
type ErrShippingRate struct {
	Err error
}

func (e *ErrShippingRate) Error() string {
	return fmt.Sprintf("shipping rate request failed: %v", e.Err)
}

func (e *ErrShippingRate) Unwrap() error { return e.Err }

// ErrPaymentProvider is an error from the payment provider, propagated with
// the provider's own message so operators can diagnose it
type ErrPaymentProvider struct {
	Err error
}

func (e *ErrPaymentProvider) Error() string {
	return fmt.Sprintf("payment provider error: %v", e.Err)
}

func (e *ErrPaymentProvider) Unwrap() error { return e.Err }
