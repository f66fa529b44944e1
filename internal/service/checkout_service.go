package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type checkoutService struct {
	repos    *repository.Repositories
	shipping *shippingService
	payments PaymentProvider
	taxRate  decimal.Decimal
	logger   *zap.Logger
}

// NewCheckoutService creates the checkout orchestrator. taxRate is a
// fraction, e.g. "0.0875" for 8.75%.
func NewCheckoutService(
	repos *repository.Repositories,
	shipping *shippingService,
	payments PaymentProvider,
	taxRate string,
	logger *zap.Logger,
) (*checkoutService, error) {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil || rate.IsNegative() {
		return nil, &errors.ErrValidation{Message: "invalid tax rate: " + taxRate}
	}
	return &checkoutService{
		repos:    repos,
		shipping: shipping,
		payments: payments,
		taxRate:  rate,
		logger:   logger,
	}, nil
}

// Checkout turns a cart into a PENDING order with a payment intent attached.
//
//  1. reserve stock, so insufficient stock surfaces before any money moves
//  2. pack and quote shipping; the cheapest standard rate prices the order
//  3. create the payment intent for the final total
//  4. persist the order, items, packing audit and payment record
//
// Any failure after step 1 releases the reservation before returning, so an
// abandoned checkout never strands stock.
func (s *checkoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	if req.ClientReference != "" {
		existing, err := s.repos.Order.GetByClientReference(ctx, req.ClientReference)
		if err == nil {
			s.logger.Info("Checkout replayed",
				zap.String("client_reference", req.ClientReference),
				zap.String("order_id", existing.ID.String()))
			return replayResult(existing), nil
		}
		if _, notFound := err.(*errors.ErrNotFound); !notFound {
			return nil, err
		}
	}

	reservations := make([]domain.StockAdjustment, 0, len(req.Items))
	for _, item := range req.Items {
		reservations = append(reservations, domain.StockAdjustment{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	if err := s.repos.Inventory.Reserve(ctx, reservations); err != nil {
		return nil, err
	}

	result, err := s.checkoutReserved(ctx, req)
	if err != nil {
		if relErr := s.repos.Inventory.Release(ctx, reservations); relErr != nil {
			s.logger.Error("Failed to release stock after checkout failure",
				zap.Error(relErr))
		}
		// A concurrent request with the same reference won the insert race;
		// return its order instead of the conflict
		if req.ClientReference != "" {
			if _, isConflict := err.(*errors.ErrConflict); isConflict {
				if existing, lookupErr := s.repos.Order.GetByClientReference(ctx, req.ClientReference); lookupErr == nil {
					return replayResult(existing), nil
				}
			}
		}
		return nil, err
	}
	return result, nil
}

// replayResult rebuilds the checkout response from a previously created
// order. The client secret is not persisted, so replays return the intent id
// only.
func replayResult(order *domain.Order) *CheckoutResult {
	result := &CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Shipping:    order.Shipping,
		Discount:    order.Discount,
		Total:       order.Total,
		Currency:    order.Currency,
	}
	if order.PaymentIntentID != nil {
		result.IntentID = *order.PaymentIntentID
	}
	if order.PackingResult != nil {
		result.Parcels = order.PackingResult.Parcels
	}
	return result
}

// checkoutReserved runs the steps that happen while stock is held. Errors
// bubble to Checkout, which owns the release.
func (s *checkoutService) checkoutReserved(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	quote, err := s.shipping.CalculateRates(ctx, req.ShippingAddress, PackingItems(req.Items))
	if err != nil {
		return nil, err
	}
	rate, err := cheapestRate(quote)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	tax := subtotal.Mul(s.taxRate).Round(2)
	discount := req.Discount
	total := subtotal.Add(tax).Add(rate.Amount).Sub(discount)
	if total.IsNegative() {
		return nil, &errors.ErrValidation{Message: "discount exceeds order total"}
	}

	number := newOrderNumber()
	intent, err := s.payments.CreateIntent(ctx, total, req.Currency, map[string]string{
		"order_number": number,
		"rate_id":      rate.RateID,
	})
	if err != nil {
		s.logger.Error("Payment intent creation failed",
			zap.String("order_number", number), zap.Error(err))
		return nil, &errors.ErrPaymentProvider{Err: err}
	}

	order := &domain.Order{
		ID:              uuid.New(),
		Number:          number,
		Status:          domain.OrderStatusPending,
		Currency:        strings.ToUpper(req.Currency),
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        rate.Amount,
		Discount:        discount,
		Total:           total,
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billingOrShipping(req),
		PackingResult:   packing.Result(quote.Parcels),
		QuotedRateID:    &rate.RateID,
		PaymentIntentID: &intent.IntentID,
	}
	if req.ClientReference != "" {
		order.ClientReference = &req.ClientReference
	}
	items := make([]*domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, &domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			VariantID: item.VariantID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			LengthCm:  item.LengthCm,
			WidthCm:   item.WidthCm,
			HeightCm:  item.HeightCm,
			WeightKg:  item.WeightKg,
		})
	}
	payment := &domain.Payment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Provider: "payment",
		IntentID: intent.IntentID,
		Amount:   total,
		Currency: order.Currency,
		Status:   domain.PaymentStatusPending,
	}
	// Order and payment row commit together; a capture webhook can always
	// find the payment to update
	if err := s.repos.Order.Create(ctx, order, items, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Checkout completed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.Number),
		zap.String("total", total.StringFixed(2)),
		zap.Int("parcels", len(quote.Parcels)),
	)

	return &CheckoutResult{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		Status:        order.Status,
		Subtotal:      subtotal,
		Tax:           tax,
		Shipping:      rate.Amount,
		Discount:      discount,
		Total:         total,
		Currency:      order.Currency,
		IntentID:      intent.IntentID,
		ClientSecret:  intent.ClientSecret,
		Parcels:       quote.Parcels,
		ShippingRates: quote.Rates,
	}, nil
}

func validateCheckout(req *CheckoutRequest) error {
	fields := map[string]string{}
	if len(req.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			fields["items"] = "quantities must be positive"
		}
		if item.UnitPrice.IsNegative() {
			fields["items"] = "unit prices must not be negative"
		}
	}
	if len(req.Currency) != 3 {
		fields["currency"] = "must be a 3-letter code"
	}
	if req.Discount.IsNegative() {
		fields["discount"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &errors.ErrValidation{Message: "invalid checkout request", Fields: fields}
	}
	return nil
}

// cheapestRate picks the cheapest standard rate; when no standard service
// exists the cheapest rate overall prices the order.
func cheapestRate(quote *RateQuote) (*domain.ShippingRate, error) {
	pool := quote.Standard
	if len(pool) == 0 {
		pool = quote.Rates
	}
	if len(pool) == 0 {
		return nil, &errors.ErrShippingNotAvailable{Reason: "no ratable services for destination"}
	}
	best := pool[0]
	for _, rate := range pool[1:] {
		if rate.Amount.LessThan(best.Amount) {
			best = rate
		}
	}
	return &best, nil
}

func newOrderNumber() string {
	id := uuid.New().String()
	return "ORD-" + strings.ToUpper(id[:8])
}

func billingOrShipping(req *CheckoutRequest) domain.Address {
	if req.BillingAddress == (domain.Address{}) {
		return req.ShippingAddress
	}
	return req.BillingAddress
}
