package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

type shippingService struct {
	carrier CarrierProvider
	packer  *packing.Packer
	rates   config.RateConfig
	origin  domain.Address
	repos   *repository.Repositories
	logger  *zap.Logger
}

// NewShippingService creates the rate shopper
func NewShippingService(
	carrier CarrierProvider,
	packer *packing.Packer,
	cfg config.RateConfig,
	origin domain.Address,
	repos *repository.Repositories,
	logger *zap.Logger,
) *shippingService {
	return &shippingService{
		carrier: carrier,
		packer:  packer,
		rates:   cfg,
		origin:  origin,
		repos:   repos,
		logger:  logger,
	}
}

// RateQuote is the rate shopper's result: the parcel breakdown plus the
// provider's rates bucketed into standard and express
type RateQuote struct {
	Parcels  []domain.Parcel
	Rates    []domain.ShippingRate
	Standard []domain.ShippingRate
	Express  []domain.ShippingRate
}

// CalculateRates packs the items, requests quotes for the combined shipment,
// and classifies the rates. Zero ratable services is the business outcome
// ErrShippingNotAvailable; a failed provider call is the retryable
// infrastructure error ErrShippingRate.
func (s *shippingService) CalculateRates(ctx context.Context, addressTo domain.Address, items []packing.Item) (*RateQuote, error) {
	parcels := s.packer.Pack(items)
	if len(parcels) == 0 {
		return nil, &errors.ErrValidation{Message: "no items to ship"}
	}

	rates, err := s.carrier.Quote(ctx, s.origin, addressTo, parcels)
	if err != nil {
		s.logger.Error("Carrier quote request failed", zap.Error(err))
		return nil, &errors.ErrShippingRate{Err: err}
	}
	if len(rates) == 0 {
		return nil, &errors.ErrShippingNotAvailable{Reason: "no ratable services for destination"}
	}

	quote := &RateQuote{Parcels: parcels}
	for _, rate := range rates {
		rate.Category = s.Classify(rate.Service)
		quote.Rates = append(quote.Rates, rate)
		if rate.Category == domain.RateCategoryExpress {
			quote.Express = append(quote.Express, rate)
		} else {
			quote.Standard = append(quote.Standard, rate)
		}
	}
	return quote, nil
}

// Classify buckets a carrier service name as standard or express. An
// excludes match wins over a keyword match so "3-Day Express Saver" stays
// standard.
func (s *shippingService) Classify(serviceName string) domain.RateCategory {
	name := strings.ToLower(serviceName)
	for _, excl := range s.rates.ExpressExcludes {
		if strings.Contains(name, strings.ToLower(excl)) {
			return domain.RateCategoryStandard
		}
	}
	for _, kw := range s.rates.ExpressKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return domain.RateCategoryExpress
		}
	}
	return domain.RateCategoryStandard
}

// PurchaseLabel converts a quoted rate into a shipment. An order that
// already has an active shipment with a tracking code is never labelled
// twice; provider errors are propagated untouched.
func (s *shippingService) PurchaseLabel(ctx context.Context, orderID uuid.UUID, rateID string) (*domain.Shipment, error) {
	if _, err := s.repos.Order.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	existing, err := s.repos.Shipment.GetActiveByOrderID(ctx, orderID)
	if err == nil && existing.TrackingCode != "" {
		return nil, &errors.ErrConflict{
			Message: "order already has an active shipment with tracking code " + existing.TrackingCode,
		}
	}
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); !notFound {
			return nil, err
		}
	}

	label, err := s.carrier.PurchaseLabel(ctx, rateID)
	if err != nil {
		s.logger.Error("Carrier label purchase failed",
			zap.String("order_id", orderID.String()),
			zap.String("rate_id", rateID),
			zap.Error(err))
		return nil, &errors.ErrShippingRate{Err: err}
	}

	shipment := &domain.Shipment{
		OrderID:      orderID,
		Carrier:      label.Carrier,
		Service:      label.Service,
		TrackingCode: label.TrackingCode,
		LabelURL:     label.LabelURL,
		Status:       domain.ShipmentStatusLabelCreated,
		Active:       true,
	}
	if err := s.repos.Shipment.Create(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("Label purchased",
		zap.String("order_id", orderID.String()),
		zap.String("carrier", label.Carrier),
		zap.String("tracking_code", label.TrackingCode),
	)
	return shipment, nil
}
