package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

var testDestination = domain.Address{Name: "Jane Doe", City: "Vancouver", Country: "CA"}

func testPackingItems() []packing.Item {
	return []packing.Item{
		{VariantID: uuid.New(), LengthCm: 10, WidthCm: 10, HeightCm: 10, WeightKg: 1, Quantity: 2},
	}
}

func TestClassify(t *testing.T) {
	svc := testShippingService(&fakeCarrier{}, newTestRepos())

	cases := []struct {
		service string
		want    domain.RateCategory
	}{
		{"UPS Ground", domain.RateCategoryStandard},
		{"Priority Mail", domain.RateCategoryExpress},
		{"FedEx Overnight", domain.RateCategoryExpress},
		{"Next Day Air", domain.RateCategoryExpress},
		{"EXPRESS INTERNATIONAL", domain.RateCategoryExpress},
		// An excludes match wins over the express keyword
		{"3-Day Express Saver", domain.RateCategoryStandard},
		{"Express Saver Ground", domain.RateCategoryStandard},
		{"Economy", domain.RateCategoryStandard},
	}
	for _, tc := range cases {
		if got := svc.Classify(tc.service); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.service, got, tc.want)
		}
	}
}

func TestCalculateRatesBucketsByCategory(t *testing.T) {
	carrier := &fakeCarrier{rates: []domain.ShippingRate{
		standardRate("r1", "10.00"),
		expressRate("r2", "25.00"),
		{RateID: "r3", Carrier: "testcarrier", Service: "3-Day Express Saver", Amount: decimal.RequireFromString("15.00"), Currency: "CAD"},
	}}
	svc := testShippingService(carrier, newTestRepos())

	quote, err := svc.CalculateRates(context.Background(), testDestination, testPackingItems())
	require.NoError(t, err)
	require.Len(t, quote.Rates, 3)
	require.Len(t, quote.Standard, 2)
	require.Len(t, quote.Express, 1)
	require.Equal(t, "r2", quote.Express[0].RateID)
	require.NotEmpty(t, quote.Parcels)
}

func TestCalculateRatesNoItems(t *testing.T) {
	svc := testShippingService(&fakeCarrier{}, newTestRepos())

	_, err := svc.CalculateRates(context.Background(), testDestination, nil)
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)
}

func TestCalculateRatesZeroRatesVsProviderFailure(t *testing.T) {
	// Zero rates is a business outcome
	svc := testShippingService(&fakeCarrier{}, newTestRepos())
	_, err := svc.CalculateRates(context.Background(), testDestination, testPackingItems())
	var notAvailable *errors.ErrShippingNotAvailable
	require.ErrorAs(t, err, &notAvailable)

	// A failed provider call is a retryable infrastructure error
	svc = testShippingService(&fakeCarrier{quoteErr: stderrors.New("502 from provider")}, newTestRepos())
	_, err = svc.CalculateRates(context.Background(), testDestination, testPackingItems())
	var rateErr *errors.ErrShippingRate
	require.ErrorAs(t, err, &rateErr)
}

func TestPurchaseLabelCreatesActiveShipment(t *testing.T) {
	repos := newTestRepos()
	svc := testShippingService(&fakeCarrier{}, repos)

	order := seedOrder(t, repos, domain.OrderStatusPaid, nil)

	shipment, err := svc.PurchaseLabel(context.Background(), order.ID, "rate_42")
	require.NoError(t, err)
	require.Equal(t, "TRK-rate_42", shipment.TrackingCode)
	require.Equal(t, domain.ShipmentStatusLabelCreated, shipment.Status)
	require.True(t, shipment.Active)

	stored, err := repos.Shipment.GetByTrackingCode(context.Background(), "TRK-rate_42")
	require.NoError(t, err)
	require.Equal(t, order.ID, stored.OrderID)
}

func TestPurchaseLabelRefusesSecondLabel(t *testing.T) {
	repos := newTestRepos()
	carrier := &fakeCarrier{}
	svc := testShippingService(carrier, repos)

	order := seedOrder(t, repos, domain.OrderStatusPaid, nil)

	_, err := svc.PurchaseLabel(context.Background(), order.ID, "rate_1")
	require.NoError(t, err)

	_, err = svc.PurchaseLabel(context.Background(), order.ID, "rate_2")
	var conflict *errors.ErrConflict
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, 1, carrier.labelCalls, "the provider must not be charged twice")
}

func TestPurchaseLabelUnknownOrder(t *testing.T) {
	svc := testShippingService(&fakeCarrier{}, newTestRepos())

	_, err := svc.PurchaseLabel(context.Background(), uuid.New(), "rate_1")
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestPurchaseLabelProviderFailure(t *testing.T) {
	repos := newTestRepos()
	svc := testShippingService(&fakeCarrier{labelErr: stderrors.New("rate expired")}, repos)

	order := seedOrder(t, repos, domain.OrderStatusPaid, nil)

	_, err := svc.PurchaseLabel(context.Background(), order.ID, "rate_old")
	var rateErr *errors.ErrShippingRate
	require.ErrorAs(t, err, &rateErr)

	// No shipment row was created for the failed purchase
	_, err = repos.Shipment.GetActiveByOrderID(context.Background(), order.ID)
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}
