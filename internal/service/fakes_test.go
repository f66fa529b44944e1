package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/packing"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository/inmemory"
)

func newTestRepos() *repository.Repositories {
	return inmemory.NewRepositories()
}

type fakeCarrier struct {
	mu         sync.Mutex
	rates      []domain.ShippingRate
	quoteErr   error
	label      *domain.Label
	labelErr   error
	quoteCalls int
	labelCalls int
}

func (f *fakeCarrier) Quote(ctx context.Context, from, to domain.Address, parcels []domain.Parcel) ([]domain.ShippingRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	out := make([]domain.ShippingRate, len(f.rates))
	copy(out, f.rates)
	return out, nil
}

func (f *fakeCarrier) PurchaseLabel(ctx context.Context, rateID string) (*domain.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labelCalls++
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	if f.label != nil {
		cp := *f.label
		return &cp, nil
	}
	return &domain.Label{
		TrackingCode: "TRK-" + rateID,
		LabelURL:     "https://labels.example/" + rateID + ".pdf",
		Carrier:      "testcarrier",
		Service:      "Ground",
	}, nil
}

type fakePayment struct {
	mu       sync.Mutex
	err      error
	calls    int
	lastMeta map[string]string
}

func (f *fakePayment) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*domain.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMeta = metadata
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PaymentIntent{
		IntentID:     fmt.Sprintf("pi_test_%d", f.calls),
		ClientSecret: "secret_test",
	}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) Notify(event string, order *domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func standardRate(id string, amount string) domain.ShippingRate {
	return domain.ShippingRate{
		RateID:   id,
		Carrier:  "testcarrier",
		Service:  "Ground",
		Amount:   decimal.RequireFromString(amount),
		Currency: "CAD",
	}
}

func expressRate(id string, amount string) domain.ShippingRate {
	return domain.ShippingRate{
		RateID:   id,
		Carrier:  "testcarrier",
		Service:  "Express Overnight",
		Amount:   decimal.RequireFromString(amount),
		Currency: "CAD",
	}
}

func testRateConfig() config.RateConfig {
	return config.RateConfig{
		ExpressKeywords: []string{"express", "priority", "overnight", "next day"},
		ExpressExcludes: []string{"3-day", "3 day", "saver ground"},
	}
}

func testShippingService(carrier CarrierProvider, repos *repository.Repositories) *shippingService {
	return NewShippingService(
		carrier,
		packing.NewPacker(packing.DefaultCatalog()),
		testRateConfig(),
		domain.Address{Name: "Warehouse", City: "Montreal", Country: "CA"},
		repos,
		zap.NewNop(),
	)
}

func seedStock(repos *repository.Repositories, variantID uuid.UUID, stock int) {
	_ = repos.Inventory.Upsert(context.Background(), &domain.InventoryRecord{
		VariantID:      variantID,
		SKU:            "SKU-" + variantID.String()[:8],
		Stock:          stock,
		TrackInventory: true,
	})
}
