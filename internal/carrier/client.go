package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

// Client talks to the carrier-rate provider. Provider error bodies are
// propagated untouched so an operator can diagnose failures without
// provider-console access.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new carrier-rate provider client
func NewClient(cfg config.CarrierConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type addressPayload struct {
	Name       string `json:"name,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

type parcelPayload struct {
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
}

type quoteRequest struct {
	AddressFrom addressPayload  `json:"address_from"`
	AddressTo   addressPayload  `json:"address_to"`
	Parcels     []parcelPayload `json:"parcels"`
}

type rateResponse struct {
	Rates []struct {
		RateID        string `json:"rate_id"`
		Carrier       string `json:"carrier"`
		Service       string `json:"service"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
		EstimatedDays int    `json:"estimated_days"`
	} `json:"rates"`
}

// Quote requests price quotes for all parcels combined into one shipment.
// An empty rate list is a valid response; the caller decides whether that is
// an error.
func (c *Client) Quote(ctx context.Context, from, to domain.Address, parcels []domain.Parcel) ([]domain.ShippingRate, error) {
	req := quoteRequest{
		AddressFrom: toAddressPayload(from),
		AddressTo:   toAddressPayload(to),
	}
	for _, p := range parcels {
		req.Parcels = append(req.Parcels, parcelPayload{
			LengthCm: p.LengthCm,
			WidthCm:  p.WidthCm,
			HeightCm: p.HeightCm,
			WeightKg: p.WeightKg,
		})
	}

	var resp rateResponse
	if err := c.post(ctx, "/v1/shipments", req, &resp); err != nil {
		return nil, err
	}

	rates := make([]domain.ShippingRate, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			c.logger.Warn("Carrier returned unparseable rate amount, skipping",
				zap.String("rate_id", r.RateID), zap.String("amount", r.Amount))
			continue
		}
		rates = append(rates, domain.ShippingRate{
			RateID:        r.RateID,
			Carrier:       r.Carrier,
			Service:       r.Service,
			Amount:        amount,
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
		})
	}
	return rates, nil
}

type purchaseRequest struct {
	RateID string `json:"rate_id"`
}

type purchaseResponse struct {
	TrackingCode string `json:"tracking_code"`
	LabelURL     string `json:"label_url"`
	Carrier      string `json:"carrier"`
	Service      string `json:"service"`
}

// PurchaseLabel converts a quoted rate into a purchased label transaction
func (c *Client) PurchaseLabel(ctx context.Context, rateID string) (*domain.Label, error) {
	var resp purchaseResponse
	if err := c.post(ctx, "/v1/transactions", purchaseRequest{RateID: rateID}, &resp); err != nil {
		return nil, err
	}
	return &domain.Label{
		TrackingCode: resp.TrackingCode,
		LabelURL:     resp.LabelURL,
		Carrier:      resp.Carrier,
		Service:      resp.Service,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("carrier API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	return nil
}

func toAddressPayload(a domain.Address) addressPayload {
	return addressPayload{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		Email:      a.Email,
	}
}
