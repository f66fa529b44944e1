package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
)

func TestCreateIntent(t *testing.T) {
	var gotBody intentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"intent_id":"pi_123","client_secret":"cs_456"}`))
	}))
	defer server.Close()

	client := NewClient(config.PaymentConfig{BaseURL: server.URL, SecretKey: "sk_test"}, zap.NewNop())
	intent, err := client.CreateIntent(context.Background(),
		decimal.RequireFromString("67.5"), "CAD",
		map[string]string{"order_number": "ORD-ABCD1234"})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	// Amounts always go over the wire with two decimal places
	if gotBody.Amount != "67.50" {
		t.Errorf("expected amount 67.50, got %q", gotBody.Amount)
	}
	if gotBody.Metadata["order_number"] != "ORD-ABCD1234" {
		t.Errorf("metadata not sent: %+v", gotBody.Metadata)
	}
	if intent.IntentID != "pi_123" || intent.ClientSecret != "cs_456" {
		t.Errorf("unexpected intent: %+v", intent)
	}
}

func TestCreateIntentProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"account suspended"}`))
	}))
	defer server.Close()

	client := NewClient(config.PaymentConfig{BaseURL: server.URL, SecretKey: "sk_test"}, zap.NewNop())
	_, err := client.CreateIntent(context.Background(), decimal.RequireFromString("10.00"), "CAD", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "account suspended") {
		t.Errorf("provider body missing from error: %v", err)
	}
}
