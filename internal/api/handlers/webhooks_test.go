package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/service"
)

type fakeEventService struct {
	paymentErr    error
	carrierErr    error
	paymentEvents []*service.PaymentEvent
	carrierEvents []*service.CarrierEvent
}

func (f *fakeEventService) HandlePaymentEvent(ctx context.Context, event *service.PaymentEvent) error {
	f.paymentEvents = append(f.paymentEvents, event)
	return f.paymentErr
}

func (f *fakeEventService) HandleCarrierEvent(ctx context.Context, event *service.CarrierEvent) error {
	f.carrierEvents = append(f.carrierEvents, event)
	return f.carrierErr
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookTestConfig() *config.Config {
	return &config.Config{
		Payment: config.PaymentConfig{WebhookSecret: "payment-secret"},
		Carrier: config.CarrierConfig{WebhookSecret: "carrier-secret"},
	}
}

func postWebhook(handler gin.HandlerFunc, path string, body []byte, sigHeader, sig string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST(path, handler)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if sig != "" {
		req.Header.Set(sigHeader, sig)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentWebhookValidSignature(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{}
	handler := HandlePaymentWebhook(cfg, events, zap.NewNop())

	body := []byte(`{"event_id":"evt_1","type":"payment_intent.captured","intent_id":"pi_123"}`)
	w := postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", sign("payment-secret", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(events.paymentEvents) != 1 {
		t.Fatalf("expected 1 processed event, got %d", len(events.paymentEvents))
	}
	if events.paymentEvents[0].IntentID != "pi_123" {
		t.Errorf("unexpected event: %+v", events.paymentEvents[0])
	}
}

func TestPaymentWebhookUppercaseSignature(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{}
	handler := HandlePaymentWebhook(cfg, events, zap.NewNop())

	// Some senders hex-encode in uppercase; the signature still verifies
	body := []byte(`{"event_id":"evt_1","type":"payment_intent.captured","intent_id":"pi_123"}`)
	sig := strings.ToUpper(sign("payment-secret", body))
	w := postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", sig)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for uppercase hex signature, got %d: %s", w.Code, w.Body.String())
	}
	if len(events.paymentEvents) != 1 {
		t.Fatalf("expected 1 processed event, got %d", len(events.paymentEvents))
	}
}

func TestPaymentWebhookInvalidSignature(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{}
	handler := HandlePaymentWebhook(cfg, events, zap.NewNop())

	body := []byte(`{"event_id":"evt_1","type":"payment_intent.captured","intent_id":"pi_123"}`)

	// Wrong key
	w := postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", sign("wrong-secret", body))
	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong key: expected 400, got %d", w.Code)
	}

	// Missing header
	w = postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing header: expected 400, got %d", w.Code)
	}

	// Signature of a different body
	w = postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", sign("payment-secret", []byte(`{"tampered":true}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("tampered body: expected 400, got %d", w.Code)
	}

	if len(events.paymentEvents) != 0 {
		t.Fatalf("unverified payloads must never reach the service, got %d calls", len(events.paymentEvents))
	}
}

func TestPaymentWebhookProcessingFailureIs500(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{paymentErr: stderrors.New("order not found")}
	handler := HandlePaymentWebhook(cfg, events, zap.NewNop())

	body := []byte(`{"event_id":"evt_1","type":"payment_intent.captured","intent_id":"pi_123"}`)
	w := postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", sign("payment-secret", body))

	// 500 tells the provider to redeliver; the event record makes the
	// redelivery idempotent
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestPaymentWebhookMalformedJSON(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{}
	handler := HandlePaymentWebhook(cfg, events, zap.NewNop())

	body := []byte(`{not json`)
	w := postWebhook(handler, "/webhooks/payment", body, "X-Payment-Signature", sign("payment-secret", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(events.paymentEvents) != 0 {
		t.Fatal("malformed payload must not reach the service")
	}
}

func TestCarrierWebhookValidSignature(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{}
	handler := HandleCarrierWebhook(cfg, events, zap.NewNop())

	body := []byte(`{"event_id":"trk_1","type":"tracking.updated","tracking_code":"TRK-9","status":"delivered"}`)
	w := postWebhook(handler, "/webhooks/carrier", body, "X-Carrier-Signature", sign("carrier-secret", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(events.carrierEvents) != 1 || events.carrierEvents[0].TrackingCode != "TRK-9" {
		t.Fatalf("unexpected events: %+v", events.carrierEvents)
	}
}

func TestCarrierWebhookRejectsPaymentSecret(t *testing.T) {
	cfg := webhookTestConfig()
	events := &fakeEventService{}
	handler := HandleCarrierWebhook(cfg, events, zap.NewNop())

	body := []byte(`{"event_id":"trk_1","type":"tracking.updated","tracking_code":"TRK-9","status":"delivered"}`)
	w := postWebhook(handler, "/webhooks/carrier", body, "X-Carrier-Signature", sign("payment-secret", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for cross-secret signature, got %d", w.Code)
	}
	if len(events.carrierEvents) != 0 {
		t.Fatal("unverified payloads must never reach the service")
	}
}
