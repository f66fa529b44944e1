package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/service"
)

// verifyHMAC checks a hex-encoded HMAC-SHA256 signature computed over the
// raw request body. The header is decoded to raw bytes before the
// constant-time compare, so upper- and lowercase hex both verify. An empty
// secret or header never verifies.
func verifyHMAC(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	sig, err := hex.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(mac.Sum(nil), sig)
}

// HandlePaymentWebhook handles POST /webhooks/payment.
// The signature is verified over the raw bytes before any parsing; a bad
// signature is a 400 and the payload is never looked at. A processing
// failure is a 500 so the provider redelivers; the event record's
// idempotency makes the redelivery safe.
func HandlePaymentWebhook(cfg *config.Config, events EventService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !verifyHMAC(cfg.Payment.WebhookSecret, body, c.GetHeader("X-Payment-Signature")) {
			logger.Warn("Rejected payment webhook with invalid signature")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}

		var event service.PaymentEvent
		if err := json.Unmarshal(body, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON", "details": err.Error()})
			return
		}
		if event.EventID == "" || event.Type == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id and type are required"})
			return
		}

		if err := events.HandlePaymentEvent(c.Request.Context(), &event); err != nil {
			logger.Error("Payment webhook processing failed",
				zap.String("event_id", event.EventID),
				zap.String("type", event.Type),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// HandleCarrierWebhook handles POST /webhooks/carrier
func HandleCarrierWebhook(cfg *config.Config, events EventService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !verifyHMAC(cfg.Carrier.WebhookSecret, body, c.GetHeader("X-Carrier-Signature")) {
			logger.Warn("Rejected carrier webhook with invalid signature")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}

		var event service.CarrierEvent
		if err := json.Unmarshal(body, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON", "details": err.Error()})
			return
		}
		if event.EventID == "" || event.TrackingCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id and tracking_code are required"})
			return
		}

		if err := events.HandleCarrierEvent(c.Request.Context(), &event); err != nil {
			logger.Error("Carrier webhook processing failed",
				zap.String("event_id", event.EventID),
				zap.String("tracking_code", event.TrackingCode),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
