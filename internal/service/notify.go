package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

const notifyTimeout = 10 * time.Second

// Notification event names sent to the email/notification service
const (
	NotifyOrderShipped    = "order_shipped"
	NotifyOrderDelivered  = "order_delivered"
	NotifyOrderCancelled  = "order_cancelled"
	NotifyRefundRequested = "refund_requested"
	NotifyOrderRefunded   = "order_refunded"
)

type webhookNotifier struct {
	url    string
	logger *zap.Logger
}

// NewNotifier creates the notification sender. An empty URL disables
// delivery; Notify becomes a no-op.
func NewNotifier(cfg config.NotifyConfig, logger *zap.Logger) *webhookNotifier {
	return &webhookNotifier{
		url:    cfg.WebhookURL,
		logger: logger,
	}
}

// Notify posts the event to the notification service in a goroutine so the
// caller's state transition is never blocked on notification delivery.
func (n *webhookNotifier) Notify(event string, order *domain.Order) {
	if n.url == "" {
		return
	}
	payload := map[string]interface{}{
		"event":        event,
		"order_id":     order.ID.String(),
		"order_number": order.Number,
		"status":       order.Status,
		"customer_id":  order.CustomerID,
		"email":        order.ShippingAddress.Email,
	}
	go n.send(event, payload)
}

func (n *webhookNotifier) send(event string, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("Notify: failed to marshal payload", zap.Error(err))
		return
	}
	client := &http.Client{Timeout: notifyTimeout}
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Notify: failed to create request", zap.String("url", n.url), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		n.logger.Warn("Notify: request failed", zap.String("event", event), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("Notify: non-2xx response", zap.String("event", event), zap.Int("status", resp.StatusCode))
		return
	}
	n.logger.Info("Notify: notification sent", zap.String("event", event), zap.Int("status", resp.StatusCode))
}
