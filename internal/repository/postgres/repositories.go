package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository"
)

// NewRepositories creates all postgres repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Order:        NewOrderRepository(db, logger),
		Inventory:    NewInventoryRepository(db, logger),
		Payment:      NewPaymentRepository(db, logger),
		Shipment:     NewShipmentRepository(db, logger),
		WebhookEvent: NewWebhookEventRepository(db, logger),
	}
}
