package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository/postgres"
)

// Lists orders in a status, most recent first.
//
// Usage: go run ./cmd/list-orders -status PAID -limit 20
func main() {
	_ = godotenv.Load()

	statusFlag := flag.String("status", "PENDING", "order status to list")
	limitFlag := flag.Int("limit", 50, "max rows")
	flag.Parse()

	status := domain.OrderStatus(*statusFlag)
	if !status.IsValid() {
		fmt.Fprintf(os.Stderr, "Unknown status %q\n", *statusFlag)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	orders, err := repos.Order.ListByStatus(context.Background(), status, *limitFlag, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list orders: %v\n", err)
		os.Exit(1)
	}

	if len(orders) == 0 {
		fmt.Printf("No orders in status %s\n", status)
		return
	}

	fmt.Printf("%-38s %-14s %-18s %-10s %s\n", "ID", "NUMBER", "CUSTOMER", "TOTAL", "CREATED")
	for _, o := range orders {
		fmt.Printf("%-38s %-14s %-18s %-10s %s\n",
			o.ID, o.Number, o.CustomerID,
			o.Total.StringFixed(2)+" "+o.Currency,
			o.CreatedAt.Format("2006-01-02 15:04"))
	}
}
