package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/repository/postgres"
)

// Seeds inventory records from a CSV with columns:
// variant_id,sku,stock,track_inventory,allow_backorder,low_stock_threshold
//
// Usage: go run ./cmd/seed-inventory inventory.csv
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: seed-inventory <file.csv>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse CSV: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	seeded := 0
	for i, row := range rows {
		if i == 0 && row[0] == "variant_id" {
			continue // header
		}
		if len(row) < 6 {
			fmt.Fprintf(os.Stderr, "Row %d: expected 6 columns, got %d\n", i+1, len(row))
			os.Exit(1)
		}

		variantID, err := uuid.Parse(row[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Row %d: invalid variant_id %q\n", i+1, row[0])
			os.Exit(1)
		}
		stock, _ := strconv.Atoi(row[2])
		track, _ := strconv.ParseBool(row[3])
		backorder, _ := strconv.ParseBool(row[4])
		threshold, _ := strconv.Atoi(row[5])

		rec := &domain.InventoryRecord{
			VariantID:         variantID,
			SKU:               row[1],
			Stock:             stock,
			TrackInventory:    track,
			AllowBackorder:    backorder,
			LowStockThreshold: threshold,
		}
		if err := repos.Inventory.Upsert(ctx, rec); err != nil {
			fmt.Fprintf(os.Stderr, "Row %d: upsert failed: %v\n", i+1, err)
			os.Exit(1)
		}
		seeded++
	}

	fmt.Printf("Seeded %d inventory records\n", seeded)
}
