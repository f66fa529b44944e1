package postgres

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/pkg/errors"
)

func TestReserveShortStockRollsBackBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewInventoryRepository(db, zap.NewNop())

	// Fixed IDs so okVariant sorts before shortVariant; Reserve locks rows
	// in ascending variant order, and this test expects the in-stock line
	// to be processed first.
	okVariant := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	shortVariant := uuid.MustParse("eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee")

	mock.ExpectBegin()
	// First line fits and is decremented
	mock.ExpectQuery("SELECT stock, track_inventory, allow_backorder").
		WithArgs(okVariant).
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_inventory", "allow_backorder"}).AddRow(10, true, false))
	mock.ExpectExec("UPDATE inventory_records").
		WithArgs(okVariant, 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second line is short, the whole transaction rolls back
	mock.ExpectQuery("SELECT stock, track_inventory, allow_backorder").
		WithArgs(shortVariant).
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_inventory", "allow_backorder"}).AddRow(1, true, false))
	mock.ExpectRollback()

	err = repo.Reserve(context.Background(), []domain.StockAdjustment{
		{VariantID: okVariant, Quantity: 5},
		{VariantID: shortVariant, Quantity: 2},
	})

	var short *errors.ErrInsufficientStock
	if !stderrors.As(err, &short) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if short.Requested != 2 || short.Available != 1 {
		t.Errorf("unexpected error detail: %+v", short)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReserveLocksRowsInVariantOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewInventoryRepository(db, zap.NewNop())

	low := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	high := uuid.MustParse("eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee")

	// The batch lists high before low; the locks must still be taken in
	// ascending variant order so opposing batches cannot deadlock
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock, track_inventory, allow_backorder").
		WithArgs(low).
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_inventory", "allow_backorder"}).AddRow(10, true, false))
	mock.ExpectExec("UPDATE inventory_records").
		WithArgs(low, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT stock, track_inventory, allow_backorder").
		WithArgs(high).
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_inventory", "allow_backorder"}).AddRow(10, true, false))
	mock.ExpectExec("UPDATE inventory_records").
		WithArgs(high, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Reserve(context.Background(), []domain.StockAdjustment{
		{VariantID: high, Quantity: 1},
		{VariantID: low, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReserveSkipsUntrackedVariants(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewInventoryRepository(db, zap.NewNop())

	variantID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock, track_inventory, allow_backorder").
		WithArgs(variantID).
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_inventory", "allow_backorder"}).AddRow(0, false, false))
	// No UPDATE for the untracked variant
	mock.ExpectCommit()

	err = repo.Reserve(context.Background(), []domain.StockAdjustment{
		{VariantID: variantID, Quantity: 100},
	})
	if err != nil {
		t.Fatalf("expected reserve to succeed for untracked variant, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
