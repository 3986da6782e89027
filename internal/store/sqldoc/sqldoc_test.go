package sqldoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/store"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "tabbook.db")
	s, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	exerciseRepository(t, s)
}

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("TABBOOK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TABBOOK_TEST_DATABASE_URL to run postgres integration test")
	}

	s, err := OpenPostgres(context.Background(), databaseURL)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.Exec(`DELETE FROM documents`)
		_ = s.Close()
	})

	exerciseRepository(t, s)
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TABBOOK_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("set TABBOOK_TEST_MYSQL_DSN to run mysql integration test")
	}

	s, err := OpenMySQL(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.Exec(`DELETE FROM documents`)
		_ = s.Close()
	})

	exerciseRepository(t, s)
}

func exerciseRepository(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing collection is not found", func(t *testing.T) {
		var guests []domain.Guest
		found, err := s.Load(ctx, store.CollectionGuests, &guests)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if found {
			t.Fatalf("expected guests to be missing on a fresh store")
		}
	})

	t.Run("save all round trips every collection", func(t *testing.T) {
		inventory := []domain.InventoryItem{
			{ID: "item-1", Name: "Pale Ale", Cost: decimal.RequireFromString("2.50"), Price: decimal.NewFromInt(6), Stock: 12},
		}
		sales := []domain.SaleRecord{
			{TransactionID: "tx-1", ItemID: "item-1", Name: "Pale Ale", Price: decimal.NewFromInt(6), Profit: decimal.RequireFromString("3.50"), Type: domain.RecordSale, Date: "2026-03-01"},
		}
		docs := map[store.Collection]any{
			store.CollectionInventory:      inventory,
			store.CollectionProductHistory: []domain.ProductHistoryEntry{{ID: "h-1", Name: "Pale Ale"}},
			store.CollectionSales:          sales,
			store.CollectionGuests:         []domain.Guest{},
			store.CollectionExpenses:       []domain.ExpenseRecord{{ID: "e-1", Category: "rent", Amount: decimal.NewFromInt(900), Date: "2026-03-01"}},
			store.CollectionManualMonthly:  []domain.ManualMonthlyEntry{{ID: "m-1", Month: "2026-02", Profit: decimal.NewFromInt(40)}},
			store.CollectionAddons:         []domain.Addon{{ID: "a-1", Name: "Cheese", Price: decimal.NewFromInt(1)}},
			store.CollectionActiveView:     "tabs",
		}
		if err := s.SaveAll(ctx, docs); err != nil {
			t.Fatalf("save all: %v", err)
		}

		var gotInventory []domain.InventoryItem
		found, err := s.Load(ctx, store.CollectionInventory, &gotInventory)
		if err != nil || !found {
			t.Fatalf("load inventory: found=%v err=%v", found, err)
		}
		if len(gotInventory) != 1 || !gotInventory[0].Cost.Equal(decimal.RequireFromString("2.5")) {
			t.Fatalf("unexpected inventory: %+v", gotInventory)
		}

		var gotSales []domain.SaleRecord
		if _, err := s.Load(ctx, store.CollectionSales, &gotSales); err != nil {
			t.Fatalf("load sales: %v", err)
		}
		if len(gotSales) != 1 || !gotSales[0].Profit.Equal(decimal.RequireFromString("3.5")) {
			t.Fatalf("unexpected sales: %+v", gotSales)
		}

		var view string
		if _, err := s.Load(ctx, store.CollectionActiveView, &view); err != nil || view != "tabs" {
			t.Fatalf("unexpected active view %q: %v", view, err)
		}
	})

	t.Run("save overwrites previous document", func(t *testing.T) {
		if err := s.Save(ctx, store.CollectionActiveView, "reports"); err != nil {
			t.Fatalf("save: %v", err)
		}
		var view string
		if _, err := s.Load(ctx, store.CollectionActiveView, &view); err != nil || view != "reports" {
			t.Fatalf("expected overwritten view, got %q: %v", view, err)
		}
	})

	t.Run("unknown collection is rejected", func(t *testing.T) {
		err := s.Save(ctx, store.Collection("bogus"), 1)
		if !errors.Is(err, store.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}
