package main

import (
	"context"
	"path/filepath"
	"testing"

	"tabbook/backend/internal/config"
	"tabbook/backend/internal/store"
)

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cases := []config.Config{
		{Port: "http", StoreDriver: config.DriverMemory},
		{Port: "8080", StoreDriver: config.DriverPostgres},
		{Port: "8080", StoreDriver: config.DriverMySQL},
		{Port: "8080", StoreDriver: config.DriverSQLite},
	}
	for _, cfg := range cases {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected config %+v to be rejected", cfg)
		}
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	cfg := config.Config{Port: "8080", StoreDriver: config.DriverSQLite, SQLitePath: "data/tabbook.db"}
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("expected defaults to pass, got %v", err)
	}
}

func TestOpenRepositoryMemoryAndSQLite(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []config.Config{
		{StoreDriver: config.DriverMemory},
		{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "tabbook.db")},
	} {
		repo, err := openRepository(ctx, cfg)
		if err != nil {
			t.Fatalf("open %s: %v", cfg.StoreDriver, err)
		}
		if err := repo.Save(ctx, store.CollectionActiveView, "tabs"); err != nil {
			t.Fatalf("save on %s: %v", cfg.StoreDriver, err)
		}
		var view string
		found, err := repo.Load(ctx, store.CollectionActiveView, &view)
		if err != nil || !found || view != "tabs" {
			t.Fatalf("load on %s: found=%v view=%q err=%v", cfg.StoreDriver, found, view, err)
		}
		if err := repo.Close(); err != nil {
			t.Fatalf("close %s: %v", cfg.StoreDriver, err)
		}
	}
}

func TestOpenRepositoryUnknownDriver(t *testing.T) {
	if _, err := openRepository(context.Background(), config.Config{StoreDriver: "oracle"}); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}
