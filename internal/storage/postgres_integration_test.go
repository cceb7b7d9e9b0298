package storage

import (
	"context"
	"testing"

	"github.com/HaidarGhanem/management-crud/internal/config"
	"github.com/HaidarGhanem/management-crud/internal/testenv"
)

// Runs only when a .env.test with DATABASE_URL is present; everything else is
// covered by the file and memory drivers.
func TestPostgresDriver(t *testing.T) {
	if err := testenv.Load(); err != nil {
		t.Skipf("integration env not available: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Database.URL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := ConnectPostgres(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	unlock, err := testenv.LockIntegrationDB(ctx, pool, 7202604)
	if err != nil {
		t.Fatalf("lock integration db: %v", err)
	}
	defer unlock()

	driver, err := NewPostgres(ctx, pool)
	if err != nil {
		t.Fatalf("new postgres driver: %v", err)
	}

	collection := "driver_test"
	if _, err := pool.Exec(ctx, `delete from collections where name = $1`, collection); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	data, err := driver.Load(ctx, collection)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil document for missing collection, got %q", data)
	}

	if err := driver.Save(ctx, collection, []byte(`["a"]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := driver.Save(ctx, collection, []byte(`["b"]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err = driver.Load(ctx, collection)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `["b"]` {
		t.Fatalf("load = %q, want latest document", data)
	}

	if _, err := pool.Exec(ctx, `delete from collections where name = $1`, collection); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
