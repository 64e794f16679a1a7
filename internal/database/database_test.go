package database

import (
	"context"
	"path/filepath"
	"testing"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
)

func TestOpenSQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "wb.db")}
	pool, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	if pool.Driver() != DriverSQLite {
		t.Fatalf("driver = %q", pool.Driver())
	}
	ctx := context.Background()
	if err := pool.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	w := &model.Whiteboard{Name: "x", CanvasData: []byte(`{}`)}
	if err := pool.Repository().Create(ctx, w); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Repository().FindByID(ctx, w.ID); err != nil {
		t.Fatal(err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCloseNilPool(t *testing.T) {
	var p *Pool
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
