package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"insights/internal/storage"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewRepository(context.Background(), dsn)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo
}

func TestCreateTableAndCopyFrom(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	cols := []storage.Column{
		{Name: "customer_state", Kind: storage.KindText},
		{Name: "payment_value", Kind: storage.KindReal},
		{Name: "delivered", Kind: storage.KindBool},
		{Name: "purchased_at", Kind: storage.KindTimestamp},
	}
	if err := repo.CreateTable(ctx, "sales_by_state", cols); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	rows := [][]any{
		{"SP", 120.5, true, time.Date(2018, 8, 1, 10, 0, 0, 0, time.UTC)},
		{"RJ", 80.0, false, nil},
	}
	names := []string{"customer_state", "payment_value", "delivered", "purchased_at"}
	n, err := repo.CopyFrom(ctx, "sales_by_state", names, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d; want 2", n)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "sales_by_state"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d; want 2", count)
	}

	var ts string
	if err := repo.db.QueryRowContext(ctx,
		`SELECT purchased_at FROM "sales_by_state" WHERE customer_state = 'SP'`).Scan(&ts); err != nil {
		t.Fatalf("select ts: %v", err)
	}
	if ts != "2018-08-01 10:00:00" {
		t.Fatalf("timestamp stored as %q", ts)
	}
}

func TestCreateTableReplacesExisting(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	cols := []storage.Column{{Name: "a", Kind: storage.KindText}}
	if err := repo.CreateTable(ctx, "t", cols); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, "t", []string{"a"}, [][]any{{"x"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}

	// Re-running the export drops the old contents.
	if err := repo.CreateTable(ctx, "t", cols); err != nil {
		t.Fatalf("CreateTable again: %v", err)
	}
	var count int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "t"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after recreate = %d; want 0", count)
	}
}

func TestCopyFromRowWidthMismatch(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	if err := repo.CreateTable(ctx, "t", []storage.Column{{Name: "a", Kind: storage.KindText}}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, "t", []string{"a"}, [][]any{{"x", "extra"}}); err == nil {
		t.Fatalf("CopyFrom should reject mismatched row width")
	}
}
