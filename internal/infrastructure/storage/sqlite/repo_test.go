package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"papertrade/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepoUpsertPrice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertLatestPrice(ctx, domain.BTC, 65000.5, 1234567890); err != nil {
		t.Fatalf("UpsertLatestPrice failed: %v", err)
	}

	// second write for the same instrument replaces, not appends
	if err := repo.UpsertLatestPrice(ctx, domain.BTC, 65100.0, 1234567999); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	price, ts, err := repo.GetLatestPrice(ctx, domain.BTC)
	if err != nil {
		t.Fatalf("GetLatestPrice failed: %v", err)
	}
	if price != 65100.0 || ts != 1234567999 {
		t.Errorf("expected 65100.0 @ 1234567999, got %v @ %v", price, ts)
	}
}

func TestSQLiteRepoInsertSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	payload := `BTC 65000.50 P&L +100.00`
	if err := repo.InsertSnapshot(ctx, 1234567890, payload); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
}

func TestSQLiteRepoInsertSquareOff(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.InsertSquareOff(ctx, 1234567890, domain.ETH, 42, "target", 3400.0, 150.0)
	if err != nil {
		t.Fatalf("InsertSquareOff failed: %v", err)
	}

	var count int
	if err := repo.GetDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM square_offs WHERE order_id=42 AND reason='target'`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 square-off row, got %d", count)
	}
}
