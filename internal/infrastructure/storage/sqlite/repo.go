package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  instrument TEXT NOT NULL,
  price REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(instrument)
);
CREATE INDEX IF NOT EXISTS idx_prices_ts ON prices(ts_ms);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);

CREATE TABLE IF NOT EXISTS square_offs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  instrument TEXT NOT NULL,
  order_id INTEGER NOT NULL,
  reason TEXT NOT NULL,
  price REAL NOT NULL,
  profit REAL NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_square_offs_ts ON square_offs(ts_ms);
CREATE INDEX IF NOT EXISTS idx_square_offs_order ON square_offs(order_id);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, i domain.Instrument, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prices(instrument, price, ts_ms, created_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(instrument) DO UPDATE SET
		price=excluded.price, ts_ms=excluded.ts_ms
	`, string(i), price, ts, ts)
	return err
}

func (r *Repo) GetLatestPrice(ctx context.Context, i domain.Instrument) (price float64, ts int64, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT price, ts_ms FROM prices WHERE instrument=?`, string(i)).
		Scan(&price, &ts)
	return
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO snapshots(ts_ms, payload, created_at) VALUES(?, ?, ?)`, ts, payload, ts)
	return err
}

func (r *Repo) InsertSquareOff(ctx context.Context, ts int64, i domain.Instrument, orderID int64, reason string, price, profit float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO square_offs(ts_ms, instrument, order_id, reason, price, profit, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, ts, string(i), orderID, reason, price, profit, ts)
	return err
}

var _ port.Repository = (*Repo)(nil)
