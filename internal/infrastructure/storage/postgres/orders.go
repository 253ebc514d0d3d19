package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"
)

// OrderStore reads and closes simulated orders in the shared Postgres
// database owned by the trading app. The ingestion side never creates
// orders; it only lists open ones and records square-offs.
type OrderStore struct {
	db *sql.DB
}

func New(dsn string) (*OrderStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	s := &OrderStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *OrderStore) Close() error { return s.db.Close() }

func (s *OrderStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  instrument TEXT NOT NULL,
  side TEXT NOT NULL,
  quantity DOUBLE PRECISION NOT NULL,
  entry_price DOUBLE PRECISION NOT NULL,
  status TEXT NOT NULL,
  stop_loss DOUBLE PRECISION NOT NULL DEFAULT 0,
  target DOUBLE PRECISION NOT NULL DEFAULT 0,
  closed_price DOUBLE PRECISION NOT NULL DEFAULT 0,
  profit DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL,
  closed_at BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status);
CREATE INDEX IF NOT EXISTS idx_orders_instrument ON orders(instrument);
`)
	return err
}

func (s *OrderStore) ListOpenOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, instrument, side, quantity, entry_price, status,
		       stop_loss, target, closed_price, profit, created_at, closed_at
		FROM orders
		WHERE user_id=$1 AND status='open'
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var instrument, side, status string
		if err := rows.Scan(&o.ID, &o.UserID, &instrument, &side, &o.Quantity, &o.EntryPrice,
			&status, &o.StopLoss, &o.Target, &o.ClosedPrice, &o.Profit, &o.CreatedAt, &o.ClosedAt); err != nil {
			return nil, err
		}
		o.Instrument = domain.Instrument(instrument)
		o.Side = domain.Side(side)
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *OrderStore) CloseOrder(ctx context.Context, id int64, closedPrice, profit float64, ts int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status='closed', closed_price=$2, profit=$3, closed_at=$4
		WHERE id=$1 AND status='open'
	`, id, closedPrice, profit, ts)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *OrderStore) RealizedSummary(ctx context.Context, userID int64) (float64, error) {
	var realized float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(profit), 0) FROM orders WHERE user_id=$1 AND status='closed'
	`, userID).Scan(&realized)
	return realized, err
}

var _ port.OrderStore = (*OrderStore)(nil)
