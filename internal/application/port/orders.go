package port

import (
	"context"

	"papertrade/internal/domain"
)

// OrderStore is the relational order collaborator. The ingestion core
// reads the open-order subset to drive subscriptions and P&L, and
// writes only through CloseOrder when a square-off fires; everything
// else about order persistence belongs to the collaborator.
type OrderStore interface {
	ListOpenOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	CloseOrder(ctx context.Context, id int64, closedPrice, profit float64, ts int64) error

	// RealizedSummary reports the realized P&L of closed orders, used
	// for the account-level aggregate display.
	RealizedSummary(ctx context.Context, userID int64) (float64, error)

	Close() error
}
