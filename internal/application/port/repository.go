package port

import (
	"context"

	"papertrade/internal/domain"
)

type Repository interface {
	// Latest-price cache shared with other surfaces of the app
	UpsertLatestPrice(ctx context.Context, i domain.Instrument, price float64, ts int64) error

	// Periodic display snapshots
	InsertSnapshot(ctx context.Context, ts int64, payload string) error

	// Square-off audit trail: one record per triggered stop/target
	InsertSquareOff(ctx context.Context, ts int64, i domain.Instrument, orderID int64, reason string, price, profit float64) error

	// Connection management
	Close() error
}
