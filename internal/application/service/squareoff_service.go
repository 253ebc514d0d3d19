package service

import (
	"context"
	"fmt"
	"time"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"

	"github.com/rs/zerolog/log"
)

// SquareOffService closes an open order whose stop-loss or target was
// crossed: one write to the order collaborator, one audit record.
type SquareOffService struct {
	store port.OrderStore
	repo  port.Repository
}

func NewSquareOffService(store port.OrderStore, repo port.Repository) *SquareOffService {
	return &SquareOffService{store: store, repo: repo}
}

func reason(kind domain.TriggerKind) string {
	if kind == domain.TriggerStop {
		return "stop_loss"
	}
	return "target"
}

// Execute closes o at price and returns the closed order. The profit is
// computed once here and recorded; it is never re-derived from live
// prices afterwards.
func (s *SquareOffService) Execute(ctx context.Context, o domain.Order, price float64, kind domain.TriggerKind) (domain.Order, error) {
	profit := o.ProfitAt(price)
	ts := time.Now().UnixMilli()

	if err := s.store.CloseOrder(ctx, o.ID, price, profit, ts); err != nil {
		return o, fmt.Errorf("close order %d: %w", o.ID, err)
	}
	if err := s.repo.InsertSquareOff(ctx, ts, o.Instrument, o.ID, reason(kind), price, profit); err != nil {
		log.Warn().Err(err).Int64("order", o.ID).Msg("square-off audit write failed")
	}

	o.Status = domain.StatusClosed
	o.ClosedPrice = price
	o.Profit = profit
	o.ClosedAt = ts

	log.Info().
		Int64("order", o.ID).
		Str("instrument", string(o.Instrument)).
		Str("reason", reason(kind)).
		Float64("price", price).
		Float64("profit", profit).
		Msg("order squared off")
	return o, nil
}
