package service

import (
	"context"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"
)

// OrderService reads from the order collaborator: the open-order subset
// drives subscriptions and P&L, the realized summary feeds the
// account-level aggregate.
type OrderService struct {
	store port.OrderStore
}

func NewOrderService(store port.OrderStore) *OrderService {
	return &OrderService{store: store}
}

func (s *OrderService) OpenOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.store.ListOpenOrders(ctx, userID)
}

func (s *OrderService) Realized(ctx context.Context, userID int64) (float64, error) {
	return s.store.RealizedSummary(ctx, userID)
}
