package service

import (
	"papertrade/internal/domain"
)

// PnLService derives profit-or-loss figures from the order list and the
// price book. Pure reads; all arithmetic lives in the domain package.
type PnLService struct {
	book *domain.PriceBook
}

func NewPnLService(book *domain.PriceBook) *PnLService {
	return &PnLService{book: book}
}

func (s *PnLService) Valuations(orders []domain.Order) []domain.Valuation {
	out := make([]domain.Valuation, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.Valuate(o, s.book))
	}
	return out
}

// InstrumentUnrealized sums open-order P&L for one instrument.
// ok=false means no tick yet: render as unavailable, never zero.
func (s *PnLService) InstrumentUnrealized(i domain.Instrument, orders []domain.Order) (float64, bool) {
	return domain.UnrealizedFor(i, orders, s.book)
}

// Account combines open-order unrealized P&L with the realized figure
// from the summary collaborator.
func (s *PnLService) Account(orders []domain.Order, realized float64) (total float64, unpriced int) {
	return domain.AccountPnL(orders, s.book, realized)
}
