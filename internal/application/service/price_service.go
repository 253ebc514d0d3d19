package service

import (
	"context"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"
)

// PriceService is the single write path into the price book: ticks from
// the feed normalizers land here and nowhere else.
type PriceService struct {
	book *domain.PriceBook
	repo port.Repository
}

func NewPriceService(book *domain.PriceBook, repo port.Repository) *PriceService {
	return &PriceService{book: book, repo: repo}
}

// Apply records the tick in the price book and mirrors it into the
// shared latest-price cache. The book update always happens; a cache
// write failure is reported but must not stall ingestion.
func (s *PriceService) Apply(ctx context.Context, t domain.PriceTick) error {
	if !t.Valid() {
		return nil
	}
	s.book.Set(t.Instrument, t.Price)
	return s.repo.UpsertLatestPrice(ctx, t.Instrument, t.Price, t.ObservedAt.UnixMilli())
}
