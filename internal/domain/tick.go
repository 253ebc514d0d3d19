package domain

import "time"

// PriceTick is a single observed price update for one instrument.
// Ticks are transient: produced by a feed normalizer, applied to the
// price book, never persisted as-is.
type PriceTick struct {
	Instrument Instrument
	Price      float64
	ObservedAt time.Time
}

func (t PriceTick) Valid() bool {
	return t.Instrument.Valid() && t.Price > 0
}
