package domain

// Valuation is the mark-to-market result for one order. HasPrice=false
// means no tick has arrived for the order's instrument this session and
// the figure must render as unavailable, not as zero.
type Valuation struct {
	OrderID    int64
	Instrument Instrument
	PnL        float64
	HasPrice   bool
}

// Valuate derives the unrealized P&L of one open order against the
// price book. Closed orders report their recorded profit and are never
// recomputed from live prices.
func Valuate(o Order, book *PriceBook) Valuation {
	v := Valuation{OrderID: o.ID, Instrument: o.Instrument}
	if o.Status == StatusClosed {
		v.PnL = o.Profit
		v.HasPrice = true
		return v
	}
	price, ok := book.Get(o.Instrument)
	if !ok {
		return v
	}
	v.PnL = o.ProfitAt(price)
	v.HasPrice = true
	return v
}

// UnrealizedFor sums unrealized P&L across the open orders of one
// instrument. ok=false when the instrument has no price yet.
func UnrealizedFor(i Instrument, orders []Order, book *PriceBook) (float64, bool) {
	price, ok := book.Get(i)
	if !ok {
		return 0, false
	}
	var total float64
	for _, o := range orders {
		if o.Status != StatusOpen || o.Instrument != i {
			continue
		}
		total += o.ProfitAt(price)
	}
	return total, true
}

// AccountPnL combines unrealized P&L over all priced open orders with
// the realized figure reported by the summary collaborator. Open orders
// whose instrument has no price yet are excluded and counted in
// unpriced so callers can flag the total as partial.
func AccountPnL(orders []Order, book *PriceBook, realized float64) (total float64, unpriced int) {
	total = realized
	for _, o := range orders {
		if o.Status != StatusOpen {
			continue
		}
		price, ok := book.Get(o.Instrument)
		if !ok {
			unpriced++
			continue
		}
		total += o.ProfitAt(price)
	}
	return total, unpriced
}
