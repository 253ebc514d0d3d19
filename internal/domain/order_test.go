package domain

import "testing"

func TestValuateBuyOrder(t *testing.T) {
	book := NewPriceBook()
	book.Set(BTC, 65000)

	o := Order{ID: 1, Instrument: BTC, Side: SideBuy, Quantity: 0.1, EntryPrice: 64000, Status: StatusOpen}
	v := Valuate(o, book)

	if !v.HasPrice {
		t.Fatalf("expected priced valuation")
	}
	if v.PnL != 100 {
		t.Errorf("buy pnl = %v, want 100", v.PnL)
	}
}

func TestValuateSellOrder(t *testing.T) {
	book := NewPriceBook()
	book.Set(ETH, 3100)

	o := Order{ID: 2, Instrument: ETH, Side: SideSell, Quantity: 2, EntryPrice: 3200, Status: StatusOpen}
	v := Valuate(o, book)

	if !v.HasPrice || v.PnL != 200 {
		t.Errorf("sell pnl = %v (priced=%v), want 200", v.PnL, v.HasPrice)
	}
}

func TestValuateAbsentPrice(t *testing.T) {
	book := NewPriceBook()

	o := Order{ID: 3, Instrument: SOL, Side: SideBuy, Quantity: 5, EntryPrice: 150, Status: StatusOpen}
	v := Valuate(o, book)

	if v.HasPrice {
		t.Errorf("valuation must be unavailable without a tick, got pnl=%v", v.PnL)
	}
	if v.PnL != 0 {
		t.Errorf("unavailable valuation must not carry a figure")
	}
}

func TestValuateClosedOrderUsesRecordedProfit(t *testing.T) {
	book := NewPriceBook()
	book.Set(BTC, 70000) // live price must be ignored

	o := Order{ID: 4, Instrument: BTC, Side: SideBuy, Quantity: 1, EntryPrice: 64000,
		Status: StatusClosed, ClosedPrice: 64250, Profit: 250}
	v := Valuate(o, book)

	if !v.HasPrice || v.PnL != 250 {
		t.Errorf("closed order pnl = %v, want recorded 250", v.PnL)
	}
}

func TestUnrealizedForAggregates(t *testing.T) {
	book := NewPriceBook()
	book.Set(BTC, 65000)

	orders := []Order{
		{ID: 1, Instrument: BTC, Side: SideBuy, Quantity: 0.1, EntryPrice: 64000, Status: StatusOpen},
		{ID: 2, Instrument: BTC, Side: SideSell, Quantity: 0.2, EntryPrice: 66000, Status: StatusOpen},
		{ID: 3, Instrument: BTC, Side: SideBuy, Quantity: 1, EntryPrice: 60000, Status: StatusClosed, Profit: 999},
		{ID: 4, Instrument: ETH, Side: SideBuy, Quantity: 1, EntryPrice: 3000, Status: StatusOpen},
	}

	total, ok := UnrealizedFor(BTC, orders, book)
	if !ok {
		t.Fatalf("BTC priced, expected ok")
	}
	// 100 from the buy, 200 from the sell; closed and foreign orders excluded
	if total != 300 {
		t.Errorf("aggregate = %v, want 300", total)
	}

	if _, ok := UnrealizedFor(ETH, orders, book); ok {
		t.Errorf("ETH has no tick, aggregate must be unavailable")
	}
}

func TestAccountPnL(t *testing.T) {
	book := NewPriceBook()
	book.Set(BTC, 65000)

	orders := []Order{
		{ID: 1, Instrument: BTC, Side: SideBuy, Quantity: 0.1, EntryPrice: 64000, Status: StatusOpen},
		{ID: 2, Instrument: SOL, Side: SideBuy, Quantity: 2, EntryPrice: 150, Status: StatusOpen},
	}

	total, unpriced := AccountPnL(orders, book, 50)
	if total != 150 {
		t.Errorf("account pnl = %v, want 150 (100 unrealized + 50 realized)", total)
	}
	if unpriced != 1 {
		t.Errorf("unpriced = %d, want 1 (SOL has no tick)", unpriced)
	}
}

func TestTriggeredBuy(t *testing.T) {
	o := Order{Instrument: BTC, Side: SideBuy, Quantity: 1, EntryPrice: 64000,
		Status: StatusOpen, StopLoss: 63000, Target: 66000}

	cases := []struct {
		price float64
		want  TriggerKind
	}{
		{64000, TriggerNone},
		{63000.01, TriggerNone},
		{63000, TriggerStop}, // inclusive crossing
		{62500, TriggerStop},
		{65999.99, TriggerNone},
		{66000, TriggerTarget},
		{67000, TriggerTarget},
	}
	for _, c := range cases {
		if got := o.Triggered(c.price); got != c.want {
			t.Errorf("Triggered(%v) = %v, want %v", c.price, got, c.want)
		}
	}
}

func TestTriggeredSell(t *testing.T) {
	o := Order{Instrument: ETH, Side: SideSell, Quantity: 1, EntryPrice: 3200,
		Status: StatusOpen, StopLoss: 3300, Target: 3100}

	if got := o.Triggered(3300); got != TriggerStop {
		t.Errorf("sell stop at threshold = %v", got)
	}
	if got := o.Triggered(3100); got != TriggerTarget {
		t.Errorf("sell target at threshold = %v", got)
	}
	if got := o.Triggered(3200); got != TriggerNone {
		t.Errorf("mid price must not trigger, got %v", got)
	}
}

func TestTriggeredRequiresOpenStatus(t *testing.T) {
	o := Order{Instrument: BTC, Side: SideBuy, Status: StatusPending, StopLoss: 63000}
	if got := o.Triggered(62000); got != TriggerNone {
		t.Errorf("pending order triggered = %v", got)
	}
}

func TestTriggeredWithoutThresholds(t *testing.T) {
	o := Order{Instrument: BTC, Side: SideBuy, Status: StatusOpen}
	if got := o.Triggered(1); got != TriggerNone {
		t.Errorf("no thresholds set, got %v", got)
	}
}

func TestOpenInstruments(t *testing.T) {
	orders := []Order{
		{Instrument: BTC, Status: StatusOpen},
		{Instrument: XAU, Status: StatusOpen},
		{Instrument: BTC, Status: StatusOpen},
		{Instrument: ETH, Status: StatusClosed},
	}
	got := OpenInstruments(orders)
	if len(got) != 2 || got[0] != BTC || got[1] != XAU {
		t.Errorf("open instruments = %v", got)
	}
}

func TestProfitAt(t *testing.T) {
	buy := Order{Side: SideBuy, Quantity: 0.1, EntryPrice: 64000}
	if p := buy.ProfitAt(65000); p != 100 {
		t.Errorf("buy profit = %v", p)
	}
	sell := Order{Side: SideSell, Quantity: 2, EntryPrice: 3200}
	if p := sell.ProfitAt(3100); p != 200 {
		t.Errorf("sell profit = %v", p)
	}
}
