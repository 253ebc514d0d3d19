package domain

// Side is the direction of a simulated order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus follows the order through its lifecycle.
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusOpen    OrderStatus = "open"
	StatusClosed  OrderStatus = "closed"
)

// Order is a simulated position owned by the order collaborator. The
// ingestion core treats orders as read-only input, except for emitting
// square-off requests when a stop/target threshold is crossed.
// StopLoss and Target are optional; zero means not set.
type Order struct {
	ID          int64
	UserID      int64
	Instrument  Instrument
	Side        Side
	Quantity    float64
	EntryPrice  float64
	Status      OrderStatus
	StopLoss    float64
	Target      float64
	ClosedPrice float64
	Profit      float64
	CreatedAt   int64
	ClosedAt    int64
}

func (o Order) direction() float64 {
	if o.Side == SideSell {
		return -1
	}
	return +1
}

// TriggerKind says which threshold, if any, a tick crossed.
type TriggerKind int

const (
	TriggerNone TriggerKind = iota
	TriggerStop
	TriggerTarget
)

// Triggered reports whether price crosses the order's stop-loss or
// target. Comparison is inclusive threshold crossing, never float
// equality of truncated values. Stop-loss wins when both thresholds
// would match on the same tick.
func (o Order) Triggered(price float64) TriggerKind {
	if o.Status != StatusOpen || price <= 0 {
		return TriggerNone
	}
	if o.Side == SideBuy {
		if o.StopLoss > 0 && price <= o.StopLoss {
			return TriggerStop
		}
		if o.Target > 0 && price >= o.Target {
			return TriggerTarget
		}
		return TriggerNone
	}
	if o.StopLoss > 0 && price >= o.StopLoss {
		return TriggerStop
	}
	if o.Target > 0 && price <= o.Target {
		return TriggerTarget
	}
	return TriggerNone
}

// ProfitAt computes the profit locked in by closing the order at price.
// Used once at close time; closed orders keep the recorded figure.
func (o Order) ProfitAt(price float64) float64 {
	return (price - o.EntryPrice) * o.Quantity * o.direction()
}

// OpenInstruments returns the distinct instruments that have at least
// one open order, in first-seen order.
func OpenInstruments(orders []Order) []Instrument {
	seen := make(map[Instrument]struct{}, len(orders))
	var out []Instrument
	for _, o := range orders {
		if o.Status != StatusOpen {
			continue
		}
		if _, ok := seen[o.Instrument]; ok {
			continue
		}
		seen[o.Instrument] = struct{}{}
		out = append(out, o.Instrument)
	}
	return out
}
