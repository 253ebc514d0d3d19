package domain

import "sync"

// Direction represents the price movement direction relative to the
// previously observed tick.
type Direction int

const (
	DirectionSame Direction = 0
	DirectionUp   Direction = +1
	DirectionDown Direction = -1
)

type quote struct {
	price float64
	dir   Direction
}

// PriceBook is the process-wide latest-price cache: one logical writer
// stream (the normalizer output) and many concurrent readers. An
// instrument with no observed tick this session is absent, which is
// distinct from a zero price.
type PriceBook struct {
	mu     sync.RWMutex
	quotes map[Instrument]quote
}

func NewPriceBook() *PriceBook {
	return &PriceBook{quotes: make(map[Instrument]quote)}
}

// Set unconditionally overwrites with the latest observed price.
// Last-received-wins: ordering is arrival order, not tick timestamps.
func (b *PriceBook) Set(i Instrument, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir := DirectionSame
	if prev, ok := b.quotes[i]; ok {
		switch {
		case price > prev.price:
			dir = DirectionUp
		case price < prev.price:
			dir = DirectionDown
		}
	}
	b.quotes[i] = quote{price: price, dir: dir}
}

// Get returns the latest price. ok=false means no tick has been
// observed yet; callers must never substitute zero.
func (b *PriceBook) Get(i Instrument) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[i]
	return q.price, ok
}

// Quote returns the latest price plus its movement direction.
func (b *PriceBook) Quote(i Instrument) (price float64, dir Direction, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[i]
	return q.price, q.dir, ok
}

// Snapshot copies the current price map for rendering.
func (b *PriceBook) Snapshot() map[Instrument]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[Instrument]float64, len(b.quotes))
	for i, q := range b.quotes {
		out[i] = q.price
	}
	return out
}
