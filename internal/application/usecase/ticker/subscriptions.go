package ticker

import (
	"context"
	"sync"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"
)

// FeedHandle is the subscription manager's view of one supervised feed
// connection.
type FeedHandle interface {
	Feed() domain.Feed
	State() port.FeedState
	Open(ctx context.Context, initial []domain.Instrument)
	UpdateSubscriptions(add, remove []domain.Instrument)
	Close()
}

// SubscriptionManager owns the decision of what should be subscribed:
// the selected instrument plus every instrument holding an open order.
// It reconciles that target against the per-feed live sets, opening a
// feed on first need and closing it once nothing requires it.
type SubscriptionManager struct {
	mu       sync.Mutex
	feeds    map[domain.Feed]FeedHandle
	selected domain.Instrument
	held     []domain.Instrument
	current  map[domain.Feed][]domain.Instrument
}

func NewSubscriptionManager(handles ...FeedHandle) *SubscriptionManager {
	feeds := make(map[domain.Feed]FeedHandle, len(handles))
	for _, h := range handles {
		feeds[h.Feed()] = h
	}
	return &SubscriptionManager{
		feeds:   feeds,
		current: make(map[domain.Feed][]domain.Instrument),
	}
}

// SetSelected switches the UI-focused instrument. Switching away from
// an instrument that still holds an open order keeps its subscription:
// the open position's P&L need outweighs the focus change.
func (m *SubscriptionManager) SetSelected(ctx context.Context, i domain.Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = i
	m.reconcileLocked(ctx)
}

// SetOpenOrders replaces the set of instruments held by open orders.
func (m *SubscriptionManager) SetOpenOrders(ctx context.Context, held []domain.Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = append(m.held[:0], held...)
	m.reconcileLocked(ctx)
}

// Desired returns the current target set in display order.
func (m *SubscriptionManager) Desired() []domain.Instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desiredLocked()
}

func (m *SubscriptionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for f, h := range m.feeds {
		if len(m.current[f]) > 0 {
			h.Close()
		}
		m.current[f] = nil
	}
}

func (m *SubscriptionManager) desiredLocked() []domain.Instrument {
	want := make(map[domain.Instrument]struct{}, len(m.held)+1)
	if m.selected.Valid() {
		want[m.selected] = struct{}{}
	}
	for _, i := range m.held {
		if i.Valid() {
			want[i] = struct{}{}
		}
	}
	out := make([]domain.Instrument, 0, len(want))
	for _, i := range domain.Instruments {
		if _, ok := want[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

func (m *SubscriptionManager) reconcileLocked(ctx context.Context) {
	desired := make(map[domain.Feed][]domain.Instrument, len(m.feeds))
	for _, i := range m.desiredLocked() {
		desired[i.Feed()] = append(desired[i.Feed()], i)
	}

	for f, h := range m.feeds {
		want := desired[f]
		cur := m.current[f]

		switch {
		case len(cur) == 0 && len(want) > 0:
			h.Open(ctx, want)

		case len(cur) > 0 && len(want) == 0:
			h.Close()

		default:
			add, remove := diff(cur, want)
			if len(add) == 0 && len(remove) == 0 {
				continue
			}
			if h.State() == port.FeedUnavailable {
				// fresh need after an exhausted retry budget
				h.Open(ctx, want)
			} else {
				h.UpdateSubscriptions(add, remove)
			}
		}
		m.current[f] = want
	}
}

func diff(cur, want []domain.Instrument) (add, remove []domain.Instrument) {
	curSet := make(map[domain.Instrument]struct{}, len(cur))
	for _, i := range cur {
		curSet[i] = struct{}{}
	}
	wantSet := make(map[domain.Instrument]struct{}, len(want))
	for _, i := range want {
		wantSet[i] = struct{}{}
		if _, ok := curSet[i]; !ok {
			add = append(add, i)
		}
	}
	for _, i := range cur {
		if _, ok := wantSet[i]; !ok {
			remove = append(remove, i)
		}
	}
	return add, remove
}
