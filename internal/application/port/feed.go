package port

import (
	"context"

	"papertrade/internal/domain"
)

// FeedState tracks one feed connection through its lifecycle.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedConnecting
	FeedConnected
	FeedDisconnected
	// FeedUnavailable means the reconnect bound was exhausted; no
	// further automatic attempts happen until a fresh Open.
	FeedUnavailable
)

func (s FeedState) String() string {
	switch s {
	case FeedIdle:
		return "idle"
	case FeedConnecting:
		return "connecting"
	case FeedConnected:
		return "connected"
	case FeedDisconnected:
		return "disconnected"
	case FeedUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// TickHandler receives normalized ticks synchronously, in arrival order.
type TickHandler func(domain.PriceTick)

// FeedConn owns exactly one streaming connection to one upstream price
// source and translates subscribe/unsubscribe intents into that
// source's wire protocol.
type FeedConn interface {
	Name() string
	Feed() domain.Feed

	// Open establishes the connection and subscribes the initial set.
	// Errors are meant for the reconnection supervisor, not end callers.
	Open(ctx context.Context, initial []domain.Instrument) error

	// UpdateSubscriptions applies a subscription delta. The crypto feed
	// can only fix its stream set at connect time, so any change there
	// redials with the new full set; the commodity feed sends
	// incremental subscribe/unsubscribe messages.
	UpdateSubscriptions(add, remove []domain.Instrument) error

	// Close is intentional teardown: best-effort unsubscribe, then
	// terminate. Never reported as an abnormal disconnect.
	Close() error

	// OnDisconnect registers the abnormal-close callback. Invoked at
	// most once per session, never for an intentional Close.
	OnDisconnect(fn func(err error))

	// Subscribed returns the instruments of the current session.
	Subscribed() []domain.Instrument
}
