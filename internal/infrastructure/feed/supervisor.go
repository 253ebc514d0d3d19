package feed

import (
	"context"
	"sync"
	"time"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 3 * time.Second
)

// Options tune the retry behaviour; zero values take the defaults.
// OnState, when set, observes every state transition (the ticker
// usecase uses it to flag "feed unavailable" instruments).
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	OnState     func(feed domain.Feed, st port.FeedState)
}

// Supervisor wraps one FeedConn and makes its lifetime resilient to
// transient failure: Idle -> Connecting -> Connected -> Disconnected,
// with a fixed-delay retry on abnormal close, bounded by MaxAttempts.
// A successful connect resets the attempt counter; an intentional
// Close cancels any pending retry and never counts as abnormal.
type Supervisor struct {
	conn    port.FeedConn
	max     int
	delay   time.Duration
	onState func(feed domain.Feed, st port.FeedState)

	mu       sync.Mutex
	ctx      context.Context
	state    port.FeedState
	attempts int
	timer    *time.Timer
	want     []domain.Instrument
}

func NewSupervisor(conn port.FeedConn, opts Options) *Supervisor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	s := &Supervisor{
		conn:    conn,
		max:     opts.MaxAttempts,
		delay:   opts.RetryDelay,
		onState: opts.OnState,
		state:   port.FeedIdle,
	}
	conn.OnDisconnect(s.handleDown)
	return s
}

func (s *Supervisor) Feed() domain.Feed { return s.conn.Feed() }
func (s *Supervisor) Name() string      { return s.conn.Name() }

func (s *Supervisor) State() port.FeedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open starts (or restarts) the connection with a fresh attempt budget.
// It never returns an error and never blocks on the dial: the connect
// runs on its own goroutine (like the retry path) so the caller's loop
// keeps ingesting while a slow dial is in flight.
func (s *Supervisor) Open(ctx context.Context, initial []domain.Instrument) {
	s.mu.Lock()
	s.ctx = ctx
	s.want = append([]domain.Instrument(nil), initial...)
	s.attempts = 0
	s.stopTimerLocked()
	s.setStateLocked(port.FeedConnecting)
	s.mu.Unlock()

	go s.connect()
}

// UpdateSubscriptions records the new desired set and, when a session
// is live, applies the delta to it. A pending retry picks up the
// recorded set instead.
func (s *Supervisor) UpdateSubscriptions(add, remove []domain.Instrument) {
	s.mu.Lock()
	next := make([]domain.Instrument, 0, len(s.want)+len(add))
	removed := make(map[domain.Instrument]struct{}, len(remove))
	for _, i := range remove {
		removed[i] = struct{}{}
	}
	have := make(map[domain.Instrument]struct{}, len(s.want))
	for _, i := range s.want {
		if _, drop := removed[i]; drop {
			continue
		}
		have[i] = struct{}{}
		next = append(next, i)
	}
	for _, i := range add {
		if _, ok := have[i]; !ok {
			next = append(next, i)
		}
	}
	s.want = next
	st := s.state
	s.mu.Unlock()

	if st != port.FeedConnected && st != port.FeedConnecting {
		return
	}
	if err := s.conn.UpdateSubscriptions(add, remove); err != nil {
		// the conn has already routed this into handleDown
		log.Warn().Str("feed", s.Name()).Err(err).Msg("subscription update failed")
	}
}

// Close tears the connection down intentionally and cancels any pending
// reconnect so a stale timer cannot resurrect an unwanted session.
func (s *Supervisor) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.attempts = 0
	s.want = nil
	s.setStateLocked(port.FeedIdle)
	s.mu.Unlock()

	_ = s.conn.Close()
}

func (s *Supervisor) connect() {
	s.mu.Lock()
	ctx := s.ctx
	if ctx == nil || ctx.Err() != nil || len(s.want) == 0 {
		s.setStateLocked(port.FeedIdle)
		s.mu.Unlock()
		return
	}
	want := append([]domain.Instrument(nil), s.want...)
	s.setStateLocked(port.FeedConnecting)
	s.mu.Unlock()

	err := s.conn.Open(ctx, want)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != port.FeedConnecting {
		// superseded by Close or a newer Open
		return
	}
	if err == nil {
		s.attempts = 0
		s.setStateLocked(port.FeedConnected)
		return
	}
	log.Warn().Str("feed", s.Name()).Err(err).Msg("connect failed")
	s.failLocked()
}

// handleDown runs on the conn's read goroutine for abnormal closes.
func (s *Supervisor) handleDown(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != port.FeedConnected && s.state != port.FeedConnecting {
		return
	}
	log.Warn().Str("feed", s.Name()).Err(err).Msg("ws disconnected")
	s.failLocked()
}

func (s *Supervisor) failLocked() {
	s.attempts++
	if s.attempts >= s.max {
		log.Error().Str("feed", s.Name()).Int("attempts", s.attempts).
			Msg("reconnect bound exhausted, feed unavailable")
		s.setStateLocked(port.FeedUnavailable)
		return
	}
	s.setStateLocked(port.FeedDisconnected)
	log.Info().Str("feed", s.Name()).Int("attempt", s.attempts).
		Dur("delay", s.delay).Msg("reconnect scheduled")
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.delay, s.connect)
}

func (s *Supervisor) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Supervisor) setStateLocked(st port.FeedState) {
	if s.state == st {
		return
	}
	s.state = st
	if s.onState != nil {
		go s.onState(s.conn.Feed(), st)
	}
}
