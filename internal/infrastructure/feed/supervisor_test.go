package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"
)

type fakeConn struct {
	mu       sync.Mutex
	opens    int
	last     []domain.Instrument
	onDown   func(error)
	openErr  func(n int) error
	openGate chan struct{} // when set, Open blocks until the gate closes
}

func (f *fakeConn) Name() string      { return "fake" }
func (f *fakeConn) Feed() domain.Feed { return domain.FeedCrypto }

func (f *fakeConn) Open(ctx context.Context, initial []domain.Instrument) error {
	if f.openGate != nil {
		<-f.openGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.last = append([]domain.Instrument(nil), initial...)
	if f.openErr != nil {
		return f.openErr(f.opens)
	}
	return nil
}

func (f *fakeConn) UpdateSubscriptions(add, remove []domain.Instrument) error { return nil }
func (f *fakeConn) Close() error                                             { return nil }
func (f *fakeConn) OnDisconnect(fn func(error))                              { f.onDown = fn }
func (f *fakeConn) Subscribed() []domain.Instrument                          { return nil }

func (f *fakeConn) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *fakeConn) lastInitial() []domain.Instrument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

var _ port.FeedConn = (*fakeConn)(nil)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestSupervisorConnects(t *testing.T) {
	conn := &fakeConn{}
	sup := NewSupervisor(conn, Options{RetryDelay: time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})

	waitFor(t, func() bool { return sup.State() == port.FeedConnected })
	if conn.openCount() != 1 {
		t.Errorf("opens = %d", conn.openCount())
	}
}

func TestSupervisorOpenDoesNotBlockCaller(t *testing.T) {
	gate := make(chan struct{})
	conn := &fakeConn{openGate: gate}
	sup := NewSupervisor(conn, Options{RetryDelay: time.Millisecond})

	// dial hangs on the gate; Open must still return immediately
	start := time.Now()
	sup.Open(context.Background(), []domain.Instrument{domain.BTC})
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("Open blocked for %v on a hung dial", elapsed)
	}
	if sup.State() != port.FeedConnecting {
		t.Errorf("state during dial = %v, want connecting", sup.State())
	}

	close(gate)
	waitFor(t, func() bool { return sup.State() == port.FeedConnected })
}

func TestSupervisorReconnectBound(t *testing.T) {
	conn := &fakeConn{openErr: func(int) error { return errors.New("dial refused") }}
	sup := NewSupervisor(conn, Options{RetryDelay: time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})

	waitFor(t, func() bool { return sup.State() == port.FeedUnavailable })

	// exactly 5 attempts: the initial open plus 4 scheduled retries
	if got := conn.openCount(); got != 5 {
		t.Errorf("opens = %d, want 5", got)
	}

	// no further attempt after the bound
	time.Sleep(20 * time.Millisecond)
	if got := conn.openCount(); got != 5 {
		t.Errorf("opens after bound = %d, want 5", got)
	}
}

func TestSupervisorResetsCounterOnSuccess(t *testing.T) {
	conn := &fakeConn{openErr: func(n int) error {
		if n == 1 {
			return nil
		}
		return errors.New("dial refused")
	}}
	sup := NewSupervisor(conn, Options{RetryDelay: time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})
	waitFor(t, func() bool { return sup.State() == port.FeedConnected })

	// abnormal close after a successful connect gets a fresh budget of 5
	conn.onDown(errors.New("peer reset"))
	waitFor(t, func() bool { return sup.State() == port.FeedUnavailable })

	// failure 1 was the disconnect itself, then 4 failed redials
	if got := conn.openCount(); got != 5 {
		t.Errorf("opens = %d, want 5 (1 success + 4 failed retries)", got)
	}
}

func TestSupervisorFreshOpenAfterUnavailable(t *testing.T) {
	fail := true
	conn := &fakeConn{openErr: func(int) error {
		if fail {
			return errors.New("dial refused")
		}
		return nil
	}}
	sup := NewSupervisor(conn, Options{RetryDelay: time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})
	waitFor(t, func() bool { return sup.State() == port.FeedUnavailable })

	// a new subscription need triggers a fresh Open with a reset counter
	fail = false
	sup.Open(context.Background(), []domain.Instrument{domain.BTC, domain.ETH})

	waitFor(t, func() bool { return sup.State() == port.FeedConnected })
	if got := conn.lastInitial(); len(got) != 2 {
		t.Errorf("last initial set = %v", got)
	}
}

func TestSupervisorCloseCancelsPendingRetry(t *testing.T) {
	conn := &fakeConn{openErr: func(int) error { return errors.New("dial refused") }}
	sup := NewSupervisor(conn, Options{RetryDelay: 50 * time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})
	waitFor(t, func() bool { return conn.openCount() == 1 })

	// intentional close while a retry is pending: no zombie reconnect
	sup.Close()
	time.Sleep(120 * time.Millisecond)

	if got := conn.openCount(); got != 1 {
		t.Errorf("opens after close = %d, want 1", got)
	}
	if sup.State() != port.FeedIdle {
		t.Errorf("state = %v, want idle", sup.State())
	}
}

func TestSupervisorIntentionalCloseNotAbnormal(t *testing.T) {
	conn := &fakeConn{}
	sup := NewSupervisor(conn, Options{RetryDelay: time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})
	waitFor(t, func() bool { return conn.openCount() == 1 })
	sup.Close()

	// a late disconnect callback from the closing socket is ignored
	conn.onDown(errors.New("use of closed network connection"))
	time.Sleep(20 * time.Millisecond)

	if got := conn.openCount(); got != 1 {
		t.Errorf("opens = %d, want 1 (no retry after intentional close)", got)
	}
}

func TestSupervisorRetryUsesRecordedSubscriptions(t *testing.T) {
	conn := &fakeConn{openErr: func(n int) error {
		if n == 1 {
			return errors.New("dial refused")
		}
		return nil
	}}
	sup := NewSupervisor(conn, Options{RetryDelay: 5 * time.Millisecond})

	sup.Open(context.Background(), []domain.Instrument{domain.BTC})
	sup.UpdateSubscriptions([]domain.Instrument{domain.ETH}, nil)

	waitFor(t, func() bool { return sup.State() == port.FeedConnected })

	got := conn.lastInitial()
	if len(got) != 2 || got[0] != domain.BTC || got[1] != domain.ETH {
		t.Errorf("retry subscribed %v, want [BTC ETH]", got)
	}
}
