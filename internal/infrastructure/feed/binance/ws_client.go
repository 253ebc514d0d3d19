package binance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	dialTimeout = 10 * time.Second
	// no client heartbeat on this feed (server-side keepalive); the
	// read deadline acts as a dead-connection watchdog at 2x the
	// upstream ping interval
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
)

// StreamConn is the crypto feed connection. The upstream combined
// stream only supports fixing the stream set in the connect URL, so
// every subscription change redials with the new full set. That is a
// protocol limitation, not an error path.
type StreamConn struct {
	wsURL  string // e.g. wss://stream.binance.com:9443
	onTick port.TickHandler

	mu     sync.Mutex
	ctx    context.Context
	conn   *websocket.Conn
	subs   map[domain.Instrument]struct{}
	onDown func(err error)
	gen    int // session generation; stale read loops stay silent
	closed bool
}

func NewStreamConn(wsURL string, onTick port.TickHandler) *StreamConn {
	return &StreamConn{
		wsURL:  strings.TrimSpace(wsURL),
		onTick: onTick,
		subs:   make(map[domain.Instrument]struct{}),
	}
}

func (c *StreamConn) Name() string      { return "binance" }
func (c *StreamConn) Feed() domain.Feed { return domain.FeedCrypto }

func (c *StreamConn) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDown = fn
}

func (c *StreamConn) Subscribed() []domain.Instrument {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Instrument, 0, len(c.subs))
	for _, i := range domain.Instruments {
		if _, ok := c.subs[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

func (c *StreamConn) Open(ctx context.Context, initial []domain.Instrument) error {
	c.mu.Lock()
	c.ctx = ctx
	c.closed = false
	c.subs = make(map[domain.Instrument]struct{}, len(initial))
	for _, i := range initial {
		if i.Feed() == domain.FeedCrypto && i.Valid() {
			c.subs[i] = struct{}{}
		}
	}
	c.mu.Unlock()

	return c.redial()
}

// UpdateSubscriptions applies the delta by redialing with the full new
// set: the combined stream has no incremental unsubscribe. The redial
// happens off the caller's goroutine so a slow dial cannot stall tick
// ingestion; a failure is routed to the disconnect callback and the
// supervisor's retry path picks it up.
func (c *StreamConn) UpdateSubscriptions(add, remove []domain.Instrument) error {
	c.mu.Lock()
	for _, i := range add {
		if i.Feed() == domain.FeedCrypto && i.Valid() {
			c.subs[i] = struct{}{}
		}
	}
	for _, i := range remove {
		delete(c.subs, i)
	}
	empty := len(c.subs) == 0
	c.mu.Unlock()

	if empty {
		return c.Close()
	}
	go func() {
		if err := c.redial(); err != nil {
			c.notifyDown(err)
		}
	}()
	return nil
}

func (c *StreamConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.gen++
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		// socket may already be gone
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		_ = conn.Close()
	}
	return nil
}

func (c *StreamConn) redial() error {
	c.mu.Lock()
	ctx := c.ctx
	streams := make([]string, 0, len(c.subs))
	for _, i := range domain.Instruments {
		if _, ok := c.subs[i]; ok {
			streams = append(streams, i.StreamName())
		}
	}
	// retire the previous session before dialing the next one
	c.gen++
	gen := c.gen
	old := c.conn
	c.conn = nil
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if ctx == nil {
		return errors.New("open not called")
	}
	if len(streams) == 0 {
		return errors.New("no crypto instruments to subscribe")
	}

	wsURL, err := combinedURL(c.wsURL, streams)
	if err != nil {
		return err
	}

	log.Info().Str("feed", c.Name()).Strs("streams", streams).Msg("ws connecting")
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(dctx, wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Name(), err)
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		_ = conn.Close()
		return errors.New("connection superseded during dial")
	}
	c.conn = conn
	c.mu.Unlock()

	log.Info().Str("feed", c.Name()).Msg("ws connected")
	go c.readLoop(ctx, conn, gen)
	return nil
}

func combinedURL(base string, streams []string) (string, error) {
	if base == "" {
		return "", errors.New("crypto feed ws_url empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

func (c *StreamConn) readLoop(ctx context.Context, conn *websocket.Conn, gen int) {
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && c.isCurrent(gen) {
				log.Warn().Str("feed", c.Name()).Err(err).Msg("ws read failed")
				c.notifyDown(err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		// hand off synchronously, in arrival order; a superseded
		// session must not deliver late ticks
		if tick, ok := ParseFrame(b, time.Now()); ok && c.isCurrent(gen) {
			c.onTick(tick)
		}
	}
}

func (c *StreamConn) isCurrent(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen && !c.closed
}

func (c *StreamConn) notifyDown(err error) {
	c.mu.Lock()
	fn := c.onDown
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

var _ port.FeedConn = (*StreamConn)(nil)
