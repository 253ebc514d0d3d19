package finnhub

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
	dialTimeout  = 10 * time.Second
	pingInterval = 30 * time.Second
	// watchdog: force a reconnect when nothing (not even our own ping
	// keeping the link warm) produces inbound traffic for 2x the
	// heartbeat interval
	readTimeout  = 2 * pingInterval
	writeTimeout = 5 * time.Second
)

type wsCommand struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
}

// StreamConn is the commodity feed connection. Unlike the crypto feed
// it supports incremental subscribe/unsubscribe messages on a live
// socket, and it requires a client heartbeat every 30 seconds.
type StreamConn struct {
	wsURL  string // e.g. wss://ws.finnhub.io
	token  string
	onTick port.TickHandler

	mu     sync.Mutex
	ctx    context.Context
	conn   *websocket.Conn
	subs   map[domain.Instrument]struct{}
	onDown func(err error)
	gen    int
	closed bool

	// wmu serializes data-frame writes: subscribe/unsubscribe from the
	// caller and the heartbeat from the ping goroutine share one socket,
	// and the websocket library allows only one concurrent writer.
	wmu sync.Mutex
}

func NewStreamConn(wsURL, token string, onTick port.TickHandler) *StreamConn {
	return &StreamConn{
		wsURL:  strings.TrimSpace(wsURL),
		token:  strings.TrimSpace(token),
		onTick: onTick,
		subs:   make(map[domain.Instrument]struct{}),
	}
}

func (c *StreamConn) Name() string      { return "finnhub" }
func (c *StreamConn) Feed() domain.Feed { return domain.FeedCommodity }

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
	if c.wsURL == "" {
		return errors.New("commodity feed ws_url empty")
	}
	if c.token == "" {
		return errors.New("commodity feed token empty")
	}

	u, err := url.Parse(c.wsURL)
	if err != nil {
		return err
	}
	u.RawQuery = "token=" + url.QueryEscape(c.token)

	log.Info().Str("feed", c.Name()).Msg("ws connecting")
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(dctx, u.String(), nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Name(), err)
	}

	c.mu.Lock()
	c.ctx = ctx
	c.closed = false
	c.gen++
	gen := c.gen
	c.conn = conn
	c.subs = make(map[domain.Instrument]struct{})
	c.mu.Unlock()

	for _, i := range initial {
		if i.Feed() != domain.FeedCommodity || !i.Valid() {
			continue
		}
		if err := c.writeCommand(wsCommand{Type: "subscribe", Symbol: i.CommodityToken()}); err != nil {
			_ = conn.Close()
			return fmt.Errorf("subscribe %s: %w", i, err)
		}
		c.mu.Lock()
		c.subs[i] = struct{}{}
		c.mu.Unlock()
	}

	log.Info().Str("feed", c.Name()).Int("subscriptions", len(initial)).Msg("ws connected")
	go c.readLoop(ctx, conn, gen)
	go c.pingLoop(ctx, gen)
	return nil
}

// UpdateSubscriptions sends incremental subscribe/unsubscribe messages;
// no redial needed on this feed. Unsubscribe failures are swallowed:
// the socket may already be gone and the read loop will report that.
func (c *StreamConn) UpdateSubscriptions(add, remove []domain.Instrument) error {
	for _, i := range add {
		if i.Feed() != domain.FeedCommodity || !i.Valid() {
			continue
		}
		if err := c.writeCommand(wsCommand{Type: "subscribe", Symbol: i.CommodityToken()}); err != nil {
			return fmt.Errorf("subscribe %s: %w", i, err)
		}
		c.mu.Lock()
		c.subs[i] = struct{}{}
		c.mu.Unlock()
	}
	for _, i := range remove {
		_ = c.writeCommand(wsCommand{Type: "unsubscribe", Symbol: i.CommodityToken()})
		c.mu.Lock()
		delete(c.subs, i)
		c.mu.Unlock()
	}
	return nil
}

func (c *StreamConn) Close() error {
	c.mu.Lock()
	subs := make([]domain.Instrument, 0, len(c.subs))
	for i := range c.subs {
		subs = append(subs, i)
	}
	c.mu.Unlock()

	// best-effort unsubscribe before teardown
	for _, i := range subs {
		_ = c.writeCommand(wsCommand{Type: "unsubscribe", Symbol: i.CommodityToken()})
	}

	c.mu.Lock()
	c.closed = true
	c.gen++
	conn := c.conn
	c.conn = nil
	c.subs = make(map[domain.Instrument]struct{})
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		_ = conn.Close()
	}
	return nil
}

func (c *StreamConn) writeCommand(cmd wsCommand) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(cmd)
}

func (c *StreamConn) readLoop(ctx context.Context, conn *websocket.Conn, gen int) {
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

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

		// a superseded session must not deliver late ticks
		if tick, ok := ParseFrame(b, time.Now()); ok && c.isCurrent(gen) {
			c.onTick(tick)
		}
	}
}

func (c *StreamConn) pingLoop(ctx context.Context, gen int) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.isCurrent(gen) {
				return
			}
			if err := c.writeCommand(wsCommand{Type: "ping"}); err != nil {
				// read loop surfaces the broken socket
				return
			}
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
