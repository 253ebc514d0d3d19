package ticker

import (
	"context"
	"errors"
	"time"

	"papertrade/internal/application/port"
	"papertrade/internal/application/service"
	"papertrade/internal/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type ServiceDeps struct {
	Prices    *service.PriceService
	Orders    *service.OrderService
	SquareOff *service.SquareOffService
	Book      *domain.PriceBook
	Repo      port.Repository
	Sink      port.Sink

	UserID   int64
	Selected domain.Instrument

	SnapshotEvery time.Duration // default 5m
	RefreshEvery  time.Duration // open-order poll, default 10s
	RenderPerSec  float64       // live redraw cap, default 5/s
}

type feedStatus struct {
	feed  domain.Feed
	state port.FeedState
}

// Service is the ingestion loop: it reconciles subscriptions, applies
// normalized ticks to the price book, fires square-offs, and renders
// the live P&L line. All mutable state is confined to the Run
// goroutine; feeds only ever touch the channels.
type Service struct {
	deps ServiceDeps
	subs *SubscriptionManager
	rend *Renderer
	lim  *rate.Limiter

	tickCh  chan domain.PriceTick
	stateCh chan feedStatus
	selCh   chan domain.Instrument

	// Run-goroutine state
	selected    domain.Instrument
	orders      []domain.Order
	realized    float64
	unavailable map[domain.Feed]bool
}

func NewService(deps ServiceDeps) *Service {
	if deps.SnapshotEvery <= 0 {
		deps.SnapshotEvery = 5 * time.Minute
	}
	if deps.RefreshEvery <= 0 {
		deps.RefreshEvery = 10 * time.Second
	}
	if deps.RenderPerSec <= 0 {
		deps.RenderPerSec = 5
	}
	return &Service{
		deps:        deps,
		rend:        NewRenderer(),
		lim:         rate.NewLimiter(rate.Limit(deps.RenderPerSec), 1),
		tickCh:      make(chan domain.PriceTick, 1024),
		stateCh:     make(chan feedStatus, 16),
		selCh:       make(chan domain.Instrument, 1),
		selected:    deps.Selected,
		unavailable: make(map[domain.Feed]bool),
	}
}

// AttachFeeds hands the supervised feed connections to the service's
// subscription manager. Must happen before Run.
func (s *Service) AttachFeeds(handles ...FeedHandle) {
	s.subs = NewSubscriptionManager(handles...)
}

// HandleTick is the feed-side entry point; safe from any goroutine.
func (s *Service) HandleTick(t domain.PriceTick) {
	s.tickCh <- t
}

// HandleFeedState observes supervisor transitions (for the
// "feed unavailable" display state).
func (s *Service) HandleFeedState(f domain.Feed, st port.FeedState) {
	select {
	case s.stateCh <- feedStatus{feed: f, state: st}:
	default:
	}
}

// Select switches the focused instrument.
func (s *Service) Select(i domain.Instrument) {
	select {
	case s.selCh <- i:
	default:
	}
}

func (s *Service) Run(ctx context.Context) error {
	if s.subs == nil {
		return errors.New("no feeds attached")
	}

	s.refreshOrders(ctx)
	s.subs.SetSelected(ctx, s.selected)

	snapTicker := time.NewTicker(s.deps.SnapshotEvery)
	defer snapTicker.Stop()
	refreshTicker := time.NewTicker(s.deps.RefreshEvery)
	defer refreshTicker.Stop()

	_ = s.deps.Sink.WriteLive(s.render(RenderLive))

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			s.subs.CloseAll()
			return ctx.Err()

		case now := <-snapTicker.C:
			line := s.render(RenderSnapshot)
			_ = s.deps.Sink.WriteSnapshot(now, line)
			_ = s.deps.Repo.InsertSnapshot(ctx, now.UnixMilli(), line)

		case <-refreshTicker.C:
			s.refreshOrders(ctx)

		case sel := <-s.selCh:
			if sel.Valid() && sel != s.selected {
				s.selected = sel
				s.subs.SetSelected(ctx, sel)
				_ = s.deps.Sink.WriteLive(s.render(RenderLive))
			}

		case fs := <-s.stateCh:
			s.unavailable[fs.feed] = fs.state == port.FeedUnavailable
			_ = s.deps.Sink.WriteLive(s.render(RenderLive))

		case t := <-s.tickCh:
			s.applyTick(ctx, t)
		}
	}
}

func (s *Service) applyTick(ctx context.Context, t domain.PriceTick) {
	if err := s.deps.Prices.Apply(ctx, t); err != nil {
		log.Debug().Err(err).Str("instrument", string(t.Instrument)).Msg("price cache write failed")
	}
	s.checkTriggers(ctx, t)

	if s.lim.Allow() {
		_ = s.deps.Sink.WriteLive(s.render(RenderLive))
	}
}

func (s *Service) checkTriggers(ctx context.Context, t domain.PriceTick) {
	var kept []domain.Order
	closedAny := false
	for _, o := range s.orders {
		if o.Instrument != t.Instrument {
			kept = append(kept, o)
			continue
		}
		kind := o.Triggered(t.Price)
		if kind == domain.TriggerNone {
			kept = append(kept, o)
			continue
		}
		closed, err := s.deps.SquareOff.Execute(ctx, o, t.Price, kind)
		if err != nil {
			log.Error().Err(err).Int64("order", o.ID).Msg("square-off failed, order stays open")
			kept = append(kept, o)
			continue
		}
		s.realized += closed.Profit
		closedAny = true
	}
	if closedAny {
		s.orders = kept
		s.subs.SetOpenOrders(ctx, domain.OpenInstruments(s.orders))
	}
}

func (s *Service) refreshOrders(ctx context.Context) {
	orders, err := s.deps.Orders.OpenOrders(ctx, s.deps.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("open-order refresh failed, keeping last known set")
		return
	}
	s.orders = orders

	if realized, err := s.deps.Orders.Realized(ctx, s.deps.UserID); err == nil {
		s.realized = realized
	}

	s.subs.SetOpenOrders(ctx, domain.OpenInstruments(s.orders))
}

func (s *Service) render(mode RenderMode) string {
	return s.rend.Render(view{
		selected:    s.selected,
		instruments: s.subs.Desired(),
		book:        s.deps.Book,
		orders:      s.orders,
		realized:    s.realized,
		unavailable: s.unavailable,
	}, mode)
}
