package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrade/internal/application/container"
	"papertrade/internal/application/usecase/ticker"
	"papertrade/internal/domain"
	"papertrade/internal/infrastructure/config"
	"papertrade/internal/infrastructure/feed"
	"papertrade/internal/infrastructure/feed/binance"
	"papertrade/internal/infrastructure/feed/finnhub"
	"papertrade/internal/infrastructure/logger"
	"papertrade/internal/interfaces/console"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup(logger.Options{})
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	logger.Setup(logger.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		MaxSize:  cfg.Log.MaxSize,
		MaxFiles: cfg.Log.MaxFiles,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Close()

	selected := domain.Instrument(cfg.App.Selected)
	if !selected.Valid() {
		log.Fatal().Str("selected", cfg.App.Selected).Msg("unknown instrument in app.selected")
	}

	svc := ticker.NewService(ticker.ServiceDeps{
		Prices:        c.PriceService(),
		Orders:        c.OrderService(),
		SquareOff:     c.SquareOffService(),
		Book:          c.Book(),
		Repo:          c.Repository(),
		Sink:          console.NewSink(),
		UserID:        cfg.App.UserID,
		Selected:      selected,
		SnapshotEvery: time.Duration(cfg.App.SnapshotMin) * time.Minute,
		RefreshEvery:  time.Duration(cfg.App.OrderRefreshSec) * time.Second,
		RenderPerSec:  cfg.App.RenderPerSec,
	})

	// feeds (infrastructure -> application ports)
	var handles []ticker.FeedHandle
	if cfg.Feed.Binance.Enabled {
		conn := binance.NewStreamConn(cfg.Feed.Binance.WsURL, svc.HandleTick)
		handles = append(handles, feed.NewSupervisor(conn, feed.Options{OnState: svc.HandleFeedState}))
	} else {
		log.Warn().Msg("binance feed disabled by config")
	}
	if cfg.Feed.Finnhub.Enabled {
		conn := finnhub.NewStreamConn(cfg.Feed.Finnhub.WsURL, cfg.Secrets.FinnhubToken, svc.HandleTick)
		handles = append(handles, feed.NewSupervisor(conn, feed.Options{OnState: svc.HandleFeedState}))
	} else {
		log.Warn().Msg("finnhub feed disabled by config")
	}

	svc.AttachFeeds(handles...)

	log.Info().
		Str("config", *configPath).
		Str("selected", string(selected)).
		Int64("user", cfg.App.UserID).
		Msg("papertrade started")

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("ticker service exited")
	}
}
