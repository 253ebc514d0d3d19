package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"papertrade/internal/application/port"
	"papertrade/internal/application/service"
	"papertrade/internal/domain"
	"papertrade/internal/infrastructure/config"
	"papertrade/internal/infrastructure/storage/composite"
	"papertrade/internal/infrastructure/storage/postgres"
	redisrepo "papertrade/internal/infrastructure/storage/redis"
	sqliterepo "papertrade/internal/infrastructure/storage/sqlite"
)

// Container wires storage backends and application services from config.
// Resources register close callbacks; Close runs them last-in-first-out
// exactly once.
type Container struct {
	cfg *config.Config

	book       *domain.PriceBook
	repo       port.Repository
	orderStore port.OrderStore

	redisClient *redis.Client
	sqliteRepo  *sqliterepo.Repo
	redisRepo   *redisrepo.Repo

	priceService     *service.PriceService
	orderService     *service.OrderService
	pnlService       *service.PnLService
	squareOffService *service.SquareOffService

	closeOnce   sync.Once
	closerChain []func() error
}

func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:  cfg,
		book: domain.NewPriceBook(),
	}

	if err := c.initStorage(); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) initStorage() error {
	if err := c.initSQLite(); err != nil {
		return fmt.Errorf("sqlite init failed: %w", err)
	}

	if c.cfg.Storage.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
	}

	// one Repository facade over every enabled backend
	c.repo = composite.New(c.sqliteRepo, func() port.Repository {
		if c.redisRepo == nil {
			return nil
		}
		return c.redisRepo
	}())

	if c.cfg.Storage.Postgres.Enabled {
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
	} else {
		// local mode: no order collaborator, nothing to square off
		c.orderStore = emptyOrderStore{}
	}

	return nil
}

func (c *Container) initSQLite() error {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}

	c.sqliteRepo = repo
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", c.cfg.Storage.SQLitePath).
		Msg("sqlite initialized")

	return nil
}

func (c *Container) initRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr: c.cfg.Storage.Redis.Addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisClient = rdb
	ttl := time.Duration(c.cfg.Storage.Redis.TTLSec) * time.Second
	c.redisRepo = redisrepo.New(rdb, c.cfg.Storage.Redis.Prefix, ttl, "", "")

	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", c.cfg.Storage.Redis.Addr).
		Msg("redis initialized")

	return nil
}

func (c *Container) initPostgres() error {
	store, err := postgres.New(c.cfg.Secrets.PostgresDSN)
	if err != nil {
		return err
	}

	c.orderStore = store
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return store.Close()
	})

	log.Info().Msg("postgres order store initialized")

	return nil
}

func (c *Container) Config() *config.Config { return c.cfg }

func (c *Container) Book() *domain.PriceBook { return c.book }

func (c *Container) Repository() port.Repository { return c.repo }

func (c *Container) OrderStore() port.OrderStore { return c.orderStore }

func (c *Container) RedisClient() *redis.Client { return c.redisClient }

func (c *Container) SQLiteRepo() *sqliterepo.Repo { return c.sqliteRepo }

func (c *Container) PriceService() *service.PriceService {
	if c.priceService == nil {
		c.priceService = service.NewPriceService(c.book, c.repo)
	}
	return c.priceService
}

func (c *Container) OrderService() *service.OrderService {
	if c.orderService == nil {
		c.orderService = service.NewOrderService(c.orderStore)
	}
	return c.orderService
}

func (c *Container) PnLService() *service.PnLService {
	if c.pnlService == nil {
		c.pnlService = service.NewPnLService(c.book)
	}
	return c.pnlService
}

func (c *Container) SquareOffService() *service.SquareOffService {
	if c.squareOffService == nil {
		c.squareOffService = service.NewSquareOffService(c.orderStore, c.repo)
	}
	return c.squareOffService
}

// Close releases resources in reverse init order, once.
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}

// emptyOrderStore satisfies the order collaborator when Postgres is
// disabled: no open orders, zero realized history.
type emptyOrderStore struct{}

func (emptyOrderStore) ListOpenOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return nil, nil
}

func (emptyOrderStore) CloseOrder(ctx context.Context, id int64, closedPrice, profit float64, ts int64) error {
	return nil
}

func (emptyOrderStore) RealizedSummary(ctx context.Context, userID int64) (float64, error) {
	return 0, nil
}

func (emptyOrderStore) Close() error { return nil }
