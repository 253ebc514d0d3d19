package config

import (
	"errors"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		UserID          int64   `toml:"user_id"`
		Selected        string  `toml:"selected"`
		SnapshotMin     int     `toml:"snapshot_every_min"`
		OrderRefreshSec int     `toml:"order_refresh_sec"`
		RenderPerSec    float64 `toml:"render_per_sec"`
	} `toml:"app"`

	Feed struct {
		Binance struct {
			Enabled bool   `toml:"enabled"`
			WsURL   string `toml:"ws_url"`
		} `toml:"binance"`

		Finnhub struct {
			Enabled bool   `toml:"enabled"`
			WsURL   string `toml:"ws_url"`
		} `toml:"finnhub"`
	} `toml:"feed"`

	Storage struct {
		SQLitePath string `toml:"sqlite_path"`

		Redis struct {
			Enabled bool   `toml:"enabled"`
			Addr    string `toml:"addr"`
			Prefix  string `toml:"prefix"`
			TTLSec  int    `toml:"ttl_sec"`
		} `toml:"redis"`

		Postgres struct {
			Enabled bool `toml:"enabled"`
		} `toml:"postgres"`
	} `toml:"storage"`

	Log struct {
		Level    string `toml:"level"`
		File     string `toml:"file"`
		MaxSize  int    `toml:"max_size_mb"`
		MaxFiles int    `toml:"max_files"`
	} `toml:"log"`

	// resolved from environment, never from the TOML file
	Secrets Secrets `toml:"-"`
}

type Secrets struct {
	FinnhubToken string
	PostgresDSN  string
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	loadSecrets(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.UserID <= 0 {
		cfg.App.UserID = 1
	}
	if cfg.App.Selected == "" {
		cfg.App.Selected = "BTC"
	}
	if cfg.App.SnapshotMin <= 0 {
		cfg.App.SnapshotMin = 5
	}
	if cfg.App.OrderRefreshSec <= 0 {
		cfg.App.OrderRefreshSec = 10
	}
	if cfg.App.RenderPerSec <= 0 {
		cfg.App.RenderPerSec = 5
	}
	if cfg.Feed.Binance.WsURL == "" {
		cfg.Feed.Binance.WsURL = "wss://stream.binance.com:9443"
	}
	if cfg.Feed.Finnhub.WsURL == "" {
		cfg.Feed.Finnhub.WsURL = "wss://ws.finnhub.io"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/papertrade.db"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "papertrade"
	}
	if cfg.Storage.Redis.TTLSec <= 0 {
		cfg.Storage.Redis.TTLSec = 300
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSize <= 0 {
		cfg.Log.MaxSize = 50
	}
	if cfg.Log.MaxFiles <= 0 {
		cfg.Log.MaxFiles = 3
	}
}

// loadSecrets pulls secrets from the environment, with .env as a
// development convenience. A missing .env file is not an error.
func loadSecrets(cfg *Config) {
	_ = godotenv.Load()
	cfg.Secrets.FinnhubToken = strings.TrimSpace(os.Getenv("FINNHUB_TOKEN"))
	cfg.Secrets.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
}

func validate(cfg *Config) error {
	cfg.App.Selected = strings.ToUpper(strings.TrimSpace(cfg.App.Selected))

	if !cfg.Feed.Binance.Enabled && !cfg.Feed.Finnhub.Enabled {
		return errors.New("no feed enabled")
	}
	if cfg.Feed.Binance.Enabled && strings.TrimSpace(cfg.Feed.Binance.WsURL) == "" {
		return errors.New("feed.binance.ws_url empty but enabled")
	}
	if cfg.Feed.Finnhub.Enabled {
		if strings.TrimSpace(cfg.Feed.Finnhub.WsURL) == "" {
			return errors.New("feed.finnhub.ws_url empty but enabled")
		}
		if cfg.Secrets.FinnhubToken == "" {
			return errors.New("FINNHUB_TOKEN not set but feed.finnhub enabled")
		}
	}
	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Storage.Postgres.Enabled && cfg.Secrets.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN not set but storage.postgres enabled")
	}
	return nil
}
