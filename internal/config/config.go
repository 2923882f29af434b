package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// desktop viewer
	Client struct {
		APIURL          string        `envconfig:"COINVIEW_API_URL" default:"http://localhost:5000"`
		RequestTimeout  time.Duration `envconfig:"COINVIEW_REQUEST_TIMEOUT" default:"0s"`
		WindowWidth     int           `envconfig:"COINVIEW_WINDOW_WIDTH" default:"900"`
		WindowHeight    int           `envconfig:"COINVIEW_WINDOW_HEIGHT" default:"640"`
		DefaultCoin     string        `envconfig:"COINVIEW_DEFAULT_COIN" default:"bitcoin"`
		DefaultCurrency string        `envconfig:"COINVIEW_DEFAULT_CURRENCY" default:"usd"`
		DefaultDays     string        `envconfig:"COINVIEW_DEFAULT_DAYS" default:"7"`
	}

	// price API
	Server struct {
		Addr                string        `envconfig:"PRICEAPI_ADDR" default:":5000"`
		CoinGeckoBaseURL    string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
		CoinGeckoTimeout    time.Duration `envconfig:"COINGECKO_TIMEOUT" default:"15s"`
		CoinGeckoRPS        float64       `envconfig:"COINGECKO_RPS" default:"1"`
		CacheTTL            time.Duration `envconfig:"CACHE_TTL" default:"5m"`
		CacheJanitorSpec    string        `envconfig:"CACHE_JANITOR_SPEC" default:"@every 1m"`
		UpstreamRetryWindow time.Duration `envconfig:"UPSTREAM_RETRY_WINDOW" default:"10s"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Pretty bool   `envconfig:"LOG_PRETTY" default:"true"`
	}
}

func ValidateConfig(cfg *Config) error {
	if _, err := url.ParseRequestURI(cfg.Client.APIURL); err != nil {
		return fmt.Errorf("COINVIEW_API_URL is not a valid URL: %w", err)
	}
	if cfg.Client.RequestTimeout < 0 {
		return errors.New("COINVIEW_REQUEST_TIMEOUT must not be negative")
	}
	if cfg.Client.WindowWidth < 320 || cfg.Client.WindowHeight < 240 {
		return errors.New("window must be at least 320x240")
	}
	if _, err := url.ParseRequestURI(cfg.Server.CoinGeckoBaseURL); err != nil {
		return fmt.Errorf("COINGECKO_BASE_URL is not a valid URL: %w", err)
	}
	if cfg.Server.CoinGeckoRPS <= 0 {
		return errors.New("COINGECKO_RPS must be positive")
	}
	if cfg.Server.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
