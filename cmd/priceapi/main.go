package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"coinview/internal/config"
	"coinview/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	config.SetupLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := server.NewCache(cfg.Server.CacheTTL)
	janitor, err := server.NewJanitor(cache, cfg.Server.CacheJanitorSpec)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Server.CacheJanitorSpec).Msg("Invalid cache janitor schedule")
	}
	janitor.Start()
	defer janitor.Stop()

	gecko := server.NewCoinGecko(server.CoinGeckoOptions{
		BaseURL:        cfg.Server.CoinGeckoBaseURL,
		Timeout:        cfg.Server.CoinGeckoTimeout,
		RequestsPerSec: cfg.Server.CoinGeckoRPS,
		RetryWindow:    cfg.Server.UpstreamRetryWindow,
		Cache:          cache,
	})

	srv := server.New(cfg.Server.Addr, gecko)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
