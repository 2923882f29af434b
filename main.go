package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font/gofont/goregular"

	"coinview/internal"
	"coinview/internal/config"
	"coinview/internal/ui"
)

const baseFontSize = 14

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	config.SetupLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := internal.NewPriceClient(internal.ClientOptions{
		BaseURL: cfg.Client.APIURL,
		Timeout: cfg.Client.RequestTimeout,
	})

	ebiten.SetWindowSize(cfg.Client.WindowWidth, cfg.Client.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("CoinView")

	page, err := ui.NewPage(ctx, ui.PageOptions{
		Font:            goregular.TTF,
		BaseFontSize:    baseFontSize,
		DeviceScale:     ebiten.Monitor().DeviceScaleFactor(),
		DefaultCoin:     cfg.Client.DefaultCoin,
		DefaultCurrency: cfg.Client.DefaultCurrency,
		DefaultDays:     cfg.Client.DefaultDays,
	}, client)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not build window")
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		os.Exit(0)
	}()

	log.Info().Str("api", cfg.Client.APIURL).Msg("CoinView starting")
	if err := ebiten.RunGame(page); err != nil {
		log.Fatal().Err(err).Msg("Game loop failed")
	}
}
