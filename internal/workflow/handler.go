// Package workflow runs one price lookup: collect the form, fetch, render.
package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinview/internal"
)

type PriceFetcher interface {
	FetchPrice(ctx context.Context, q internal.QueryInput) (*internal.PriceResponse, error)
}

type Outcome int

const (
	OutcomeRendered Outcome = iota
	OutcomeFailed
	// OutcomeStale means a newer lookup was started before this one finished.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeFailed:
		return "failed"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Handler is bound to one page. Run may be called from many goroutines;
// only the most recently started lookup reaches the page.
type Handler struct {
	els      Elements
	fetcher  PriceFetcher
	renderer *Renderer
	latest   atomic.Uint64
	renderMu sync.Mutex
	logger   zerolog.Logger
}

func NewHandler(els Elements, fetcher PriceFetcher) (*Handler, error) {
	if err := els.validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, errors.New("nil price fetcher")
	}
	return &Handler{
		els:      els,
		fetcher:  fetcher,
		renderer: NewRenderer(els),
		logger:   log.With().Str("component", "workflow").Logger(),
	}, nil
}

// Run performs one lookup. It blocks for the network round trip.
func (h *Handler) Run(ctx context.Context) Outcome {
	token := h.latest.Add(1)
	q := Collect(h.els)

	resp, err := h.fetcher.FetchPrice(ctx, q)

	h.renderMu.Lock()
	defer h.renderMu.Unlock()

	if token != h.latest.Load() {
		h.logger.Debug().Uint64("token", token).Str("coin", q.Coin).Msg("Discarding stale result")
		return OutcomeStale
	}

	if err != nil {
		var perr *internal.Error
		if errors.As(err, &perr) && perr.Kind == internal.KindBackend {
			h.renderer.Render(q, &internal.PriceResponse{Error: perr.Message})
		} else {
			h.renderer.Fail(err)
		}
		h.logger.Warn().Err(err).Uint64("token", token).Str("coin", q.Coin).Msg("Lookup failed")
		return OutcomeFailed
	}

	h.renderer.Render(q, resp)
	if resp.IsError() {
		h.logger.Warn().Str("error", resp.Error).Uint64("token", token).Msg("Lookup failed")
		return OutcomeFailed
	}
	h.logger.Info().
		Uint64("token", token).
		Str("coin", q.Coin).
		Str("currency", q.Currency).
		Float64("price", resp.Price).
		Int("points", len(resp.Data)).
		Msg("Lookup rendered")
	return OutcomeRendered
}
