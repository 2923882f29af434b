// Package server is the price API behind POST /api/coin.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"coinview/internal"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 16
)

// Upstream is the market data source behind the API.
type Upstream interface {
	SimplePrice(ctx context.Context, coin, currency string) (float64, error)
	Logo(ctx context.Context, coin string) (string, error)
	MarketChart(ctx context.Context, coin, currency, days string) ([]internal.PricePoint, error)
}

var supportedDays = []string{"1", "7", "14", "30", "90", "180", "365", "max"}

const (
	msgBadBody     = "geçersiz istek gövdesi"
	msgBadDays     = "Geçersiz 'days' parametresi. Desteklenen değerler: 1, 7, 14, 30, 90, 180, 365, 'max'."
	msgNoCoin      = "coin alanı boş olamaz"
	msgNoCurrency  = "currency alanı boş olamaz"
	msgRateLimited = "CoinGecko API hız limiti aşıldı. Lütfen bir süre sonra tekrar deneyin."
	msgTimeout     = "API isteği zaman aşımına uğradı. Lütfen daha sonra tekrar deneyin."
	msgUpstream    = "Fiyat verileri çekilirken bir hata oluştu."
)

type Server struct {
	upstream   Upstream
	location   *time.Location
	httpServer *http.Server
	logger     zerolog.Logger
}

func New(addr string, upstream Upstream) *Server {
	s := &Server{
		upstream: upstream,
		location: time.UTC,
		logger:   log.With().Str("component", "priceapi").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/coin", s.handleCoin)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Price API listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCoin(w http.ResponseWriter, r *http.Request) {
	var q internal.QueryInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	coin := strings.ToLower(strings.TrimSpace(q.Coin))
	currency := strings.ToLower(strings.TrimSpace(q.Currency))
	days := strings.ToLower(strings.TrimSpace(q.Days))

	switch {
	case coin == "":
		writeError(w, http.StatusBadRequest, msgNoCoin)
		return
	case currency == "":
		writeError(w, http.StatusBadRequest, msgNoCurrency)
		return
	case !isSupportedDays(days):
		writeError(w, http.StatusBadRequest, msgBadDays)
		return
	}

	var (
		price  float64
		logo   string
		points []internal.PricePoint
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		price, err = s.upstream.SimplePrice(ctx, coin, currency)
		return err
	})
	g.Go(func() (err error) {
		logo, err = s.upstream.Logo(ctx, coin)
		return err
	})
	g.Go(func() (err error) {
		points, err = s.upstream.MarketChart(ctx, coin, currency, days)
		return err
	})
	if err := g.Wait(); err != nil {
		status, msg := s.upstreamError(err, coin, days)
		s.logger.Warn().Err(err).Str("coin", coin).Str("currency", currency).Str("days", days).Int("status", status).Msg("Lookup failed")
		writeError(w, status, msg)
		return
	}

	labels, data := s.series(points, days)
	writeJSON(w, http.StatusOK, internal.PriceResponse{
		Price:   price,
		LogoURL: logo,
		Labels:  labels,
		Data:    data,
	})
}

func (s *Server) series(points []internal.PricePoint, days string) ([]string, []float64) {
	layout := "02.01.2006"
	if days == "1" {
		layout = "15:04"
	}
	labels := make([]string, len(points))
	data := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Timestamp.In(s.location).Format(layout)
		data[i] = p.Price
	}
	return labels, data
}

func (s *Server) upstreamError(err error, coin, days string) (int, string) {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, ErrCoinNotFound):
		return http.StatusNotFound, ErrCoinNotFound.Error()
	case errors.Is(err, ErrNoPriceData):
		return http.StatusNotFound, fmt.Sprintf("No price data available for %s for the last %s days.", coin, days)
	case errors.Is(err, ErrUnsupportedCurrency):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrRateLimited):
		return http.StatusServiceUnavailable, msgRateLimited
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout, msgTimeout
	default:
		return http.StatusBadGateway, msgUpstream
	}
}

func isSupportedDays(days string) bool {
	for _, d := range supportedDays {
		if d == days {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error().Str("request_id", id).Interface("panic", p).Msg("Handler panicked")
				writeError(rec, http.StatusInternalServerError, msgUpstream)
			}
			s.logger.Info().
				Str("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("took", time.Since(start)).
				Msg("Request served")
		}()

		next.ServeHTTP(rec, r)
	})
}
