package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"coinview/internal"
)

var (
	ErrCoinNotFound        = errors.New("coin not found")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNoPriceData         = errors.New("no price data")
	ErrRateLimited         = errors.New("upstream rate limit exceeded")
)

type CoinGeckoOptions struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	// Zero disables retries.
	RetryWindow time.Duration
	Cache       *Cache
	HTTPClient  *http.Client
}

// CoinGecko reads prices, logos and market charts from the CoinGecko v3 API.
type CoinGecko struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retryWindow time.Duration
	cache       *Cache
	logger      zerolog.Logger
}

func NewCoinGecko(opts CoinGeckoOptions) *CoinGecko {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 1
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &CoinGecko{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		httpClient:  hc,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 3),
		retryWindow: opts.RetryWindow,
		cache:       opts.Cache,
		logger:      log.With().Str("component", "coingecko").Logger(),
	}
}

// SimplePrice returns the current price of coin quoted in currency.
func (c *CoinGecko) SimplePrice(ctx context.Context, coin, currency string) (float64, error) {
	q := url.Values{}
	q.Set("ids", coin)
	q.Set("vs_currencies", currency)

	body, err := c.get(ctx, "/simple/price", q)
	if err != nil {
		return 0, err
	}

	var prices map[string]map[string]float64
	if err := json.Unmarshal(body, &prices); err != nil {
		return 0, fmt.Errorf("parse simple price: %w", err)
	}
	quotes, ok := prices[coin]
	if !ok {
		return 0, ErrCoinNotFound
	}
	price, ok := quotes[currency]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	return price, nil
}

type coinDetails struct {
	ID    string `json:"id"`
	Image struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
}

// Logo returns the largest logo URL CoinGecko has for coin.
func (c *CoinGecko) Logo(ctx context.Context, coin string) (string, error) {
	q := url.Values{}
	for _, k := range []string{"localization", "tickers", "market_data", "community_data", "developer_data", "sparkline"} {
		q.Set(k, "false")
	}

	body, err := c.get(ctx, "/coins/"+url.PathEscape(coin), q)
	if err != nil {
		return "", err
	}

	var d coinDetails
	if err := json.Unmarshal(body, &d); err != nil {
		return "", fmt.Errorf("parse coin details: %w", err)
	}
	switch {
	case d.Image.Large != "":
		return d.Image.Large, nil
	case d.Image.Small != "":
		return d.Image.Small, nil
	default:
		return d.Image.Thumb, nil
	}
}

type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// MarketChart returns the price history of coin over days, oldest first.
func (c *CoinGecko) MarketChart(ctx context.Context, coin, currency, days string) ([]internal.PricePoint, error) {
	q := url.Values{}
	q.Set("vs_currency", currency)
	q.Set("days", days)

	body, err := c.get(ctx, "/coins/"+url.PathEscape(coin)+"/market_chart", q)
	if err != nil {
		return nil, err
	}

	var mc marketChart
	if err := json.Unmarshal(body, &mc); err != nil {
		return nil, fmt.Errorf("parse market chart: %w", err)
	}
	if len(mc.Prices) == 0 {
		return nil, ErrNoPriceData
	}

	points := make([]internal.PricePoint, 0, len(mc.Prices))
	for _, p := range mc.Prices {
		points = append(points, internal.PricePoint{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Price:     p[1],
		})
	}
	return points, nil
}

func (c *CoinGecko) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path + "?" + q.Encode()

	if c.cache != nil {
		if body, ok := c.cache.Get(u); ok {
			c.logger.Debug().Str("url", u).Msg("Serving from cache")
			return body, nil
		}
	}

	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		c.logger.Debug().Str("url", u).Msg("Fetching from API")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrCoinNotFound)
		case resp.StatusCode == http.StatusTooManyRequests:
			c.logger.Warn().Str("url", u).Msg("API rate limit hit")
			return ErrRateLimited
		case resp.StatusCode >= 500:
			return fmt.Errorf("upstream status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.retryPolicy(), ctx)); err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(u, body)
	}
	return body, nil
}

func (c *CoinGecko) retryPolicy() backoff.BackOff {
	if c.retryWindow <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = c.retryWindow
	return b
}
