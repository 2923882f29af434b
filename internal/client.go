package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const pricePath = "/api/coin"

// SeqHeader carries the client-side request counter, for correlating logs.
const SeqHeader = "X-Request-Seq"

type ClientOptions struct {
	BaseURL string
	// Zero means no timeout: a hung request blocks its caller until the transport gives up.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// PriceClient talks to the /api/coin endpoint. It never retries.
type PriceClient struct {
	baseURL    string
	httpClient *http.Client
	seq        atomic.Uint64
	logger     zerolog.Logger
}

func NewPriceClient(opts ClientOptions) *PriceClient {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &PriceClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: hc,
		logger:     log.With().Str("component", "price_client").Logger(),
	}
}

// wire shape; pointers tell a missing key from a zero value
type priceEnvelope struct {
	Error   *string   `json:"error"`
	Price   *float64  `json:"price"`
	LogoURL string    `json:"logo_url"`
	Labels  []string  `json:"labels"`
	Data    []float64 `json:"data"`
}

// FetchPrice posts q and returns the success variant. Every failure is an *Error.
func (c *PriceClient) FetchPrice(ctx context.Context, q QueryInput) (*PriceResponse, error) {
	seq := c.seq.Add(1)

	payload, err := json.Marshal(q)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pricePath, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SeqHeader, strconv.FormatUint(seq, 10))

	c.logger.Debug().
		Uint64("seq", seq).
		Str("coin", q.Coin).
		Str("currency", q.Currency).
		Str("days", q.Days).
		Msg("Requesting price")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("Price request failed")
		return nil, &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "read body", Err: err}
	}

	out, err := decodePriceResponse(resp.StatusCode, body)
	if err != nil {
		c.logger.Warn().Err(err).Uint64("seq", seq).Int("status", resp.StatusCode).Msg("Price request rejected")
		return nil, err
	}

	c.logger.Debug().Uint64("seq", seq).Int("points", len(out.Data)).Msg("Price received")
	return out, nil
}

func decodePriceResponse(status int, body []byte) (*PriceResponse, error) {
	var env priceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status < 200 || status > 299 {
			return nil, &Error{Kind: KindProtocol, Message: fmt.Sprintf("unexpected status %d", status), Err: err}
		}
		return nil, &Error{Kind: KindProtocol, Message: "decode response", Err: err}
	}

	// A non-empty error key wins regardless of status.
	if env.Error != nil && *env.Error != "" {
		return nil, &Error{Kind: KindBackend, Message: *env.Error}
	}
	if status < 200 || status > 299 {
		return nil, &Error{Kind: KindProtocol, Message: fmt.Sprintf("unexpected status %d", status)}
	}
	if env.Price == nil {
		return nil, &Error{Kind: KindProtocol, Message: "response has neither error nor price"}
	}
	if len(env.Labels) != len(env.Data) {
		return nil, &Error{
			Kind:    KindProtocol,
			Message: fmt.Sprintf("labels/data length mismatch: %d != %d", len(env.Labels), len(env.Data)),
		}
	}

	return &PriceResponse{
		Price:   *env.Price,
		LogoURL: env.LogoURL,
		Labels:  env.Labels,
		Data:    env.Data,
	}, nil
}
