package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinview/internal"
	"coinview/internal/chart"
)

type field string

func (f field) Value() string { return string(f) }

type fakeText struct {
	mu   sync.Mutex
	text string
	sets int
}

func (f *fakeText) SetText(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = s
	f.sets++
}

type fakeImage struct {
	src  string
	sets int
}

func (f *fakeImage) SetSource(url string) {
	f.src = url
	f.sets++
}

type fakeAlerts struct {
	messages []string
}

func (f *fakeAlerts) Alert(msg string) {
	f.messages = append(f.messages, msg)
}

type page struct {
	els    Elements
	price  *fakeText
	logo   *fakeImage
	canvas *chart.Canvas
	alerts *fakeAlerts
}

func newPage(coin, currency, days string) *page {
	p := &page{
		price:  &fakeText{text: "initial"},
		logo:   &fakeImage{src: "initial.png"},
		canvas: chart.NewCanvas(),
		alerts: &fakeAlerts{},
	}
	p.els = Elements{
		Coin:     field(coin),
		Currency: field(currency),
		Days:     field(days),
		Price:    p.price,
		Logo:     p.logo,
		Chart:    p.canvas,
		Alerts:   p.alerts,
	}
	return p
}

type fetchFunc func(ctx context.Context, q internal.QueryInput) (*internal.PriceResponse, error)

func (f fetchFunc) FetchPrice(ctx context.Context, q internal.QueryInput) (*internal.PriceResponse, error) {
	return f(ctx, q)
}

func sevenDays() ([]string, []float64) {
	labels := make([]string, 7)
	data := make([]float64, 7)
	for i := range labels {
		labels[i] = fmt.Sprintf("d%d", i+1)
		data[i] = 64000 + float64(i*100)
	}
	return labels, data
}

func TestHandler_ScenarioA_Success(t *testing.T) {
	p := newPage("btc", "usd", "7")
	labels, data := sevenDays()

	var got internal.QueryInput
	h, err := NewHandler(p.els, fetchFunc(func(_ context.Context, q internal.QueryInput) (*internal.PriceResponse, error) {
		got = q
		return &internal.PriceResponse{Price: 65000, LogoURL: "https://x/btc.png", Labels: labels, Data: data}, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, OutcomeRendered, h.Run(context.Background()))

	assert.Equal(t, internal.QueryInput{Coin: "btc", Currency: "usd", Days: "7"}, got)
	assert.Equal(t, "BTC Fiyatı: 65000 USD", p.price.text)
	assert.Equal(t, "https://x/btc.png", p.logo.src)
	assert.Empty(t, p.alerts.messages)

	c := p.canvas.Current()
	require.NotNil(t, c)
	assert.Equal(t, 7, c.Config().Points())
	assert.Equal(t, labels, c.Config().Labels)
	assert.Equal(t, data, c.Config().Datasets[0].Data)
}

func TestHandler_ScenarioB_BackendError(t *testing.T) {
	p := newPage("nope", "usd", "7")
	h, err := NewHandler(p.els, fetchFunc(func(context.Context, internal.QueryInput) (*internal.PriceResponse, error) {
		return nil, &internal.Error{Kind: internal.KindBackend, Message: "coin not found"}
	}))
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, h.Run(context.Background()))

	assert.Equal(t, []string{"coin not found"}, p.alerts.messages)
	assert.Equal(t, "initial", p.price.text)
	assert.Equal(t, 0, p.price.sets)
	assert.Equal(t, "initial.png", p.logo.src)
	assert.Nil(t, p.canvas.Current())
}

func TestHandler_ScenarioC_NetworkError(t *testing.T) {
	p := newPage("btc", "usd", "7")
	h, err := NewHandler(p.els, fetchFunc(func(context.Context, internal.QueryInput) (*internal.PriceResponse, error) {
		return nil, &internal.Error{Kind: internal.KindNetwork, Message: "request failed", Err: errors.New("connection refused")}
	}))
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, h.Run(context.Background()))

	assert.Equal(t, []string{NetworkFailureMessage}, p.alerts.messages)
	assert.Equal(t, 0, p.price.sets)
	assert.Equal(t, 0, p.logo.sets)
	assert.Nil(t, p.canvas.Current())
}

func TestHandler_ErrorLeavesPreviousResult(t *testing.T) {
	p := newPage("btc", "usd", "7")
	labels, data := sevenDays()

	fail := false
	h, err := NewHandler(p.els, fetchFunc(func(context.Context, internal.QueryInput) (*internal.PriceResponse, error) {
		if fail {
			return nil, &internal.Error{Kind: internal.KindProtocol, Message: "decode response"}
		}
		return &internal.PriceResponse{Price: 1.5, LogoURL: "a.png", Labels: labels, Data: data}, nil
	}))
	require.NoError(t, err)

	require.Equal(t, OutcomeRendered, h.Run(context.Background()))
	before := p.canvas.Current()

	fail = true
	assert.Equal(t, OutcomeFailed, h.Run(context.Background()))

	assert.Equal(t, []string{ProtocolFailureMessage}, p.alerts.messages)
	assert.Equal(t, "BTC Fiyatı: 1.5 USD", p.price.text)
	assert.Equal(t, "a.png", p.logo.src)
	assert.Same(t, before, p.canvas.Current())
	assert.False(t, before.Destroyed())
}

func TestHandler_RepeatedRunsKeepOneChart(t *testing.T) {
	p := newPage("btc", "usd", "7")
	labels, data := sevenDays()
	h, err := NewHandler(p.els, fetchFunc(func(context.Context, internal.QueryInput) (*internal.PriceResponse, error) {
		return &internal.PriceResponse{Price: 65000, LogoURL: "https://x/btc.png", Labels: labels, Data: data}, nil
	}))
	require.NoError(t, err)

	require.Equal(t, OutcomeRendered, h.Run(context.Background()))
	first := p.canvas.Current()
	firstText := p.price.text

	require.Equal(t, OutcomeRendered, h.Run(context.Background()))
	second := p.canvas.Current()

	assert.True(t, first.Destroyed())
	assert.False(t, second.Destroyed())
	assert.Equal(t, firstText, p.price.text)
	assert.Equal(t, first.Config(), second.Config())
}

func TestHandler_StaleResponseDiscarded(t *testing.T) {
	p := newPage("btc", "usd", "7")

	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	h, err := NewHandler(p.els, fetchFunc(func(context.Context, internal.QueryInput) (*internal.PriceResponse, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			close(slowStarted)
			<-releaseSlow
			return &internal.PriceResponse{Price: 1, LogoURL: "old.png", Labels: []string{"a"}, Data: []float64{1}}, nil
		}
		return &internal.PriceResponse{Price: 2, LogoURL: "new.png", Labels: []string{"b"}, Data: []float64{2}}, nil
	}))
	require.NoError(t, err)

	slowOutcome := make(chan Outcome, 1)
	go func() { slowOutcome <- h.Run(context.Background()) }()
	<-slowStarted

	assert.Equal(t, OutcomeRendered, h.Run(context.Background()))
	close(releaseSlow)
	assert.Equal(t, OutcomeStale, <-slowOutcome)

	assert.Equal(t, "BTC Fiyatı: 2 USD", p.price.text)
	assert.Equal(t, "new.png", p.logo.src)
	assert.Equal(t, []float64{2}, p.canvas.Current().Config().Datasets[0].Data)
	assert.Equal(t, uint64(1), p.canvas.Created())
}

func TestHandler_ErrorVariantResponse(t *testing.T) {
	p := newPage("btc", "usd", "7")
	h, err := NewHandler(p.els, fetchFunc(func(context.Context, internal.QueryInput) (*internal.PriceResponse, error) {
		return &internal.PriceResponse{Error: "rate limited"}, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, h.Run(context.Background()))
	assert.Equal(t, []string{"rate limited"}, p.alerts.messages)
	assert.Equal(t, 0, p.price.sets)
}

func TestNewHandler_MissingElement(t *testing.T) {
	p := newPage("btc", "usd", "7")
	els := p.els
	els.Logo = nil

	_, err := NewHandler(els, fetchFunc(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingElement)
	assert.Contains(t, err.Error(), "logo")

	_, err = NewHandler(p.els, nil)
	assert.Error(t, err)
}

func TestAlertMessage(t *testing.T) {
	assert.Equal(t, "boom", AlertMessage(&internal.Error{Kind: internal.KindBackend, Message: "boom"}))
	assert.Equal(t, ProtocolFailureMessage, AlertMessage(&internal.Error{Kind: internal.KindProtocol}))
	assert.Equal(t, NetworkFailureMessage, AlertMessage(&internal.Error{Kind: internal.KindNetwork}))
	assert.Equal(t, NetworkFailureMessage, AlertMessage(errors.New("plain")))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "rendered", OutcomeRendered.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "stale", OutcomeStale.String())
}
