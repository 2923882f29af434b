package internal

import (
	"strconv"
	"strings"
	"time"
)

// PricePoint is one sample of a coin's price history.
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryInput is what the form collects for one lookup. Values are sent as typed.
type QueryInput struct {
	Coin     string `json:"coin"`
	Currency string `json:"currency"`
	Days     string `json:"days"`
}

// PriceResponse is either the error variant (Error set) or the success variant.
type PriceResponse struct {
	Error   string    `json:"error,omitempty"`
	Price   float64   `json:"price"`
	LogoURL string    `json:"logo_url"`
	Labels  []string  `json:"labels"`
	Data    []float64 `json:"data"`
}

func (r *PriceResponse) IsError() bool {
	return r.Error != ""
}

// FormatPrice renders a price the shortest way that round-trips, e.g. 65000 or 0.5.
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatPriceText builds the price line shown above the chart.
func FormatPriceText(q QueryInput, price float64) string {
	return strings.ToUpper(q.Coin) + " Fiyatı: " + FormatPrice(price) + " " + strings.ToUpper(q.Currency)
}
