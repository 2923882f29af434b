package workflow

import (
	"errors"

	"coinview/internal"
	"coinview/internal/chart"
)

const (
	NetworkFailureMessage  = "ağ hatası: fiyat servisine ulaşılamadı"
	ProtocolFailureMessage = "beklenmeyen sunucu yanıtı"
)

// Renderer pushes one lookup result into the page.
type Renderer struct {
	els Elements
}

func NewRenderer(els Elements) *Renderer {
	return &Renderer{els: els}
}

// Render shows resp. The error variant only raises an alert.
func (r *Renderer) Render(q internal.QueryInput, resp *internal.PriceResponse) {
	if resp.IsError() {
		r.els.Alerts.Alert(resp.Error)
		return
	}

	r.els.Price.SetText(internal.FormatPriceText(q, resp.Price))
	r.els.Logo.SetSource(resp.LogoURL)
	r.els.Chart.Draw(chart.NewPriceConfig(resp.Labels, resp.Data))
}

// Fail alerts the user about err and leaves the rest of the page alone.
func (r *Renderer) Fail(err error) {
	r.els.Alerts.Alert(AlertMessage(err))
}

// AlertMessage picks the text shown for a failed lookup.
func AlertMessage(err error) string {
	var perr *internal.Error
	if !errors.As(err, &perr) {
		return NetworkFailureMessage
	}
	switch perr.Kind {
	case internal.KindBackend:
		return perr.Message
	case internal.KindProtocol:
		return ProtocolFailureMessage
	default:
		return NetworkFailureMessage
	}
}
