// Package ui is the desktop window: a form, the price line, the logo and the chart.
package ui

import (
	"context"
	"image"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/temidaradev/esset/v2"

	"coinview/internal/chart"
	"coinview/internal/workflow"
)

const glyphsToPreload = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.,:/|' ıİşŞğĞüÜöÖçÇ"

type PageOptions struct {
	Font            []byte
	BaseFontSize    float64
	DeviceScale     float64
	DefaultCoin     string
	DefaultCurrency string
	DefaultDays     string
}

// Page implements ebiten.Game.
type Page struct {
	ctx         context.Context
	fontFace    text.Face
	deviceScale float64
	lineHeight  float64

	coin     *TextField
	currency *TextField
	days     *TextField
	fields   []*TextField
	fetch    Button
	price    *Label
	logo     *LogoView
	chart    *ChartView
	alerts   *AlertDialog

	handler *workflow.Handler
	pending atomic.Int32
	logger  zerolog.Logger
}

func NewPage(ctx context.Context, opts PageOptions, fetcher workflow.PriceFetcher) (*Page, error) {
	if opts.DeviceScale <= 0 {
		opts.DeviceScale = 1
	}
	size := opts.BaseFontSize * opts.DeviceScale
	face, err := esset.GetFont(opts.Font, int(size))
	if err != nil {
		return nil, err
	}

	log.Debug().Msg("Glyph caching...")
	tmp := ebiten.NewImage(1, 1)
	text.Draw(tmp, glyphsToPreload, face, &text.DrawOptions{})
	log.Debug().Msg("Glyph caching done.")

	logger := log.With().Str("component", "ui").Logger()
	p := &Page{
		ctx:         ctx,
		fontFace:    face,
		deviceScale: opts.DeviceScale,
		lineHeight:  size*1.5 + 5*opts.DeviceScale,
		coin:        NewTextField("Coin", opts.DefaultCoin),
		currency:    NewTextField("Para birimi", opts.DefaultCurrency),
		days:        NewTextField("Gün", opts.DefaultDays),
		fetch:       Button{Caption: "Getir"},
		price:       &Label{},
		logo:        NewLogoView(ctx, logger),
		chart:       NewChartView(chart.NewCanvas()),
		alerts:      NewAlertDialog(),
		logger:      logger,
	}
	p.fields = []*TextField{p.coin, p.currency, p.days}
	p.coin.SetFocused(true)

	p.handler, err = workflow.NewHandler(p.Elements(), fetcher)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Elements exposes the page's handles to the lookup workflow.
func (p *Page) Elements() workflow.Elements {
	return workflow.Elements{
		Coin:     p.coin,
		Currency: p.currency,
		Days:     p.days,
		Price:    p.price,
		Logo:     p.logo,
		Chart:    p.chart.Canvas,
		Alerts:   p.alerts,
	}
}

// submit starts one lookup off the game loop so the window keeps drawing.
func (p *Page) submit() {
	p.pending.Add(1)
	go func() {
		defer p.pending.Add(-1)
		outcome := p.handler.Run(p.ctx)
		p.logger.Debug().Stringer("outcome", outcome).Msg("Lookup finished")
	}()
}

func (p *Page) Update() error {
	if p.alerts.Open() {
		p.alerts.update()
		return nil
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if p.fetch.clicked(mx, my) {
			p.submit()
		}
		for _, f := range p.fields {
			if inRect(f.Rect, mx, my) {
				p.focus(f)
				break
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		p.focusNext()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		p.submit()
	}

	chars := ebiten.AppendInputChars(nil)
	for _, f := range p.fields {
		f.update(chars)
	}
	return nil
}

func (p *Page) focus(target *TextField) {
	for _, f := range p.fields {
		f.SetFocused(f == target)
	}
}

func (p *Page) focusNext() {
	for i, f := range p.fields {
		if f.Focused() {
			p.focus(p.fields[(i+1)%len(p.fields)])
			return
		}
	}
	p.focus(p.fields[0])
}

// layout places every widget for the current screen size.
func (p *Page) layout(w, h int) {
	s := p.deviceScale
	pad := int(10 * s)
	lh := int(p.lineHeight)

	y := pad + lh
	x := pad
	for i, width := range []float64{200, 120, 70} {
		fw := int(width * s)
		p.fields[i].Rect = image.Rect(x, y, x+fw, y+lh)
		x += fw + pad
	}
	p.fetch.Rect = image.Rect(x, y, x+int(90*s), y+lh)

	infoY := y + lh + pad
	logo := int(48 * s)
	p.logo.Rect = image.Rect(pad, infoY, pad+logo, infoY+logo)

	chartTop := infoY + logo + pad
	p.chart.Rect = image.Rect(pad, chartTop, w-pad, h-pad)
}

func (p *Page) Draw(screen *ebiten.Image) {
	screen.Fill(colorPage)
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	p.layout(sw, sh)

	for _, f := range p.fields {
		f.draw(screen, p.fontFace, p.deviceScale)
	}
	p.fetch.draw(screen, p.fontFace, p.pending.Load() == 0)

	p.logo.draw(screen)
	priceX := float64(p.logo.Rect.Max.X) + 10*p.deviceScale
	_, th := text.Measure("A", p.fontFace, 0)
	priceY := float64(p.logo.Rect.Min.Y) + (float64(p.logo.Rect.Dy())-th)/2
	status := p.price.Text()
	if p.pending.Load() > 0 {
		status += "  (yükleniyor...)"
	}
	esset.DrawText(screen, status, 0, priceX, priceY, p.fontFace, colorInk)

	p.chart.draw(screen, p.fontFace, p.deviceScale)
	p.alerts.draw(screen, p.fontFace, p.deviceScale)
}

func (p *Page) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return int(float64(outsideWidth) * p.deviceScale), int(float64(outsideHeight) * p.deviceScale)
}
