package ui

import (
	"image"
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/temidaradev/esset/v2"

	"coinview/internal/chart"
)

const (
	yTickCount        = 6
	maxMarkerPoints   = 60
	gridAlpha         = 40
	chartFramePadding = 8
	placeholderHint   = "Bir coin girip Getir'e basın."
)

// ChartView paints whatever chart is live on its canvas.
type ChartView struct {
	Rect   image.Rectangle
	Canvas *chart.Canvas

	solid *ebiten.Image
}

func NewChartView(canvas *chart.Canvas) *ChartView {
	solid := ebiten.NewImage(1, 1)
	solid.Fill(color.White)
	return &ChartView{Canvas: canvas, solid: solid}
}

func (v *ChartView) draw(screen *ebiten.Image, face text.Face, scale float64) {
	r := v.Rect
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), color.White, false)

	c := v.Canvas.Current()
	if c == nil || c.Destroyed() {
		v.drawCentered(screen, placeholderHint, face)
		return
	}
	cfg := c.Config()
	if len(cfg.Datasets) == 0 {
		return
	}
	ds := cfg.Datasets[0]
	if len(ds.Data) == 0 {
		v.drawCentered(screen, "Veri yok", face)
		return
	}

	pad := chartFramePadding * scale
	_, lh := text.Measure("0", face, 0)

	// legend
	legendY := float64(r.Min.Y) + pad
	box := float32(lh * 0.8)
	lw, _ := text.Measure(ds.Label, face, 0)
	legendX := float64(r.Min.X) + (float64(r.Dx())-lw-float64(box)-4*scale)/2
	vector.DrawFilledRect(screen, float32(legendX), float32(legendY), box*2, box, ds.BackgroundColor, false)
	vector.StrokeRect(screen, float32(legendX), float32(legendY), box*2, box, float32(scale), ds.BorderColor, false)
	esset.DrawText(screen, ds.Label, 0, legendX+float64(box)*2+4*scale, legendY, face, cfg.Options.XTicks.Color)

	scl := chart.NiceScale(ds.Data, yTickCount)
	yLabels := make([]string, len(scl.Ticks))
	yLabelW := 0.0
	for i, t := range scl.Ticks {
		yLabels[i] = strconv.FormatFloat(t, 'f', -1, 64)
		if w, _ := text.Measure(yLabels[i], face, 0); w > yLabelW {
			yLabelW = w
		}
	}

	plot := image.Rect(
		r.Min.X+int(pad+yLabelW+pad),
		int(legendY+lh+pad),
		r.Max.X-int(pad),
		r.Max.Y-int(pad+lh+pad),
	)
	if plot.Dx() <= 0 || plot.Dy() <= 0 {
		return
	}

	yAt := func(val float64) float32 {
		return float32(float64(plot.Max.Y) - scl.Pos(val)*float64(plot.Dy()))
	}
	n := len(ds.Data)
	xAt := func(i int) float32 {
		if n == 1 {
			return float32(plot.Min.X + plot.Dx()/2)
		}
		return float32(float64(plot.Min.X) + float64(i)/float64(n-1)*float64(plot.Dx()))
	}

	grid := color.RGBA{0, 0, 0, gridAlpha}
	for i, t := range scl.Ticks {
		y := yAt(t)
		vector.StrokeLine(screen, float32(plot.Min.X), y, float32(plot.Max.X), y, 1, grid, false)
		w, _ := text.Measure(yLabels[i], face, 0)
		esset.DrawText(screen, yLabels[i], 0, float64(plot.Min.X)-pad-w, float64(y)-lh/2, face, cfg.Options.YTicks.Color)
	}

	labelW := 0.0
	for _, l := range cfg.Labels {
		if w, _ := text.Measure(l, face, 0); w > labelW {
			labelW = w
		}
	}
	stride := chart.LabelStride(len(cfg.Labels), int(float64(plot.Dx())/(labelW+pad*2)))
	for i := 0; i < len(cfg.Labels) && i < n; i += stride {
		x := xAt(i)
		vector.StrokeLine(screen, x, float32(plot.Min.Y), x, float32(plot.Max.Y), 1, grid, false)
		w, _ := text.Measure(cfg.Labels[i], face, 0)
		esset.DrawText(screen, cfg.Labels[i], 0, float64(x)-w/2, float64(plot.Max.Y)+pad, face, cfg.Options.XTicks.Color)
	}

	if ds.Fill && n > 1 {
		v.fillArea(screen, ds, xAt, yAt, float32(plot.Max.Y))
	}

	if n > 1 {
		path := &vector.Path{}
		path.MoveTo(xAt(0), yAt(ds.Data[0]))
		for i := 1; i < n; i++ {
			path.LineTo(xAt(i), yAt(ds.Data[i]))
		}
		vs, is := path.AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
			Width:    2.0 * float32(scale),
			LineJoin: vector.LineJoinRound,
		})
		op := &ebiten.DrawTrianglesOptions{}
		op.ColorScale.ScaleWithColor(ds.BorderColor)
		op.AntiAlias = true
		screen.DrawTriangles(vs, is, v.solid, op)
	}

	if n <= maxMarkerPoints {
		for i, val := range ds.Data {
			vector.DrawFilledCircle(screen, xAt(i), yAt(val), 3*float32(scale), ds.BackgroundColor, true)
			vector.StrokeCircle(screen, xAt(i), yAt(val), 3*float32(scale), float32(scale), ds.BorderColor, true)
		}
	}

	vector.StrokeLine(screen, float32(plot.Min.X), float32(plot.Max.Y), float32(plot.Max.X), float32(plot.Max.Y), 1, colorBorder, false)
	vector.StrokeLine(screen, float32(plot.Min.X), float32(plot.Min.Y), float32(plot.Min.X), float32(plot.Max.Y), 1, colorBorder, false)
}

// fillArea paints the region between the line and the x axis, one trapezoid per segment.
func (v *ChartView) fillArea(screen *ebiten.Image, ds chart.Dataset, xAt func(int) float32, yAt func(float64) float32, base float32) {
	// DrawTriangles takes 16-bit indices, so long series go out in chunks.
	const chunk = 16000

	n := len(ds.Data)
	for start := 0; start < n-1; start += chunk {
		end := min(start+chunk, n-1)

		vs := make([]ebiten.Vertex, 0, (end-start+1)*2)
		is := make([]uint16, 0, (end-start)*6)
		for i := start; i <= end; i++ {
			x := xAt(i)
			vs = append(vs,
				ebiten.Vertex{DstX: x, DstY: yAt(ds.Data[i]), SrcX: 0.5, SrcY: 0.5, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
				ebiten.Vertex{DstX: x, DstY: base, SrcX: 0.5, SrcY: 0.5, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
			)
			if i == start {
				continue
			}
			k := uint16(2 * (i - start))
			is = append(is, k-2, k-1, k, k, k-1, k+1)
		}
		v.flushFill(screen, vs, is, ds.BackgroundColor)
	}
}

func (v *ChartView) flushFill(screen *ebiten.Image, vs []ebiten.Vertex, is []uint16, clr color.RGBA) {
	if len(is) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{}
	op.ColorScale.ScaleWithColor(clr)
	screen.DrawTriangles(vs, is, v.solid, op)
}

func (v *ChartView) drawCentered(screen *ebiten.Image, msg string, face text.Face) {
	r := v.Rect
	w, h := text.Measure(msg, face, 0)
	esset.DrawText(screen, msg, 0, float64(r.Min.X)+(float64(r.Dx())-w)/2, float64(r.Min.Y)+(float64(r.Dy())-h)/2, face, colorMuted)
}
