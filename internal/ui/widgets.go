package ui

import (
	"image"
	"image/color"
	"sync"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/temidaradev/esset/v2"
)

var (
	colorInk       = color.RGBA{20, 20, 20, 255}
	colorMuted     = color.RGBA{120, 120, 120, 255}
	colorBorder    = color.RGBA{180, 180, 180, 255}
	colorFocus     = color.RGBA{0, 0, 255, 255}
	colorFieldBg   = color.RGBA{255, 255, 255, 255}
	colorButton    = color.RGBA{0, 0, 255, 255}
	colorButtonOff = color.RGBA{140, 140, 200, 255}
	colorPage      = color.RGBA{245, 245, 245, 255}
)

func inRect(r image.Rectangle, x, y int) bool {
	return image.Pt(x, y).In(r)
}

// TextField is a single-line input box.
type TextField struct {
	Caption string
	Rect    image.Rectangle

	mu      sync.Mutex
	value   string
	focused bool
}

func NewTextField(caption, value string) *TextField {
	return &TextField{Caption: caption, value: value}
}

// Value is what the user typed, untrimmed.
func (f *TextField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *TextField) SetFocused(v bool) {
	f.mu.Lock()
	f.focused = v
	f.mu.Unlock()
}

func (f *TextField) Focused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

// update applies typed characters and backspace while focused.
func (f *TextField) update(chars []rune) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.focused {
		return
	}

	f.value += string(chars)
	if repeatingKeyPressed(ebiten.KeyBackspace) && f.value != "" {
		_, size := utf8.DecodeLastRuneInString(f.value)
		f.value = f.value[:len(f.value)-size]
	}
}

func (f *TextField) draw(screen *ebiten.Image, face text.Face, scale float64) {
	f.mu.Lock()
	value, focused := f.value, f.focused
	f.mu.Unlock()

	r := f.Rect
	border := colorBorder
	if focused {
		border = colorFocus
	}
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), colorFieldBg, false)
	vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), float32(scale), border, false)

	pad := 4 * scale
	_, ch := text.Measure(f.Caption, face, 0)
	esset.DrawText(screen, f.Caption, 0, float64(r.Min.X), float64(r.Min.Y)-ch-pad, face, colorMuted)

	shown := value
	if focused {
		shown += "|"
	}
	_, th := text.Measure(shown, face, 0)
	esset.DrawText(screen, shown, 0, float64(r.Min.X)+pad, float64(r.Min.Y)+(float64(r.Dy())-th)/2, face, colorInk)
}

// repeatingKeyPressed reports a press on the first frame and then at a steady repeat rate.
func repeatingKeyPressed(key ebiten.Key) bool {
	const (
		delay    = 30
		interval = 3
	)
	d := inpututil.KeyPressDuration(key)
	if d == 1 {
		return true
	}
	return d >= delay && (d-delay)%interval == 0
}

// Label is the price display.
type Label struct {
	mu   sync.Mutex
	text string
}

func (l *Label) SetText(s string) {
	l.mu.Lock()
	l.text = s
	l.mu.Unlock()
}

func (l *Label) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

type Button struct {
	Caption string
	Rect    image.Rectangle
}

func (b *Button) clicked(x, y int) bool {
	return inRect(b.Rect, x, y)
}

func (b *Button) draw(screen *ebiten.Image, face text.Face, enabled bool) {
	r := b.Rect
	bg := colorButton
	if !enabled {
		bg = colorButtonOff
	}
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), bg, false)

	tw, th := text.Measure(b.Caption, face, 0)
	x := float64(r.Min.X) + (float64(r.Dx())-tw)/2
	y := float64(r.Min.Y) + (float64(r.Dy())-th)/2
	esset.DrawText(screen, b.Caption, 0, x, y, face, color.White)
}
