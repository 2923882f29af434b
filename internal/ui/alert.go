package ui

import (
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/temidaradev/esset/v2"
)

// AlertDialog is a modal message box. Alert blocks its caller until the
// user dismisses the box; the page ignores other input while it is open.
type AlertDialog struct {
	mu      sync.Mutex
	message string
	done    chan struct{}
	ok      Button
}

func NewAlertDialog() *AlertDialog {
	return &AlertDialog{ok: Button{Caption: "Tamam"}}
}

func (a *AlertDialog) Alert(message string) {
	a.mu.Lock()
	for a.done != nil {
		prev := a.done
		a.mu.Unlock()
		<-prev
		a.mu.Lock()
	}
	done := make(chan struct{})
	a.message, a.done = message, done
	a.mu.Unlock()

	<-done
}

func (a *AlertDialog) Open() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}

func (a *AlertDialog) dismiss() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		close(a.done)
		a.done = nil
		a.message = ""
	}
}

// update closes the box on Enter, Escape or a click on the button.
func (a *AlertDialog) update() {
	if !a.Open() {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.dismiss()
		return
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if a.ok.clicked(x, y) {
			a.dismiss()
		}
	}
}

func (a *AlertDialog) draw(screen *ebiten.Image, face text.Face, scale float64) {
	a.mu.Lock()
	open, message := a.done != nil, a.message
	a.mu.Unlock()
	if !open {
		return
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	vector.DrawFilledRect(screen, 0, 0, float32(sw), float32(sh), color.RGBA{0, 0, 0, 120}, false)

	lines := wrap(message, face, float64(sw)*0.6)
	_, lh := text.Measure("Ag", face, 0)
	pad := int(16 * scale)
	bw := int(float64(sw) * 0.6)
	bh := pad*3 + int(lh)*(len(lines)+2)
	box := image.Rect((sw-bw)/2, (sh-bh)/2, (sw+bw)/2, (sh+bh)/2)

	vector.DrawFilledRect(screen, float32(box.Min.X), float32(box.Min.Y), float32(box.Dx()), float32(box.Dy()), color.White, false)
	vector.StrokeRect(screen, float32(box.Min.X), float32(box.Min.Y), float32(box.Dx()), float32(box.Dy()), float32(scale), colorBorder, false)

	y := float64(box.Min.Y + pad)
	for _, line := range lines {
		esset.DrawText(screen, line, 0, float64(box.Min.X+pad), y, face, colorInk)
		y += lh
	}

	btnW, btnH := int(90*scale), int(lh)+pad
	a.mu.Lock()
	a.ok.Rect = image.Rect(box.Max.X-pad-btnW, box.Max.Y-pad-btnH, box.Max.X-pad, box.Max.Y-pad)
	a.mu.Unlock()
	a.ok.draw(screen, face, true)
}

// wrap breaks message into lines no wider than maxWidth.
func wrap(message string, face text.Face, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(message, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			next := word
			if line != "" {
				next = line + " " + word
			}
			if w, _ := text.Measure(next, face, 0); w > maxWidth && line != "" {
				lines = append(lines, line)
				line = word
				continue
			}
			line = next
		}
		lines = append(lines, line)
	}
	return lines
}
