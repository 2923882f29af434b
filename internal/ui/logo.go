package ui

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
)

const maxLogoBytes = 4 << 20

// LogoView shows the image behind the last URL it was given.
type LogoView struct {
	Rect image.Rectangle

	ctx        context.Context
	httpClient *http.Client
	logger     zerolog.Logger

	mu      sync.Mutex
	src     string
	decoded image.Image
	img     *ebiten.Image
}

func NewLogoView(ctx context.Context, logger zerolog.Logger) *LogoView {
	return &LogoView{
		ctx:        ctx,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

func (l *LogoView) Source() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src
}

// SetSource swaps the URL and loads it in the background. The URL is not checked.
func (l *LogoView) SetSource(url string) {
	l.mu.Lock()
	// Same URL with an image already in hand: nothing to do. A failed load is retried.
	if url == l.src && (l.img != nil || l.decoded != nil) {
		l.mu.Unlock()
		return
	}
	l.src = url
	l.decoded = nil
	l.img = nil
	l.mu.Unlock()

	if url == "" {
		return
	}
	go l.load(url)
}

func (l *LogoView) load(url string) {
	decoded, err := fetchImage(l.ctx, l.httpClient, url)
	if err != nil {
		l.logger.Warn().Err(err).Str("url", url).Msg("Could not load logo")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.src != url {
		return
	}
	l.decoded = decoded
}

func fetchImage(ctx context.Context, hc *http.Client, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logo download: %s", resp.Status)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return img, nil
}

// draw runs on the game thread, which is where the GPU image gets created.
func (l *LogoView) draw(screen *ebiten.Image) {
	l.mu.Lock()
	if l.img == nil && l.decoded != nil {
		l.img = ebiten.NewImageFromImage(l.decoded)
		l.decoded = nil
	}
	img := l.img
	l.mu.Unlock()

	if img == nil {
		return
	}

	b := img.Bounds()
	r := l.Rect
	sx := float64(r.Dx()) / float64(b.Dx())
	sy := float64(r.Dy()) / float64(b.Dy())
	s := min(sx, sy)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(s, s)
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}
