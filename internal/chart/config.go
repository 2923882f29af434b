// Package chart holds the line chart model and the canvas that owns its live instance.
// Drawing lives in the ui package.
package chart

import "image/color"

const TypeLine = "line"

var (
	Blue      = color.RGBA{0, 0, 255, 255}
	LightBlue = color.RGBA{173, 216, 230, 255}
	Black     = color.RGBA{0, 0, 0, 255}
)

type Dataset struct {
	Label           string
	Data            []float64
	BorderColor     color.RGBA
	BackgroundColor color.RGBA
	Fill            bool
}

type Ticks struct {
	Color color.RGBA
}

type Options struct {
	// Responsive charts resize with their drawing area every frame.
	Responsive bool
	XTicks     Ticks
	YTicks     Ticks
}

type Config struct {
	Type     string
	Labels   []string
	Datasets []Dataset
	Options  Options
}

// NewPriceConfig builds the single-series price chart. labels and data are used in the given order.
func NewPriceConfig(labels []string, data []float64) Config {
	return Config{
		Type:   TypeLine,
		Labels: labels,
		Datasets: []Dataset{{
			Label:           "Fiyat",
			Data:            data,
			BorderColor:     Blue,
			BackgroundColor: LightBlue,
			Fill:            true,
		}},
		Options: Options{
			Responsive: true,
			XTicks:     Ticks{Color: Black},
			YTicks:     Ticks{Color: Black},
		},
	}
}

// Points returns the number of x positions on the chart.
func (c Config) Points() int {
	return len(c.Labels)
}
