package workflow

import (
	"errors"
	"fmt"

	"coinview/internal"
	"coinview/internal/chart"
)

var ErrMissingElement = errors.New("missing page element")

// InputControl is a form field the user types into.
type InputControl interface {
	Value() string
}

type TextDisplay interface {
	SetText(string)
}

type ImageDisplay interface {
	SetSource(url string)
}

// Notifier shows a message the user has to dismiss.
type Notifier interface {
	Alert(message string)
}

// Elements is the page the workflow reads from and renders into.
type Elements struct {
	Coin     InputControl
	Currency InputControl
	Days     InputControl
	Price    TextDisplay
	Logo     ImageDisplay
	Chart    *chart.Canvas
	Alerts   Notifier
}

func (e Elements) validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingElement, name)
	}
	switch {
	case e.Coin == nil:
		return missing("coin")
	case e.Currency == nil:
		return missing("currency")
	case e.Days == nil:
		return missing("days")
	case e.Price == nil:
		return missing("price")
	case e.Logo == nil:
		return missing("logo")
	case e.Chart == nil:
		return missing("chart")
	case e.Alerts == nil:
		return missing("alerts")
	}
	return nil
}

// Collect reads the three inputs as they are.
func Collect(e Elements) internal.QueryInput {
	return internal.QueryInput{
		Coin:     e.Coin.Value(),
		Currency: e.Currency.Value(),
		Days:     e.Days.Value(),
	}
}
