package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/chronos/sarima"
)

var ErrInvalidOptions = errors.New("invalid forecaster options")

// Options configures the forecaster. The defaults reproduce the weekly retail setup: a
// (1,1,1)(1,1,0,7) model, 95% intervals, the last 90 days of history for display and horizons of
// one week up to three months.
type Options struct {
	SARIMAOptions *sarima.Options `json:"sarima_options"`

	Confidence    float64 `json:"confidence"`
	HistoryWindow int     `json:"history_window"`
	MinHorizon    int     `json:"min_horizon"`
	MaxHorizon    int     `json:"max_horizon"`

	// HolidayCountry selects the public holiday calendar used to annotate forecast dates. Empty
	// disables annotation.
	HolidayCountry string `json:"holiday_country"`
}

func NewDefaultOptions() *Options {
	return &Options{
		SARIMAOptions:  sarima.NewDefaultOptions(),
		Confidence:     0.95,
		HistoryWindow:  90,
		MinHorizon:     7,
		MaxHorizon:     90,
		HolidayCountry: "br",
	}
}

func (o *Options) Validate() error {
	if o.Confidence <= 0 || o.Confidence >= 1 {
		return fmt.Errorf("confidence %.3f must be between 0 and 1, %w", o.Confidence, ErrInvalidOptions)
	}
	if o.HistoryWindow < 1 {
		return fmt.Errorf("history window %d must be positive, %w", o.HistoryWindow, ErrInvalidOptions)
	}
	if o.MinHorizon < 1 || o.MaxHorizon < o.MinHorizon {
		return fmt.Errorf("horizon range [%d, %d] is empty, %w", o.MinHorizon, o.MaxHorizon, ErrInvalidOptions)
	}
	if _, err := HolidayCalendar(o.HolidayCountry); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidOptions, err)
	}
	return nil
}
