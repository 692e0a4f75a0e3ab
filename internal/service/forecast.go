// Package service runs the request pipeline from an uploaded CSV to a rendered forecast.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	forecaster "github.com/aouyang1/chronos"
	"github.com/aouyang1/chronos/internal/config"
	"github.com/aouyang1/chronos/internal/metrics"
	"github.com/aouyang1/chronos/stats"
	"github.com/aouyang1/chronos/timedataset"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrPrepare marks failures caused by the uploaded file
	ErrPrepare = errors.New("unable to prepare series")

	// ErrForecast marks failures of the model on an otherwise valid series
	ErrForecast = errors.New("unable to forecast series")
)

// StageError carries the pipeline stage that failed along with its cause
type StageError struct {
	Stage error
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.Error() + ", " + e.Err.Error()
}

func (e *StageError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}

const (
	opPreview  = "preview"
	opForecast = "forecast"

	// outlierFactor widens the interquartile range into the Tukey fences
	outlierFactor = 1.5
)

// Point is a single observation of the prepared series
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Preview is the prepared series and its line chart
type Preview struct {
	RunID   string  `json:"run_id"`
	Days    int     `json:"days"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	History []Point `json:"history"`

	// Outliers are the days outside the Tukey fences of the series
	Outliers  []Point      `json:"outliers"`
	Fences    stats.Fences `json:"fences"`
	ChartHTML []byte       `json:"-"`
}

// Output is everything a forecast run produces. Nothing is kept once it is returned.
type Output struct {
	RunID       string              `json:"run_id"`
	Horizon     int                 `json:"horizon"`
	Confidence  float64             `json:"confidence"`
	History     []Point             `json:"history"`
	Rows        []forecaster.Row    `json:"forecast"`
	Model       forecaster.Model    `json:"model"`
	FitDuration time.Duration       `json:"fit_duration_ns"`
	Results     *forecaster.Results `json:"-"`
	ChartHTML   []byte              `json:"-"`
	CSV         []byte              `json:"-"`
}

// WriteXLSX writes the forecast table as a spreadsheet
func (o *Output) WriteXLSX(w io.Writer) error {
	return forecaster.WriteXLSX(w, o.Results)
}

// ForecastService prepares uploads and forecasts them. It holds no per request state so a single
// instance serves concurrent requests.
type ForecastService struct {
	opt     *forecaster.Options
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewForecastService(opt *forecaster.Options, m *metrics.Metrics, logger zerolog.Logger) (*ForecastService, error) {
	if opt == nil {
		opt = forecaster.NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &ForecastService{
		opt:     opt,
		metrics: m,
		logger:  logger.With().Str("component", "forecast_service").Logger(),
	}, nil
}

// Options returns the forecaster options every run uses
func (s *ForecastService) Options() forecaster.Options {
	return *s.opt
}

func (s *ForecastService) prepare(ctx context.Context, op string, r io.Reader) (*timedataset.TimeDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	td, err := timedataset.Prepare(r)
	if err != nil {
		s.metrics.ObserveRequest(op, metrics.OutcomeInvalidUpload)
		return nil, &StageError{Stage: ErrPrepare, Err: err}
	}
	return td, nil
}

// Preview prepares the upload and renders its full history
func (s *ForecastService) Preview(ctx context.Context, r io.Reader) (*Preview, error) {
	td, err := s.prepare(ctx, opPreview, r)
	if err != nil {
		return nil, err
	}

	fences, err := stats.TukeyFences(td.Y, 0.25, 0.75, outlierFactor)
	if err != nil {
		return nil, fmt.Errorf("unable to compute outlier fences, %w", err)
	}
	outlierIdx, err := stats.DetectOutliers(td.Y, 0.25, 0.75, outlierFactor)
	if err != nil {
		return nil, fmt.Errorf("unable to detect outliers, %w", err)
	}
	outliers := make([]Point, 0, len(outlierIdx))
	for _, i := range outlierIdx {
		outliers = append(outliers, Point{Date: td.T[i], Value: td.Y[i]})
	}

	var chart bytes.Buffer
	if err := forecaster.PlotHistory(&chart, td); err != nil {
		return nil, fmt.Errorf("unable to render history chart, %w", err)
	}
	s.metrics.ObserveRequest(opPreview, metrics.OutcomeSuccess)

	return &Preview{
		RunID:     uuid.NewString(),
		Days:      td.Len(),
		Start:     td.T[0].Format(time.DateOnly),
		End:       td.T[td.Len()-1].Format(time.DateOnly),
		History:   points(td),
		Outliers:  outliers,
		Fences:    fences,
		ChartHTML: chart.Bytes(),
	}, nil
}

// Run prepares the upload, fits the model and forecasts horizon days past the last observation.
func (s *ForecastService) Run(ctx context.Context, r io.Reader, horizon int) (*Output, error) {
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Int("horizon", horizon).Logger()

	td, err := s.prepare(ctx, opForecast, r)
	if err != nil {
		logger.Info().Err(err).Msg("rejected upload")
		return nil, err
	}

	f, err := forecaster.New(s.opt)
	if err != nil {
		return nil, fmt.Errorf("unable to create forecaster, %w", err)
	}

	start := time.Now()
	if err := f.Fit(td); err != nil {
		s.metrics.ObserveRequest(opForecast, metrics.OutcomeFitFailed)
		logger.Warn().Err(err).Int("days", td.Len()).Msg("fit failed")
		return nil, &StageError{Stage: ErrForecast, Err: err}
	}
	fitDuration := time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := f.Predict(horizon)
	if err != nil {
		s.metrics.ObserveRequest(opForecast, metrics.OutcomeFitFailed)
		return nil, &StageError{Stage: ErrForecast, Err: err}
	}
	model, err := f.Model()
	if err != nil {
		return nil, &StageError{Stage: ErrForecast, Err: err}
	}

	history := f.History()
	var chart bytes.Buffer
	if err := forecaster.PlotForecast(&chart, history, res); err != nil {
		return nil, fmt.Errorf("unable to render forecast chart, %w", err)
	}
	var export bytes.Buffer
	if err := forecaster.WriteCSV(&export, res); err != nil {
		return nil, fmt.Errorf("unable to export forecast, %w", err)
	}

	s.metrics.ObserveRequest(opForecast, metrics.OutcomeSuccess)
	s.metrics.ObserveFit(fitDuration, horizon, td.Len())
	logger.Info().
		Int("days", td.Len()).
		Dur("fit_duration", fitDuration).
		Float64("sigma2", model.SARIMA.Sigma2).
		Msg("forecast complete")

	return &Output{
		RunID:       runID,
		Horizon:     horizon,
		Confidence:  s.opt.Confidence,
		History:     points(history),
		Rows:        res.Rows(),
		Model:       model,
		FitDuration: fitDuration,
		Results:     res,
		ChartHTML:   chart.Bytes(),
		CSV:         export.Bytes(),
	}, nil
}

func points(td *timedataset.TimeDataset) []Point {
	out := make([]Point, 0, td.Len())
	for i := 0; i < td.Len(); i++ {
		out = append(out, Point{Date: td.T[i], Value: td.Y[i]})
	}
	return out
}

// OptionsFromConfig maps the forecast section of the configuration onto forecaster options
func OptionsFromConfig(cfg config.ForecastConfig) *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.Confidence = cfg.Confidence
	opt.HistoryWindow = cfg.HistoryWindow
	opt.MinHorizon = cfg.MinHorizon
	opt.MaxHorizon = cfg.MaxHorizon
	opt.HolidayCountry = cfg.HolidayCountry
	return opt
}
