package forecaster

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/chronos/sarima"
	"github.com/aouyang1/chronos/timedataset"
	"github.com/rickar/cal/v2"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrEmptyTimeDataset  = errors.New("no timedataset or uninitialized")
	ErrNotDaily          = errors.New("training data must be a gap free daily series")
	ErrFitFailed         = errors.New("unable to fit forecast model")
	ErrUntrainedModel    = errors.New("forecaster has not been fit")
	ErrHorizonOutOfRange = errors.New("forecast horizon out of range")
)

// Forecaster fits a seasonal ARIMA model to a daily series and forecasts the days that follow it
type Forecaster struct {
	opt      *Options
	holidays *cal.Calendar

	estimator *sarima.Estimator

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	estimator, err := sarima.New(opt.SARIMAOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize estimator, %w", err)
	}
	holidays, err := HolidayCalendar(opt.HolidayCountry)
	if err != nil {
		return nil, err
	}

	return &Forecaster{
		opt:       opt,
		holidays:  holidays,
		estimator: estimator,
	}, nil
}

// Fit trains the model on a prepared daily series with no missing values
func (f *Forecaster) Fit(td *timedataset.TimeDataset) error {
	if td == nil || td.Len() == 0 {
		return ErrEmptyTimeDataset
	}
	if !td.IsDaily() {
		return ErrNotDaily
	}
	for i, v := range td.Y {
		if math.IsNaN(v) {
			return fmt.Errorf("missing value on %s, %w", td.T[i].Format("2006-01-02"), ErrNotDaily)
		}
	}

	f.fitTrainingData = nil
	f.fitResults = nil
	if err := f.estimator.Fit(td.Y); err != nil {
		return fmt.Errorf("%w, %w", ErrFitFailed, err)
	}
	f.fitTrainingData = td.Copy()

	res, err := f.inSample()
	if err != nil {
		return fmt.Errorf("unable to get fitted values from training set, %w", err)
	}
	f.fitResults = res
	return nil
}

// inSample builds the one step ahead fit over the training dates with a constant width interval
// from the innovation variance.
func (f *Forecaster) inSample() (*Results, error) {
	model, err := f.estimator.Model()
	if err != nil {
		return nil, err
	}
	fitted := f.estimator.FittedValues()
	z := distuv.UnitNormal.Quantile((1 + f.opt.Confidence) / 2)
	width := z * math.Sqrt(model.Sigma2)

	lower := make([]float64, len(fitted))
	upper := make([]float64, len(fitted))
	for i, v := range fitted {
		lower[i] = v - width
		upper[i] = v + width
	}
	return &Results{
		T:        f.fitTrainingData.T,
		Forecast: fitted,
		Lower:    lower,
		Upper:    upper,
	}, nil
}

// Predict forecasts the horizon days immediately following the last training date
func (f *Forecaster) Predict(horizon int) (*Results, error) {
	if f.fitTrainingData == nil {
		return nil, ErrUntrainedModel
	}
	if horizon < f.opt.MinHorizon || horizon > f.opt.MaxHorizon {
		return nil, fmt.Errorf("got %d days, expected between %d and %d, %w",
			horizon, f.opt.MinHorizon, f.opt.MaxHorizon, ErrHorizonOutOfRange)
	}

	fc, err := f.estimator.Forecast(horizon, f.opt.Confidence)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrFitFailed, err)
	}

	lastDay := timedataset.TimeSlice(f.fitTrainingData.T).EndTime()
	t := timedataset.DailyRange(lastDay.AddDate(0, 0, 1), horizon)
	return &Results{
		T:        t,
		Forecast: fc.Mean,
		Lower:    fc.Lower,
		Upper:    fc.Upper,
		Holidays: holidayNames(f.holidays, t),
	}, nil
}

// History returns the most recent training days shown alongside a forecast
func (f *Forecaster) History() *timedataset.TimeDataset {
	if f.fitTrainingData == nil {
		return nil
	}
	return f.fitTrainingData.Tail(f.opt.HistoryWindow)
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the in-sample one step ahead predictions with their interval
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// Residuals returns the one step ahead errors over the training data
func (f *Forecaster) Residuals() []float64 {
	return f.estimator.Residuals()
}

// Model generates a serializeable summary of the options and fitted parameters
func (f *Forecaster) Model() (Model, error) {
	if f.fitTrainingData == nil {
		return Model{}, ErrUntrainedModel
	}
	m, err := f.estimator.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch sarima model, %w", err)
	}
	td := timedataset.TimeSlice(f.fitTrainingData.T)
	return Model{
		Options:        f.opt,
		TrainStartTime: td.StartTime(),
		TrainEndTime:   td.EndTime(),
		SARIMA:         *m,
	}, nil
}
