package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrNonDaily           = errors.New("time feature is not a contiguous daily calendar")
)

// Day is the fixed step of a regularized dataset.
const Day = 24 * time.Hour

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length. A NaN value marks a missing observation.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}, nil
}

// Len returns the number of points in the dataset
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.Y))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// DropNan returns a copy of the dataset without the points that have no observation
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}
	res := &TimeDataset{
		T: make([]time.Time, 0, len(td.T)),
		Y: make([]float64, 0, len(td.Y)),
	}
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(td.Y[i]) {
			continue
		}
		res.T = append(res.T, td.T[i])
		res.Y = append(res.Y, td.Y[i])
	}
	return res
}

// ForwardFill returns a copy of the dataset where every missing value is replaced by the most
// recent observed value before it. Missing values before the first observation stay NaN.
func (td *TimeDataset) ForwardFill() *TimeDataset {
	res := td.Copy()
	if res == nil {
		return nil
	}
	last := math.NaN()
	for i, v := range res.Y {
		if math.IsNaN(v) {
			res.Y[i] = last
			continue
		}
		last = v
	}
	return res
}

// LeadingGap returns the number of missing values before the first observation.
func (td *TimeDataset) LeadingGap() int {
	if td == nil {
		return 0
	}
	for i, v := range td.Y {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(td.Y)
}

// Tail returns a copy of the last n points. If the dataset is shorter all points are returned.
func (td *TimeDataset) Tail(n int) *TimeDataset {
	if td == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	start := len(td.T) - n
	if start < 0 {
		start = 0
	}
	sub := &TimeDataset{T: td.T[start:], Y: td.Y[start:]}
	return sub.Copy()
}

// IsDaily checks that the time feature steps exactly one day between every point
func (td *TimeDataset) IsDaily() bool {
	if td == nil {
		return false
	}
	for i := 1; i < len(td.T); i++ {
		if td.T[i].Sub(td.T[i-1]) != Day {
			return false
		}
	}
	return true
}
