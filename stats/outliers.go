// Package stats flags unusual observations in a prepared series.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var ErrInvalidPercentiles = errors.New("percentiles must satisfy 0 <= lower < upper <= 1")

// Fences bound the values considered usual
type Fences struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TukeyFences widens the range between the lower and upper percentiles of y by factor times that
// range on each side. The classic fences use 0.25, 0.75 and 1.5. NaN values are ignored.
func TukeyFences(y []float64, lowerPerc, upperPerc, factor float64) (Fences, error) {
	if lowerPerc < 0 || upperPerc > 1 || lowerPerc >= upperPerc {
		return Fences{}, fmt.Errorf("got %.3f and %.3f, %w", lowerPerc, upperPerc, ErrInvalidPercentiles)
	}
	factor = math.Max(factor, 0.0)

	sorted := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return Fences{Lower: math.Inf(-1), Upper: math.Inf(1)}, nil
	}
	sort.Float64s(sorted)

	lower := stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	innerRange := upper - lower
	return Fences{
		Lower: lower - innerRange*factor,
		Upper: upper + innerRange*factor,
	}, nil
}

// DetectOutliers returns the indices of y strictly outside its Tukey fences
func DetectOutliers(y []float64, lowerPerc, upperPerc, factor float64) ([]int, error) {
	fences, err := TukeyFences(y, lowerPerc, upperPerc, factor)
	if err != nil {
		return nil, err
	}

	var outlierIdx []int
	for i, v := range y {
		if v > fences.Upper || v < fences.Lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx, nil
}
