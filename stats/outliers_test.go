package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTukeyFences(t *testing.T) {
	testData := map[string]struct {
		y         []float64
		lowerPerc float64
		upperPerc float64
		factor    float64
		expected  Fences
		err       error
	}{
		"quartiles": {
			y:         []float64{8, 1, 2, 3, 4, 5, 6, 7},
			lowerPerc: 0.25,
			upperPerc: 0.75,
			factor:    1.5,
			expected:  Fences{Lower: -4, Upper: 12},
		},
		"negative factor is zero": {
			y:         []float64{1, 2, 3, 4},
			lowerPerc: 0,
			upperPerc: 1,
			factor:    -1,
			expected:  Fences{Lower: 1, Upper: 4},
		},
		"nan ignored": {
			y:         []float64{math.NaN(), 5, 5, 5},
			lowerPerc: 0.25,
			upperPerc: 0.75,
			factor:    1.5,
			expected:  Fences{Lower: 5, Upper: 5},
		},
		"empty": {
			lowerPerc: 0.25,
			upperPerc: 0.75,
			expected:  Fences{Lower: math.Inf(-1), Upper: math.Inf(1)},
		},
		"inverted percentiles": {
			y:         []float64{1, 2},
			lowerPerc: 0.75,
			upperPerc: 0.25,
			err:       ErrInvalidPercentiles,
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := TukeyFences(td.y, td.lowerPerc, td.upperPerc, td.factor)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestDetectOutliers(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		expected []int
	}{
		"none":     {y: []float64{10, 11, 9, 10, 12, 11}, expected: nil},
		"constant": {y: []float64{5, 5, 5, 5}, expected: nil},
		"spike":    {y: []float64{10, 11, 9, 10, 80, 11, 10, 9}, expected: []int{4}},
		"both":     {y: []float64{10, 11, 9, -50, 10, 12, 80, 11}, expected: []int{3, 6}},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := DetectOutliers(td.y, 0.25, 0.75, 1.5)
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}
