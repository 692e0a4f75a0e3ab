package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOLSRegression(t *testing.T) {
	tol := 1e-5
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *OLSOptions
		intercept float64
		coef      []float64
	}{
		"ols model intercept": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			opt:       NewDefaultOLSOptions(),
			intercept: 2,
			coef:      []float64{3, 4},
		},
		"ols model no intercept": {
			x: [][]float64{
				{1, 0, 0},
				{1, 3, 5},
				{1, 9, 20},
				{1, 12, 6},
				{1, 15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			opt:       &OLSOptions{FitIntercept: false},
			intercept: 0,
			coef:      []float64{2, 3, 4},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := NewDenseFromArray(td.x)
			require.Nil(t, err)
			y := mat.NewDense(len(td.y), 1, td.y)

			model, err := NewOLSRegression(td.opt)
			require.Nil(t, err)
			testModel(t, model, x, y, td.intercept, td.coef, tol)
		})
	}
}

func TestOLSRegressionErrors(t *testing.T) {
	x, err := NewDenseFromArray([][]float64{{1}, {2}})
	require.Nil(t, err)

	testData := map[string]struct {
		model *OLSRegression
		x     mat.Matrix
		y     mat.Matrix
		err   error
	}{
		"no options": {
			model: &OLSRegression{},
			x:     x,
			y:     mat.NewDense(2, 1, nil),
			err:   ErrNoOptions,
		},
		"no training matrix": {
			model: &OLSRegression{opt: NewDefaultOLSOptions()},
			y:     mat.NewDense(2, 1, nil),
			err:   ErrNoTrainingMatrix,
		},
		"no target matrix": {
			model: &OLSRegression{opt: NewDefaultOLSOptions()},
			x:     x,
			err:   ErrNoTargetMatrix,
		},
		"target length mismatch": {
			model: &OLSRegression{opt: NewDefaultOLSOptions()},
			x:     x,
			y:     mat.NewDense(3, 1, nil),
			err:   ErrTargetLenMismatch,
		},
		"underdetermined": {
			model: &OLSRegression{opt: NewDefaultOLSOptions()},
			x:     mat.NewDense(1, 1, []float64{1}),
			y:     mat.NewDense(1, 1, []float64{1}),
			err:   ErrUnderdetermined,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.model.Fit(td.x, td.y)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestOLSPredictFeatureMismatch(t *testing.T) {
	model, err := NewOLSRegression(nil)
	require.Nil(t, err)

	x, err := NewDenseFromArray([][]float64{{0}, {1}, {2}})
	require.Nil(t, err)
	require.Nil(t, model.Fit(x, mat.NewDense(3, 1, []float64{1, 3, 5})))

	_, err = model.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)
}

func TestOLS(t *testing.T) {
	// y = 1 + 0.5*x0 - 2*x1
	x := [][]float64{
		{0, 1},
		{1, 0},
		{2, 3},
		{3, 1},
		{4, 4},
		{5, 2},
	}
	y := make([]float64, len(x))
	for i, row := range x {
		y[i] = 1 + 0.5*row[0] - 2*row[1]
	}

	intercept, coef, err := OLS(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, intercept, 1e-9)
	assert.InDeltaSlice(t, []float64{0.5, -2}, coef, 1e-9)

	_, _, err = OLS(nil, y)
	assert.ErrorIs(t, err, ErrEmptyMatrix)

	_, _, err = OLS(x, nil)
	assert.ErrorIs(t, err, ErrNoTargetMatrix)
}

func TestNewDenseFromArray(t *testing.T) {
	testData := map[string]struct {
		x   [][]float64
		err error
	}{
		"empty":         {x: nil, err: ErrEmptyMatrix},
		"empty rows":    {x: [][]float64{{}, {}}, err: ErrEmptyMatrix},
		"ragged":        {x: [][]float64{{1, 2}, {3}}, err: ErrColMismatch},
		"valid 2 by 2":  {x: [][]float64{{1, 2}, {3, 4}}},
		"single column": {x: [][]float64{{1}, {2}, {3}}},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := NewDenseFromArray(td.x)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			r, c := m.Dims()
			assert.Equal(t, len(td.x), r)
			assert.Equal(t, len(td.x[0]), c)
			for i := range td.x {
				assert.Equal(t, td.x[i], mat.Row(nil, i, m))
			}
		})
	}
}

func testModel(t *testing.T, model Model, x, y mat.Matrix, intercept float64, coef []float64, tol float64) {
	t.Helper()
	err := model.Fit(x, y)
	require.Nil(t, err)

	assert.InDelta(t, intercept, model.Intercept(), tol)
	assert.InDeltaSlice(t, coef, model.Coef(), tol)

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, tol)
}
