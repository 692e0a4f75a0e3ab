package sarima

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekly(n int, level, slope, amp, noise float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, n)
	for i := range y {
		y[i] = level + slope*float64(i) + amp*math.Sin(2*math.Pi*float64(i)/7)
		if noise > 0 {
			y[i] += rng.NormFloat64() * noise
		}
	}
	return y
}

func TestOrder(t *testing.T) {
	testData := map[string]struct {
		order Order
		err   error
	}{
		"default":              {order: DefaultOrder()},
		"non-seasonal":         {order: Order{P: 2, D: 1, Q: 1}},
		"negative term":        {order: Order{P: -1}, err: ErrInvalidOrder},
		"negative period":      {order: Order{M: -7}, err: ErrInvalidOrder},
		"seasonal no period":   {order: Order{P: 1, SP: 1}, err: ErrInvalidOrder},
		"seasonal period of 1": {order: Order{SD: 1, M: 1}, err: ErrInvalidOrder},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.order.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}

	o := DefaultOrder()
	assert.Equal(t, "(1,1,1)(1,1,0,7)", o.String())
	assert.Equal(t, 3, o.NumParams())
	assert.Equal(t, 8, o.lost())

	ar, sar, ma, sma := o.split([]float64{0.1, 0.2, 0.3})
	assert.Equal(t, []float64{0.1}, ar)
	assert.Equal(t, []float64{0.2}, sar)
	assert.Equal(t, []float64{0.3}, ma)
	assert.Empty(t, sma)
}

func TestNew(t *testing.T) {
	est, err := New(nil)
	require.Nil(t, err)
	assert.Equal(t, DefaultOrder(), est.opt.Order)
	assert.False(t, est.opt.EnforceStationarity)
	assert.False(t, est.opt.EnforceInvertibility)

	_, err = New(&Options{Order: Order{SP: 1}})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestFitErrors(t *testing.T) {
	testData := map[string]struct {
		y   []float64
		err error
	}{
		"empty":     {y: nil, err: ErrInsufficientData},
		"too short": {y: weekly(12, 100, 0, 0, 0, 0), err: ErrInsufficientData},
		"nan":       {y: []float64{1, math.NaN(), 3}, err: ErrNonFiniteInput},
		"inf":       {y: []float64{1, math.Inf(1), 3}, err: ErrNonFiniteInput},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			est, err := New(NewDefaultOptions())
			require.Nil(t, err)
			err = est.Fit(td.y)
			assert.ErrorIs(t, err, td.err)

			_, err = est.Model()
			assert.ErrorIs(t, err, ErrUntrainedModel)
		})
	}
}

func TestForecastErrors(t *testing.T) {
	est, err := New(nil)
	require.Nil(t, err)

	_, err = est.Forecast(7, 0.95)
	assert.ErrorIs(t, err, ErrUntrainedModel)
	assert.Nil(t, est.Residuals())
	assert.Nil(t, est.FittedValues())

	require.Nil(t, est.Fit(weekly(60, 100, 0, 5, 1, 3)))

	_, err = est.Forecast(0, 0.95)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	_, err = est.Forecast(7, 1)
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	_, err = est.Forecast(7, 0)
	assert.ErrorIs(t, err, ErrInvalidConfidence)
}

func TestConstantSeries(t *testing.T) {
	est, err := New(NewDefaultOptions())
	require.Nil(t, err)

	// two weeks is the shortest history that leaves enough differenced points
	y := weekly(14, 100, 0, 0, 0, 0)
	require.Nil(t, est.Fit(y))

	fc, err := est.Forecast(7, 0.95)
	require.Nil(t, err)
	require.Len(t, fc.Mean, 7)
	for i := range fc.Mean {
		assert.InDelta(t, 100.0, fc.Mean[i], 1e-9)
		assert.Less(t, fc.Lower[i], fc.Mean[i])
		assert.Greater(t, fc.Upper[i], fc.Mean[i])
	}

	model, err := est.Model()
	require.Nil(t, err)
	assert.Greater(t, model.Sigma2, 0.0)
	assert.Equal(t, 14, model.NObs)
	assert.False(t, math.IsNaN(model.LogLik))
	assert.False(t, math.IsInf(model.AIC, 0))
}

func TestDeterministicTrendAndSeason(t *testing.T) {
	n, steps := 120, 14
	full := weekly(n+steps, 10, 0.5, 5, 0, 0)

	est, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, est.Fit(full[:n]))

	fc, err := est.Forecast(steps, 0.95)
	require.Nil(t, err)
	assert.InDeltaSlice(t, full[n:], fc.Mean, 1e-2)
}

func TestSeasonalNoise(t *testing.T) {
	n, steps := 180, 14
	truth := weekly(n+steps, 100, 0, 10, 0, 0)
	y := weekly(n, 100, 0, 10, 1, 7)

	testData := map[string]struct {
		opt *Options
	}{
		"unconstrained": {opt: NewDefaultOptions()},
		"enforced": {
			opt: &Options{
				Order:                DefaultOrder(),
				EnforceStationarity:  true,
				EnforceInvertibility: true,
				Iterations:           4000,
				Tolerance:            1e-10,
				MinVarianceRatio:     1e-6,
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			est, err := New(td.opt)
			require.Nil(t, err)
			require.Nil(t, est.Fit(y))

			fc, err := est.Forecast(steps, 0.95)
			require.Nil(t, err)
			require.Len(t, fc.Mean, steps)
			require.Len(t, fc.Lower, steps)
			require.Len(t, fc.Upper, steps)

			for h := 0; h < steps; h++ {
				assert.InDelta(t, truth[n+h], fc.Mean[h], 5.0, "step %d", h)
				assert.Less(t, fc.Lower[h], fc.Mean[h])
				assert.Less(t, fc.Mean[h], fc.Upper[h])
				if h > 0 {
					assert.GreaterOrEqual(t, fc.StdErr[h], fc.StdErr[h-1])
				}
			}

			model, err := est.Model()
			require.Nil(t, err)
			assert.Len(t, model.AR, 1)
			assert.Len(t, model.SAR, 1)
			assert.Len(t, model.MA, 1)
			assert.Empty(t, model.SMA)
			assert.Greater(t, model.Sigma2, 0.1)
			assert.Less(t, model.Sigma2, 4.0)
			assert.Less(t, model.AIC, model.BIC)
			require.NotNil(t, model.Scores)
			assert.Greater(t, model.Scores.R2, 0.5)

			if td.opt.EnforceStationarity {
				assert.True(t, isStable(est.arPoly))
			}
			if td.opt.EnforceInvertibility {
				assert.True(t, isStable(est.maPoly))
			}

			resid := est.Residuals()
			fitted := est.FittedValues()
			require.Len(t, resid, n)
			require.Len(t, fitted, n)
			for i := 0; i < n; i++ {
				if i < 8 {
					assert.True(t, math.IsNaN(resid[i]))
					assert.True(t, math.IsNaN(fitted[i]))
					continue
				}
				assert.InDelta(t, y[i], fitted[i]+resid[i], 1e-9)
			}
		})
	}
}

func TestWiderConfidenceWidensInterval(t *testing.T) {
	est, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, est.Fit(weekly(90, 50, 0.1, 4, 0.5, 11)))

	narrow, err := est.Forecast(7, 0.8)
	require.Nil(t, err)
	wide, err := est.Forecast(7, 0.99)
	require.Nil(t, err)

	assert.InDeltaSlice(t, narrow.Mean, wide.Mean, 1e-12)
	for h := range narrow.Mean {
		assert.Less(t, wide.Lower[h], narrow.Lower[h])
		assert.Greater(t, wide.Upper[h], narrow.Upper[h])
	}
}
