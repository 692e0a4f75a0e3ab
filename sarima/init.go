package sarima

import (
	"math"

	"github.com/aouyang1/chronos/models"
)

const (
	maxLongAR   = 20
	startBound  = 0.95
	minExtraObs = 2
)

// hannanRissanen estimates starting values for the lag coefficients of the differenced series w.
// A long autoregression provides residual estimates which then stand in for the unobserved shocks
// in a regression of w on its own lags and the lagged residuals. Any coefficient that cannot be
// estimated starts at zero.
func hannanRissanen(w []float64, o Order) []float64 {
	params := make([]float64, o.NumParams())
	if len(params) == 0 {
		return params
	}

	var resid []float64
	if o.Q > 0 || o.SQ > 0 {
		resid = longARResiduals(w, o)
		if resid == nil {
			return params
		}
	}

	lags := lagSet(o)
	start := 0
	for _, l := range lags {
		start = max(start, l.lag)
	}
	if len(w)-start < len(lags)+minExtraObs {
		return params
	}

	x := make([][]float64, 0, len(w)-start)
	y := make([]float64, 0, len(w)-start)
	for t := start; t < len(w); t++ {
		row := make([]float64, len(lags))
		for i, l := range lags {
			if l.shock {
				row[i] = resid[t-l.lag]
			} else {
				row[i] = w[t-l.lag]
			}
		}
		x = append(x, row)
		y = append(y, w[t])
	}

	_, coef, err := models.OLS(x, y)
	if err != nil {
		return params
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return make([]float64, len(params))
		}
		params[i] = clamp(c, -startBound, startBound)
	}
	return params
}

type lagTerm struct {
	lag   int
	shock bool
}

// lagSet lists the regressors in parameter order: AR, seasonal AR, MA, seasonal MA.
func lagSet(o Order) []lagTerm {
	lags := make([]lagTerm, 0, o.NumParams())
	for i := 1; i <= o.P; i++ {
		lags = append(lags, lagTerm{lag: i})
	}
	for i := 1; i <= o.SP; i++ {
		lags = append(lags, lagTerm{lag: i * o.M})
	}
	for i := 1; i <= o.Q; i++ {
		lags = append(lags, lagTerm{lag: i, shock: true})
	}
	for i := 1; i <= o.SQ; i++ {
		lags = append(lags, lagTerm{lag: i * o.M, shock: true})
	}
	return lags
}

// longARResiduals fits a long autoregression to w and returns its residuals, zero over the
// conditioning window. Returns nil when the regression cannot be fit.
func longARResiduals(w []float64, o Order) []float64 {
	order := max(o.P+o.SP*o.M, o.Q+o.SQ*o.M) + 1
	order = min(order, maxLongAR, len(w)/3)
	if order < 1 {
		return nil
	}

	n := len(w) - order
	x := make([][]float64, n)
	y := make([]float64, n)
	for t := order; t < len(w); t++ {
		row := make([]float64, order)
		for k := 1; k <= order; k++ {
			row[k-1] = w[t-k]
		}
		x[t-order] = row
		y[t-order] = w[t]
	}

	intercept, coef, err := models.OLS(x, y)
	if err != nil {
		return nil
	}

	resid := make([]float64, len(w))
	for t := order; t < len(w); t++ {
		pred := intercept
		for k, c := range coef {
			pred += c * w[t-k-1]
		}
		resid[t] = w[t] - pred
	}
	return resid
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
