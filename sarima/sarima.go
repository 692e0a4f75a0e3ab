package sarima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// penalty is returned by the objective for rejected or non-finite candidates.
const penalty = 1e300

// Options configures the estimator
type Options struct {
	Order Order `json:"order"`

	// EnforceStationarity rejects candidates whose combined AR polynomial has a root on or inside
	// the unit circle. EnforceInvertibility does the same for the MA polynomial.
	EnforceStationarity  bool `json:"enforce_stationarity"`
	EnforceInvertibility bool `json:"enforce_invertibility"`

	// Iterations caps the number of objective evaluations of the optimizer.
	Iterations int `json:"iterations"`

	// Tolerance is the absolute change in the objective below which the search has converged.
	Tolerance float64 `json:"tolerance"`

	// MinVarianceRatio floors the innovation variance at this fraction of max(1, mean(y^2)).
	MinVarianceRatio float64 `json:"min_variance_ratio"`
}

// NewDefaultOptions returns the (1,1,1)(1,1,0,7) model with stationarity and invertibility left
// unconstrained.
func NewDefaultOptions() *Options {
	return &Options{
		Order:            DefaultOrder(),
		Iterations:       4000,
		Tolerance:        1e-10,
		MinVarianceRatio: 1e-6,
	}
}

// Model is the fitted parameter summary
type Model struct {
	Order  Order     `json:"order"`
	AR     []float64 `json:"ar"`
	MA     []float64 `json:"ma"`
	SAR    []float64 `json:"seasonal_ar"`
	SMA    []float64 `json:"seasonal_ma"`
	Sigma2 float64   `json:"sigma2"`
	LogLik float64   `json:"log_likelihood"`
	AIC    float64   `json:"aic"`
	BIC    float64   `json:"bic"`
	NObs   int       `json:"n_obs"`
	Scores *Scores   `json:"scores"`
}

// Forecast holds the point forecasts and the two sided interval bounds
type Forecast struct {
	Mean   []float64 `json:"mean"`
	Lower  []float64 `json:"lower"`
	Upper  []float64 `json:"upper"`
	StdErr []float64 `json:"std_err"`
}

// Estimator fits a SARIMA model to a single series and forecasts from its end.
type Estimator struct {
	opt *Options

	y      []float64 // training series
	w      []float64 // differenced training series
	params []float64
	arPoly []float64
	maPoly []float64
	resid  []float64 // one step errors aligned with w
	model  *Model
}

func New(opt *Options) (*Estimator, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Order.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{opt: opt}, nil
}

// Fit estimates the model parameters from y, which must be evenly spaced with no missing values.
func (e *Estimator) Fit(y []float64) error {
	if e.opt == nil {
		return ErrNoOptions
	}
	e.model = nil
	e.y = nil
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value %f at index %d, %w", v, i, ErrNonFiniteInput)
		}
	}

	o := e.opt.Order
	k := o.NumParams()
	w := difference(y, o.D, o.SD, o.M)
	if len(w) < k+minExtraObs {
		return fmt.Errorf("%d observations leave %d after differencing for %d parameters of %s, %w",
			len(y), len(w), k, o, ErrInsufficientData)
	}

	params := hannanRissanen(w, o)
	if k > 0 {
		var err error
		params, err = e.optimize(w, params)
		if err != nil {
			return err
		}
	}

	arPoly, maPoly := o.polynomials(params)
	resid := make([]float64, len(w))
	css := conditionalSumSquares(w, arPoly, maPoly, resid)
	if math.IsNaN(css) || math.IsInf(css, 0) {
		return fmt.Errorf("non-finite sum of squares at %v, %w", params, ErrFitFailed)
	}

	e.y = append([]float64(nil), y...)
	e.w = w
	e.params = params
	e.arPoly = arPoly
	e.maPoly = maPoly
	e.resid = resid

	model, err := e.summarize(css)
	if err != nil {
		return err
	}
	e.model = model
	return nil
}

// optimize minimises the mean conditional sum of squares over the lag coefficients.
func (e *Estimator) optimize(w, init []float64) ([]float64, error) {
	o := e.opt.Order
	resid := make([]float64, len(w))
	n := float64(len(w))

	objective := func(x []float64) float64 {
		arPoly, maPoly := o.polynomials(x)
		if e.opt.EnforceStationarity && !isStable(arPoly) {
			return penalty
		}
		if e.opt.EnforceInvertibility && !isStable(maPoly) {
			return penalty
		}
		css := conditionalSumSquares(w, arPoly, maPoly, resid)
		if math.IsNaN(css) || math.IsInf(css, 0) || css > penalty {
			return penalty
		}
		return css / n
	}

	settings := &optimize.Settings{
		FuncEvaluations: e.opt.Iterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   e.opt.Tolerance,
			Iterations: 50,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: objective}, init, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrFitFailed, err)
	}
	if res.F >= penalty {
		return nil, fmt.Errorf("no admissible parameters found from %v, %w", init, ErrFitFailed)
	}
	return res.X, nil
}

// conditionalSumSquares computes the one step errors of w into resid, treating values and errors
// before the start of the series as zero, and returns their sum of squares.
func conditionalSumSquares(w, arPoly, maPoly, resid []float64) float64 {
	var css float64
	for t := range w {
		v := w[t]
		for k := 1; k < len(arPoly) && k <= t; k++ {
			v += arPoly[k] * w[t-k]
		}
		for k := 1; k < len(maPoly) && k <= t; k++ {
			v -= maPoly[k] * resid[t-k]
		}
		resid[t] = v
		css += v * v
	}
	return css
}

func (e *Estimator) summarize(css float64) (*Model, error) {
	o := e.opt.Order
	n := float64(len(e.w))

	sigma2 := css / n
	meanSq := floats.Dot(e.y, e.y) / float64(len(e.y))
	sigma2 = math.Max(sigma2, e.opt.MinVarianceRatio*math.Max(1, meanSq))

	logLik := -n/2*math.Log(2*math.Pi*sigma2) - css/(2*sigma2)
	k := float64(o.NumParams() + 1)

	scores, err := NewScores(e.FittedValues(), e.y)
	if err != nil {
		return nil, fmt.Errorf("unable to score in-sample fit, %w", err)
	}

	ar, sar, ma, sma := o.split(append([]float64(nil), e.params...))
	return &Model{
		Order:  o,
		AR:     ar,
		MA:     ma,
		SAR:    sar,
		SMA:    sma,
		Sigma2: sigma2,
		LogLik: logLik,
		AIC:    -2*logLik + 2*k,
		BIC:    -2*logLik + k*math.Log(n),
		NObs:   len(e.y),
		Scores: scores,
	}, nil
}

// Forecast produces steps point forecasts past the end of the training series with a two sided
// interval at the given confidence level. Future shocks are zero and the forecast variance at
// horizon h is sigma2 times the sum of the first h squared psi weights of the integrated model.
func (e *Estimator) Forecast(steps int, confidence float64) (*Forecast, error) {
	if e.model == nil {
		return nil, ErrUntrainedModel
	}
	if steps < 1 {
		return nil, fmt.Errorf("got %d, %w", steps, ErrInvalidSteps)
	}
	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return nil, fmt.Errorf("got %f, %w", confidence, ErrInvalidConfidence)
	}

	o := e.opt.Order
	nw := len(e.w)

	// forecast the differenced series
	w := make([]float64, nw+steps)
	copy(w, e.w)
	resid := make([]float64, nw+steps)
	copy(resid, e.resid)
	for t := nw; t < len(w); t++ {
		var v float64
		for k := 1; k < len(e.arPoly) && k <= t; k++ {
			v -= e.arPoly[k] * w[t-k]
		}
		for k := 1; k < len(e.maPoly) && k <= t; k++ {
			v += e.maPoly[k] * resid[t-k]
		}
		w[t] = v
	}

	// integrate back onto the original scale
	diffPoly := differencePolynomial(o.D, o.SD, o.M)
	n := len(e.y)
	y := make([]float64, n+steps)
	copy(y, e.y)
	for t := n; t < len(y); t++ {
		v := w[t-o.lost()]
		for k := 1; k < len(diffPoly); k++ {
			v -= diffPoly[k] * y[t-k]
		}
		y[t] = v
	}

	psi := psiWeights(polyMul(e.arPoly, diffPoly), e.maPoly, steps)
	z := distuv.UnitNormal.Quantile((1 + confidence) / 2)

	fc := &Forecast{
		Mean:   y[n:],
		Lower:  make([]float64, steps),
		Upper:  make([]float64, steps),
		StdErr: make([]float64, steps),
	}
	var cum float64
	for h := 0; h < steps; h++ {
		cum += psi[h] * psi[h]
		se := math.Sqrt(e.model.Sigma2 * cum)
		fc.StdErr[h] = se
		fc.Lower[h] = fc.Mean[h] - z*se
		fc.Upper[h] = fc.Mean[h] + z*se
		if math.IsNaN(fc.Lower[h]) || math.IsInf(fc.Lower[h], 0) || math.IsNaN(fc.Upper[h]) || math.IsInf(fc.Upper[h], 0) {
			return nil, fmt.Errorf("forecast diverged at step %d, %w", h+1, ErrFitFailed)
		}
	}
	return fc, nil
}

// Residuals returns the one step errors aligned with the training series. Observations consumed
// by differencing are NaN.
func (e *Estimator) Residuals() []float64 {
	if e.model == nil {
		return nil
	}
	res := make([]float64, len(e.y))
	lost := e.opt.Order.lost()
	for i := 0; i < lost; i++ {
		res[i] = math.NaN()
	}
	copy(res[lost:], e.resid)
	return res
}

// FittedValues returns the in-sample one step predictions, NaN where no prediction exists.
func (e *Estimator) FittedValues() []float64 {
	if e.y == nil {
		return nil
	}
	lost := e.opt.Order.lost()
	res := make([]float64, len(e.y))
	for i := range res {
		if i < lost {
			res[i] = math.NaN()
			continue
		}
		res[i] = e.y[i] - e.resid[i-lost]
	}
	return res
}

// Model returns the fitted parameters
func (e *Estimator) Model() (*Model, error) {
	if e.model == nil {
		return nil, ErrUntrainedModel
	}
	return e.model, nil
}
