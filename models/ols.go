package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type OLSOptions struct {
	FitIntercept bool
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
}

func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	if opt == nil {
		opt = NewDefaultOLSOptions()
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

// withIntercept prepends a column of ones to the design matrix
func withIntercept(x mat.Matrix) mat.Matrix {
	m, n := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)

	design := mat.NewDense(m, n+1, nil)
	design.SetCol(0, ones)
	design.Slice(0, m, 1, n+1).(*mat.Dense).Copy(x)
	return design
}

// Fit solves for the coefficients minimizing ||y - x*c||. The target y is a column with the same
// number of rows as x.
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	if o.opt.FitIntercept {
		x = withIntercept(x)
	}
	_, n := x.Dims()
	if m < n {
		return fmt.Errorf("%d observations for %d coefficients, %w", m, n, ErrUnderdetermined)
	}

	var qr mat.QR
	qr.Factorize(x)

	var c mat.Dense
	if err := qr.SolveTo(&c, false, y); err != nil {
		return fmt.Errorf("%w, %w", ErrSingularMatrix, err)
	}

	coef := mat.Col(nil, 0, &c)
	if o.opt.FitIntercept {
		o.intercept = coef[0]
		o.coef = coef[1:]
	} else {
		o.intercept = 0
		o.coef = coef
	}
	return nil
}

func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	m, n := x.Dims()
	if n != len(o.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(o.coef), ErrFeatureLenMismatch)
	}

	res := make([]float64, m)
	row := make([]float64, n)
	for i := 0; i < m; i++ {
		mat.Row(row, i, x)
		res[i] = o.intercept + floats.Dot(row, o.coef)
	}
	return res, nil
}

func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil), nil
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}

// OLS fits a least squares regression of y on the rows of x with an intercept.
func OLS(x [][]float64, y []float64) (float64, []float64, error) {
	xMx, err := NewDenseFromArray(x)
	if err != nil {
		return 0, nil, err
	}
	if len(y) == 0 {
		return 0, nil, ErrNoTargetMatrix
	}
	var model Model
	model, err = NewOLSRegression(nil)
	if err != nil {
		return 0, nil, err
	}
	if err := model.Fit(xMx, mat.NewDense(len(y), 1, y)); err != nil {
		return 0, nil, err
	}
	return model.Intercept(), model.Coef(), nil
}

// NewDenseFromArray builds a row ordered dense matrix from a slice of rows
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrEmptyMatrix
	}

	n := len(x[0])
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
	}
	if n == 0 {
		return nil, ErrEmptyMatrix
	}

	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}
