package sarima

import "fmt"

// Order is the SARIMA order (P, D, Q) x (SP, SD, SQ, M).
type Order struct {
	P int `json:"p"` // non-seasonal AR order
	D int `json:"d"` // non-seasonal differencing
	Q int `json:"q"` // non-seasonal MA order

	SP int `json:"seasonal_p"`
	SD int `json:"seasonal_d"`
	SQ int `json:"seasonal_q"`
	M  int `json:"period"`
}

// DefaultOrder is the weekly retail model (1,1,1)(1,1,0,7).
func DefaultOrder() Order {
	return Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 0, M: 7}
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

func (o Order) seasonal() bool {
	return o.SP > 0 || o.SD > 0 || o.SQ > 0
}

func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 || o.M < 0 {
		return fmt.Errorf("negative term in %s, %w", o, ErrInvalidOrder)
	}
	if o.seasonal() && o.M < 2 {
		return fmt.Errorf("seasonal terms need a period of at least 2, got %d, %w", o.M, ErrInvalidOrder)
	}
	return nil
}

// NumParams is the number of estimated lag coefficients.
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ
}

// lost is the number of observations consumed by differencing.
func (o Order) lost() int {
	return o.D + o.SD*o.M
}

// split slices a flat parameter vector into its AR, seasonal AR, MA and seasonal MA parts.
func (o Order) split(params []float64) (ar, sar, ma, sma []float64) {
	i := 0
	ar = params[i : i+o.P]
	i += o.P
	sar = params[i : i+o.SP]
	i += o.SP
	ma = params[i : i+o.Q]
	i += o.Q
	sma = params[i : i+o.SQ]
	return ar, sar, ma, sma
}

// polynomials expands the full AR and MA lag polynomials for a parameter vector.
func (o Order) polynomials(params []float64) (arPoly, maPoly []float64) {
	ar, sar, ma, sma := o.split(params)
	arPoly = polyMul(arPolynomial(ar), seasonalExpand(arPolynomial(sar), o.M))
	maPoly = polyMul(maPolynomial(ma), seasonalExpand(maPolynomial(sma), o.M))
	return arPoly, maPoly
}
