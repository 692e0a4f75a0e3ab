package sarima

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Lag polynomials are stored by ascending power of B with the zero lag coefficient first, so
// []float64{1, -0.5} is 1 - 0.5B.

// polyMul multiplies two lag polynomials.
func polyMul(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	res := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			res[i+j] += av * bv
		}
	}
	return res
}

// seasonalExpand maps a polynomial in B^m onto B, placing coefficient k at lag k*m.
func seasonalExpand(c []float64, m int) []float64 {
	if len(c) <= 1 {
		return append([]float64(nil), c...)
	}
	res := make([]float64, (len(c)-1)*m+1)
	for k, v := range c {
		res[k*m] = v
	}
	return res
}

// arPolynomial returns 1 - c1 B - c2 B^2 - ...
func arPolynomial(coef []float64) []float64 {
	res := make([]float64, len(coef)+1)
	res[0] = 1
	for i, c := range coef {
		res[i+1] = -c
	}
	return res
}

// maPolynomial returns 1 + c1 B + c2 B^2 + ...
func maPolynomial(coef []float64) []float64 {
	res := make([]float64, len(coef)+1)
	res[0] = 1
	copy(res[1:], coef)
	return res
}

// differencePolynomial returns (1-B)^d (1-B^m)^sd.
func differencePolynomial(d, sd, m int) []float64 {
	res := []float64{1}
	for i := 0; i < d; i++ {
		res = polyMul(res, []float64{1, -1})
	}
	seasonal := seasonalExpand([]float64{1, -1}, m)
	for i := 0; i < sd; i++ {
		res = polyMul(res, seasonal)
	}
	return res
}

// difference applies d first differences followed by sd seasonal differences at period m. The
// result is shorter than y by d + sd*m and nil when nothing remains.
func difference(y []float64, d, sd, m int) []float64 {
	res := append([]float64(nil), y...)
	for i := 0; i < d; i++ {
		res = lagDiff(res, 1)
	}
	for i := 0; i < sd; i++ {
		res = lagDiff(res, m)
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

func lagDiff(y []float64, lag int) []float64 {
	if len(y) <= lag {
		return nil
	}
	res := make([]float64, len(y)-lag)
	for i := lag; i < len(y); i++ {
		res[i-lag] = y[i] - y[i-lag]
	}
	return res
}

// psiWeights returns the first n coefficients of ma(B)/ar(B), the infinite moving average
// representation of the process.
func psiWeights(ar, ma []float64, n int) []float64 {
	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		var v float64
		if j < len(ma) {
			v = ma[j]
		}
		for k := 1; k <= j && k < len(ar); k++ {
			v -= ar[k] * psi[j-k]
		}
		psi[j] = v
	}
	return psi
}

// isStable reports whether every root of the lag polynomial lies outside the unit circle. The
// roots of c(B) are the reciprocals of the eigenvalues of the companion matrix of its reversed
// polynomial.
func isStable(c []float64) bool {
	deg := len(c) - 1
	for deg > 0 && c[deg] == 0 {
		deg--
	}
	if deg == 0 {
		return true
	}

	companion := mat.NewDense(deg, deg, nil)
	for j := 0; j < deg; j++ {
		companion.Set(0, j, -c[j+1]/c[0])
	}
	for i := 1; i < deg; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return false
		}
	}
	return true
}
