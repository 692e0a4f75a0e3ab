// Package sarima implements a multiplicative seasonal ARIMA estimator.
//
// A SARIMA(p,d,q)(P,D,Q,m) model is written with lag polynomials in the backshift operator B as
//
//	φ(B)Φ(B^m)(1-B)^d(1-B^m)^D y_t = θ(B)Θ(B^m) ε_t
//
// where φ and Φ carry the non-seasonal and seasonal autoregressive terms and θ and Θ the moving
// average terms. No trend or intercept is estimated.
//
// Parameters are estimated by minimising the conditional sum of squares of the one step ahead
// errors of the differenced series with zero pre-sample values, which maximises the conditional
// Gaussian likelihood. Starting values come from a Hannan-Rissanen regression and the search uses
// Nelder-Mead so no gradient is needed. Stationarity and invertibility are not enforced unless
// requested in Options.
//
// Example:
//
//	est, err := sarima.New(sarima.NewDefaultOptions())
//	if err != nil {
//		return err
//	}
//	if err := est.Fit(y); err != nil {
//		return err
//	}
//	fc, err := est.Forecast(30, 0.95)
package sarima
