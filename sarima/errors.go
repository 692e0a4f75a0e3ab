package sarima

import "errors"

var (
	ErrNoOptions         = errors.New("no initialized model options")
	ErrInvalidOrder      = errors.New("invalid model order")
	ErrInsufficientData  = errors.New("insufficient data points for the model order")
	ErrNonFiniteInput    = errors.New("input series contains non-finite values")
	ErrFitFailed         = errors.New("unable to fit model")
	ErrUntrainedModel    = errors.New("model has not been fit")
	ErrInvalidSteps      = errors.New("forecast steps must be at least 1")
	ErrInvalidConfidence = errors.New("confidence level must be between 0 and 1")
)
