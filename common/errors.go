package common

import "errors"

var (
	// bad stdev, step, slope or power
	ErrorInvalidParameter = errors.New("invalid parameter")
	// too few or degenerate sample points for density estimation
	ErrorInsufficientData = errors.New("insufficient data")
	// valid overlap of density and loss kernel is empty
	ErrorInsufficientResolution = errors.New("insufficient resolution")
)
