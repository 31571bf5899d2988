package model

import (
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
)

// LossParameters describe an asymmetric piecewise-power loss of the signed
// error delta = estimate - true value.
type LossParameters struct {
	SlopeUnder float64 `json:"slope_under" yaml:"slope_under" toml:"slope_under"`
	PowerUnder float64 `json:"power_under" yaml:"power_under" toml:"power_under"`
	SlopeOver  float64 `json:"slope_over" yaml:"slope_over" toml:"slope_over"`
	PowerOver  float64 `json:"power_over" yaml:"power_over" toml:"power_over"`
}

// Loss is SlopeUnder*|delta|^PowerUnder below zero and SlopeOver*delta^PowerOver otherwise.
func (p LossParameters) Loss(delta float64) float64 {
	if delta < 0 {
		return p.SlopeUnder * math.Pow(-delta, p.PowerUnder)
	}
	if delta == 0 {
		return 0
	}
	return p.SlopeOver * math.Pow(delta, p.PowerOver)
}

func (p LossParameters) Validate() error {
	for _, v := range []float64{p.SlopeUnder, p.PowerUnder, p.SlopeOver, p.PowerOver} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: loss parameters must be finite, got %+v", common.ErrorInvalidParameter, p)
		}
	}
	if p.SlopeUnder < 0 || p.SlopeOver < 0 {
		return fmt.Errorf("%w: loss slopes must be >= 0, got under=%v over=%v",
			common.ErrorInvalidParameter, p.SlopeUnder, p.SlopeOver)
	}
	// power < 1 makes the kernel non-convex near zero
	if p.PowerUnder < 1 || p.PowerOver < 1 {
		return fmt.Errorf("%w: loss powers must be >= 1, got under=%v over=%v",
			common.ErrorInvalidParameter, p.PowerUnder, p.PowerOver)
	}
	return nil
}
