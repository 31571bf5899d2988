// Package loss discretizes the asymmetric loss over a signed-error grid.
package loss

import (
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/model"
)

// KernelHalfWidthFactor is how many density half-widths the kernel spans on each side.
const KernelHalfWidthFactor = 4.0

type Kernel struct {
	Delta model.Grid
	Loss  []float64
	// Loss in reverse index order
	Reversed []float64
}

func (k *Kernel) Len() int {
	return len(k.Loss)
}

// BuildKernel evaluates params over delta in [-4*halfWidth, 4*halfWidth).
// Every loss value must be finite.
func BuildKernel(halfWidth, step float64, params model.LossParameters) (*Kernel, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !(halfWidth > 0) || math.IsInf(halfWidth, 0) {
		return nil, fmt.Errorf("%w: domain half width %v must be a finite value > 0",
			common.ErrorInvalidParameter, halfWidth)
	}

	extent := KernelHalfWidthFactor * halfWidth
	delta, err := model.NewGrid(-extent, extent, step)
	if err != nil {
		return nil, err
	}

	values := make([]float64, delta.Len)
	reversed := make([]float64, delta.Len)
	for i := range values {
		values[i] = params.Loss(delta.At(i))
		if math.IsInf(values[i], 0) || math.IsNaN(values[i]) {
			return nil, fmt.Errorf("%w: loss overflows at delta %v (powers %v/%v over delta extent ±%v)",
				common.ErrorInvalidParameter, delta.At(i), params.PowerUnder, params.PowerOver, extent)
		}
		reversed[delta.Len-1-i] = values[i]
	}

	return &Kernel{
		Delta:    delta,
		Loss:     values,
		Reversed: reversed,
	}, nil
}
