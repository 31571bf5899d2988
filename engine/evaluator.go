package engine

import (
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/loss"
	"github.com/uyouii/lossopt/model"
	"gonum.org/v1/gonum/floats"
)

// relative tolerance when comparing the density and kernel steps
const stepTolerance = 1e-12

// Normalize scales values to unit sum.
func Normalize(values []float64) ([]float64, error) {
	total := floats.Sum(values)
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: density mass %v cannot be normalized", common.ErrorInsufficientData, total)
	}
	res := make([]float64, len(values))
	copy(res, values)
	floats.Scale(1/total, res)
	return res, nil
}

// ComputeExpectedLoss combines the density on grid with the loss kernel.
//
// With N density points v_j and M >= N kernel points, output n is
//
//	E[n] = sum_j p_j * loss(x_n - v_j),  n in [0, M-N]
//
// where p is the normalized density. Since kernel index k holds delta_k =
// Delta.Min + k*step, the term for v_j uses k = n+N-1-j, which is Reversed[M-N-n+j].
// x_n therefore starts at grid.Min + Delta.Min + (N-1)*step.
func ComputeExpectedLoss(grid model.Grid, density []float64, kernel *loss.Kernel) (*model.ExpectedLossCurve, error) {
	if kernel == nil {
		return nil, fmt.Errorf("%w: no loss kernel", common.ErrorInvalidParameter)
	}
	if len(density) != grid.Len {
		return nil, fmt.Errorf("%w: %d density values for a grid of %d points",
			common.ErrorInvalidParameter, len(density), grid.Len)
	}
	if len(kernel.Reversed) != kernel.Delta.Len {
		return nil, fmt.Errorf("%w: %d kernel values for a delta grid of %d points",
			common.ErrorInvalidParameter, len(kernel.Reversed), kernel.Delta.Len)
	}
	step := grid.Step
	if math.Abs(step-kernel.Delta.Step) > stepTolerance*step {
		return nil, fmt.Errorf("%w: density step %v differs from kernel step %v",
			common.ErrorInvalidParameter, step, kernel.Delta.Step)
	}

	n, m := len(density), len(kernel.Reversed)
	validLen := max(n, m) - min(n, m) + 1
	if grid.IsEmpty() || m < n {
		return nil, fmt.Errorf("%w: kernel of %d points cannot cover a density of %d points",
			common.ErrorInsufficientResolution, m, n)
	}

	p, err := Normalize(density)
	if err != nil {
		return nil, err
	}

	values := make([]float64, validLen)
	for i := range values {
		offset := m - n - i
		values[i] = floats.Dot(p, kernel.Reversed[offset:offset+n])
		if math.IsInf(values[i], 0) || math.IsNaN(values[i]) {
			return nil, fmt.Errorf("%w: expected loss at curve point %d is %v",
				common.ErrorInvalidParameter, i, values[i])
		}
	}

	return &model.ExpectedLossCurve{
		Grid: model.Grid{
			Min:  grid.Min + kernel.Delta.Min + float64(n-1)*step,
			Step: step,
			Len:  validLen,
		},
		Values: values,
	}, nil
}

// Optimum returns the abscissa and value of the smallest expected loss with x in [lower, upper).
// Ties resolve to the lowest abscissa.
func Optimum(curve *model.ExpectedLossCurve, lower, upper float64) (float64, float64, error) {
	if curve.IsEmpty() {
		return 0, 0, fmt.Errorf("%w: empty expected loss curve", common.ErrorInsufficientResolution)
	}

	begin, end := -1, -1
	for i := range curve.Values {
		x := curve.Grid.At(i)
		if x < lower || x >= upper {
			continue
		}
		if begin < 0 {
			begin = i
		}
		end = i + 1
	}
	if begin < 0 {
		return 0, 0, fmt.Errorf("%w: no candidate estimate in [%v, %v) at step %v",
			common.ErrorInsufficientResolution, lower, upper, curve.Grid.Step)
	}

	idx := begin + floats.MinIdx(curve.Values[begin:end])
	return curve.Grid.At(idx), curve.Values[idx], nil
}
