package model

import (
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
)

// gridTolerance absorbs representation error in (xmax-xmin)/step,
// so 0.3/0.001 gives 300 points rather than 301.
const gridTolerance = 1e-9

// Grid is an evenly spaced abscissa over [Min, Min+Len*Step).
type Grid struct {
	Min  float64 `json:"min" yaml:"min"`
	Step float64 `json:"step" yaml:"step"`
	Len  int     `json:"len" yaml:"len"`
}

// NewGrid builds the grid covering [xmin, xmax) with ceil((xmax-xmin)/step) points.
func NewGrid(xmin, xmax, step float64) (Grid, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return Grid{}, fmt.Errorf("%w: step %v must be a finite value > 0", common.ErrorInvalidParameter, step)
	}
	if math.IsNaN(xmin) || math.IsNaN(xmax) || math.IsInf(xmin, 0) || math.IsInf(xmax, 0) {
		return Grid{}, fmt.Errorf("%w: grid bounds [%v, %v) must be finite", common.ErrorInvalidParameter, xmin, xmax)
	}
	if xmax <= xmin {
		return Grid{}, fmt.Errorf("%w: empty grid domain [%v, %v)", common.ErrorInvalidParameter, xmin, xmax)
	}

	n := (xmax - xmin) / step
	if n > math.MaxInt32 {
		return Grid{}, fmt.Errorf("%w: step %v too small for domain [%v, %v)", common.ErrorInvalidParameter, step, xmin, xmax)
	}
	cnt := int(math.Ceil(n - n*gridTolerance))
	if cnt < 1 {
		cnt = 1
	}

	return Grid{Min: xmin, Step: step, Len: cnt}, nil
}

func (g Grid) At(i int) float64 {
	return g.Min + float64(i)*g.Step
}

// Max is the exclusive upper end of the grid.
func (g Grid) Max() float64 {
	return g.At(g.Len)
}

func (g Grid) Values() []float64 {
	res := make([]float64, g.Len)
	for i := range res {
		res[i] = g.At(i)
	}
	return res
}

func (g Grid) IsEmpty() bool {
	return g.Len == 0
}
