package kde

import (
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// KDEUnivariate is a Gaussian kernel density estimate of a weighted sample.
type KDEUnivariate struct {
	Weights []float64

	// number of CDF grid points
	gridSize int

	// An adjustment factor for the bw. Bandwidth becomes bw * adjust.
	bwAdjust float64

	// Defines the length of the CDF grid past the lowest and highest values
	// of x so that the kernel goes to zero. The end points are
	// ``min(x) - cut * bw`` and ``max(x) + cut * bw``.
	cut float64

	// endogenous variable, sorted ascending
	Endog []float64

	cdf    []model.Cdf
	bw     float64
	fited  bool
	kernel *GuassianKernel
}

// NewKDEUnivariate copies endog, so the caller's slice is left untouched.
func NewKDEUnivariate(endog []float64, weights []float64,
	bwAdjust float64, cut float64, clip *model.Clip) (*KDEUnivariate, error) {
	for _, v := range endog {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: sample contains non-finite value %v", common.ErrorInsufficientData, v)
		}
	}

	if len(weights) == 0 {
		weights = InitOnes(len(endog))
	} else if len(weights) != len(endog) {
		return nil, fmt.Errorf("%w: %d weights for %d sample values",
			common.ErrorInvalidParameter, len(weights), len(endog))
	}
	for _, w := range weights {
		if !(w >= 0) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %v must be finite and >= 0", common.ErrorInvalidParameter, w)
		}
	}

	x, w := Clip(endog, weights, clip)
	x, w = sortedCopy(x, w)

	if DistinctCount(x) < MinDistinctPointCnt {
		return nil, fmt.Errorf("%w: kernel density estimation needs %d distinct values, got %d",
			common.ErrorInsufficientData, MinDistinctPointCnt, DistinctCount(x))
	}
	if floats.Sum(w) <= 0 {
		return nil, fmt.Errorf("%w: sample weights sum to zero", common.ErrorInsufficientData)
	}

	if bwAdjust <= 0 {
		bwAdjust = 1
	}
	if cut <= 0 {
		cut = DefaultCut
	}

	kde := &KDEUnivariate{
		Weights:  w,
		gridSize: CdfGridSize + 1,
		bwAdjust: bwAdjust,
		cut:      cut,
		Endog:    x,
	}

	return kde, nil
}

// Fit selects the bandwidth and prepares the kernel. It is idempotent.
func (kde *KDEUnivariate) Fit() float64 {
	if kde.fited {
		return kde.bw
	}

	kernel := NewGuassianKernel()
	bandWidth := NewNormalReferenceBandWidth(kernel)

	bw := bandWidth.BandWidth(kde.Endog, kde.Weights)
	bw = bw * kde.bwAdjust
	kernel.SetH(bw)
	kernel.SetWeights(kde.Weights)

	kde.bw = bw
	kde.kernel = kernel
	kde.fited = true
	return bw
}

// BandWidth fits the estimator if needed and returns the kernel bandwidth.
func (kde *KDEUnivariate) BandWidth() float64 {
	kde.Fit()
	return kde.kernel.H()
}

// Evaluate returns the estimated density at each of xs.
func (kde *KDEUnivariate) Evaluate(xs []float64) []float64 {
	kde.Fit()

	shapes := make([]float64, len(kde.Endog))
	res := make([]float64, len(xs))
	for i, x := range xs {
		res[i] = kde.kernel.Density(kde.Endog, x, shapes)
	}
	return res
}

func (kde *KDEUnivariate) Cdf() ([]model.Cdf, error) {
	kde.Fit()

	if len(kde.cdf) > 0 {
		return kde.cdf, nil
	}

	a := floats.Min(kde.Endog) - kde.cut*kde.bw
	b := floats.Max(kde.Endog) + kde.cut*kde.bw
	grid := linspace(a, b, kde.gridSize)

	shapes := make([]float64, len(kde.Endog))
	f := func(x float64) float64 {
		return kde.kernel.Density(kde.Endog, x, shapes)
	}

	res := make([]model.Cdf, 0, len(grid))
	res = append(res, model.Cdf{X: grid[0], Value: 0})

	var cumSum float64
	for i := 1; i < len(grid); i++ {
		integral := quad.Fixed(f, grid[i-1], grid[i], CdfQuadNodes, nil, 0)
		cumSum += integral
		res = append(res, model.Cdf{
			X:     grid[i],
			Value: cumSum,
		})
	}

	kde.cdf = res
	return res, nil
}

func (kde *KDEUnivariate) Quantile(p float64) (*model.QuantileValue, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: quantile %v outside [0, 1]", common.ErrorInvalidParameter, p)
	}

	cdf, err := kde.Cdf()
	if err != nil {
		return nil, err
	}

	if p <= cdf[0].Value {
		return &model.QuantileValue{
			Quantile: p,
			Value:    cdf[0].X,
		}, nil
	}

	if p >= cdf[len(cdf)-1].Value {
		return &model.QuantileValue{
			Quantile: p,
			Value:    cdf[len(cdf)-1].X,
		}, nil
	}

	for i := 1; i < len(cdf); i++ {
		if cdf[i].Value > p {
			lowerX, lowerP := cdf[i-1].X, cdf[i-1].Value
			upperX, upperP := cdf[i].X, cdf[i].Value
			value := lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP)
			return &model.QuantileValue{
				Quantile: p,
				Value:    value,
			}, nil
		}
	}
	return &model.QuantileValue{
		Quantile: p,
		Value:    cdf[len(cdf)-1].X,
	}, nil
}
