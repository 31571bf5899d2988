// Package engine computes the optimum point estimate of an uncertain quantity
// under an asymmetric loss by minimizing the expected loss over a grid.
package engine

import (
	"context"
	"sort"

	"github.com/uyouii/lossopt/density"
	"github.com/uyouii/lossopt/loss"
	"github.com/uyouii/lossopt/model"
	"github.com/uyouii/lossopt/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultHistogramBins = 50

type Options struct {
	Density       density.Options
	HistogramBins int
}

func DefaultOptions() Options {
	return Options{
		Density:       density.DefaultOptions(),
		HistogramBins: DefaultHistogramBins,
	}
}

// Engine holds only options; Evaluate keeps no state between calls.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = DefaultHistogramBins
	}
	return &Engine{opts: opts}
}

// Evaluate builds density and loss kernel, computes the expected loss curve and
// reports its minimizer over the density domain.
func (e *Engine) Evaluate(ctx context.Context, source model.DensitySource, step float64,
	params model.LossParameters) (*model.Result, error) {
	logger := utils.GetLogger(ctx)

	// reject bad loss parameters before paying for the density
	if err := params.Validate(); err != nil {
		return nil, err
	}

	dens, err := density.Build(ctx, source, step, e.opts.Density)
	if err != nil {
		return nil, err
	}

	kernel, err := loss.BuildKernel(dens.HalfWidth(), step, params)
	if err != nil {
		return nil, err
	}

	curve, err := ComputeExpectedLoss(dens.Grid, dens.Values, kernel)
	if err != nil {
		return nil, err
	}

	estimate, minLoss, err := Optimum(curve, dens.Lower, dens.Upper)
	if err != nil {
		return nil, err
	}

	logger.Debug("expected loss evaluated", zap.String("source", source.Kind()),
		zap.Int("densityPoints", dens.Grid.Len), zap.Int("kernelPoints", kernel.Len()),
		zap.Int("curvePoints", curve.Grid.Len), zap.Float64("optimum", estimate),
		zap.Float64("minimumExpectedLoss", minLoss))

	return &model.Result{
		Source:              source.Kind(),
		Mean:                dens.Mean,
		DensityGrid:         dens.Grid,
		DensityValues:       dens.Values,
		LossDelta:           kernel.Delta,
		LossValues:          kernel.Loss,
		ExpectedLoss:        *curve,
		OptimumEstimate:     estimate,
		MinimumExpectedLoss: minLoss,
		Sample:              dens.Sample,
		Histogram:           Histogram(dens.Sample, dens.Lower, dens.Upper, e.opts.HistogramBins),
		Quantiles:           dens.Quantiles,
	}, nil
}

// Histogram counts sample values in bins equal-width bins over [lower, upper).
// Values outside the range are ignored.
func Histogram(sample []float64, lower, upper float64, bins int) []model.HistogramBin {
	if bins <= 0 || !(upper > lower) {
		return nil
	}

	inRange := make([]float64, 0, len(sample))
	for _, v := range sample {
		if v >= lower && v < upper {
			inRange = append(inRange, v)
		}
	}
	sort.Float64s(inRange)

	dividers := floats.Span(make([]float64, bins+1), lower, upper)
	// stat.Histogram panics on values at or above the last divider
	dividers[bins] = upper

	counts := make([]float64, bins)
	if len(inRange) > 0 {
		counts = stat.Histogram(counts, dividers, inRange, nil)
	}

	res := make([]model.HistogramBin, bins)
	for i := range res {
		res[i] = model.HistogramBin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: counts[i],
		}
	}
	return res
}
