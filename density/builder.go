// Package density turns a DensitySource into a density sampled on an even grid.
package density

import (
	"context"
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/kde"
	"github.com/uyouii/lossopt/model"
	"github.com/uyouii/lossopt/utils"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// parametric domain is mean +- ParametricHalfWidthSigmas*stdev
	ParametricHalfWidthSigmas = 5.0

	DefaultSampleSize        = 10000
	DefaultSeed       uint64 = 1
)

// empirical samples are assumed normalized to [0, 1)
var EmpiricalDomain = model.Clip{Lower: 0, Upper: 1}

type Options struct {
	// number of display draws for a parametric source
	SampleSize int
	// seed of the display draws, fixed so equal inputs give equal outputs
	Seed uint64
}

func DefaultOptions() Options {
	return Options{
		SampleSize: DefaultSampleSize,
		Seed:       DefaultSeed,
	}
}

// Density is a discretized density over [Lower, Upper).
type Density struct {
	Grid   model.Grid
	Values []float64
	// Parametric: draws from the Gaussian. Empirical: the loaded values inside the clip, in input order.
	Sample []float64

	Lower float64
	Upper float64
	Mean  float64

	Quantiles []model.QuantileValue
}

// HalfWidth is half the width of the density domain.
func (d *Density) HalfWidth() float64 {
	return (d.Upper - d.Lower) / 2
}

func Build(ctx context.Context, source model.DensitySource, step float64, opts Options) (*Density, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: step %v must be a finite value > 0", common.ErrorInvalidParameter, step)
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}

	switch s := source.(type) {
	case model.Parametric:
		return buildParametric(ctx, s, step, opts)
	case *model.Parametric:
		return buildParametric(ctx, *s, step, opts)
	case model.Empirical:
		return buildEmpirical(ctx, s, step)
	case *model.Empirical:
		return buildEmpirical(ctx, *s, step)
	case nil:
		return nil, fmt.Errorf("%w: no density source", common.ErrorInvalidParameter)
	default:
		return nil, fmt.Errorf("%w: unknown density source %T", common.ErrorInvalidParameter, source)
	}
}

func buildParametric(ctx context.Context, source model.Parametric, step float64, opts Options) (*Density, error) {
	logger := utils.GetLogger(ctx)

	if math.IsNaN(source.Mean) || math.IsInf(source.Mean, 0) {
		return nil, fmt.Errorf("%w: mean %v must be finite", common.ErrorInvalidParameter, source.Mean)
	}
	if !(source.Stdev > 0) || math.IsInf(source.Stdev, 0) {
		return nil, fmt.Errorf("%w: stdev %v must be a finite value > 0", common.ErrorInvalidParameter, source.Stdev)
	}

	lower := source.Mean - ParametricHalfWidthSigmas*source.Stdev
	upper := source.Mean + ParametricHalfWidthSigmas*source.Stdev
	grid, err := model.NewGrid(lower, upper, step)
	if err != nil {
		return nil, err
	}

	normal := distuv.Normal{
		Mu:    source.Mean,
		Sigma: source.Stdev,
		Src:   rand.NewSource(opts.Seed),
	}

	values := make([]float64, grid.Len)
	for i := range values {
		values[i] = normal.Prob(grid.At(i))
	}

	sample := make([]float64, opts.SampleSize)
	for i := range sample {
		sample[i] = normal.Rand()
	}

	quantiles := make([]model.QuantileValue, 0, len(kde.SummaryQuantiles))
	for _, p := range kde.SummaryQuantiles {
		quantiles = append(quantiles, model.QuantileValue{Quantile: p, Value: normal.Quantile(p)})
	}

	logger.Debug("parametric density built", zap.Float64("mean", source.Mean),
		zap.Float64("stdev", source.Stdev), zap.Int("points", grid.Len))

	return &Density{
		Grid:      grid,
		Values:    values,
		Sample:    sample,
		Lower:     lower,
		Upper:     upper,
		Mean:      source.Mean,
		Quantiles: quantiles,
	}, nil
}

func buildEmpirical(ctx context.Context, source model.Empirical, step float64) (*Density, error) {
	logger := utils.GetLogger(ctx)

	k, err := kde.NewKDEUnivariate(source.Sample, nil, 1.0, kde.DefaultCut, source.Clip)
	if err != nil {
		return nil, err
	}
	bw := k.BandWidth()

	grid, err := model.NewGrid(EmpiricalDomain.Lower, EmpiricalDomain.Upper, step)
	if err != nil {
		return nil, err
	}
	values := k.Evaluate(grid.Values())

	clipped, _ := kde.Clip(source.Sample, kde.InitOnes(len(source.Sample)), source.Clip)
	sample := make([]float64, len(clipped))
	copy(sample, clipped)

	logger.Debug("empirical density built", zap.Int("sampleCnt", len(k.Endog)),
		zap.Float64("bandwidth", bw), zap.Int("points", grid.Len))

	return &Density{
		Grid:      grid,
		Values:    values,
		Sample:    sample,
		Lower:     EmpiricalDomain.Lower,
		Upper:     EmpiricalDomain.Upper,
		Mean:      stat.Mean(k.Endog, k.Weights),
		Quantiles: kde.CalculateQuantiles(ctx, k, kde.SummaryQuantiles),
	}, nil
}
