package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/model"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

func quadratic(under, over float64) model.LossParameters {
	return model.LossParameters{SlopeUnder: under, PowerUnder: 2, SlopeOver: over, PowerOver: 2}
}

func evaluate(t *testing.T, source model.DensitySource, step float64, params model.LossParameters) *model.Result {
	t.Helper()
	res, err := NewEngine(DefaultOptions()).Evaluate(context.Background(), source, step, params)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	return res
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		params   model.LossParameters
		min, max float64
	}{
		{"symmetric quadratic", quadratic(0.1, 0.1), 0.195, 0.205},
		{"underestimation penalized", quadratic(0.9, 0.1), 0.22, 0.235},
		{"overestimation penalized", quadratic(0.1, 0.9), 0.165, 0.18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(t, model.Parametric{Mean: 0.2, Stdev: 0.03}, 0.001, tt.params)
			if res.OptimumEstimate < tt.min || res.OptimumEstimate > tt.max {
				t.Errorf("OptimumEstimate = %v, want in [%v, %v]", res.OptimumEstimate, tt.min, tt.max)
			}
		})
	}
}

func TestEvaluate_SymmetricLossAtMean(t *testing.T) {
	step := 0.001
	for _, params := range []model.LossParameters{
		quadratic(0.1, 0.1),
		{SlopeUnder: 1, PowerUnder: 1, SlopeOver: 1, PowerOver: 1},
		{SlopeUnder: 2, PowerUnder: 3, SlopeOver: 2, PowerOver: 3},
	} {
		res := evaluate(t, model.Parametric{Mean: 0.5, Stdev: 0.05}, step, params)
		if math.Abs(res.OptimumEstimate-0.5) > step {
			t.Errorf("%+v: OptimumEstimate = %v, want 0.5 within one step", params, res.OptimumEstimate)
		}
	}
}

func TestEvaluate_ShiftDirection(t *testing.T) {
	src := model.Parametric{Mean: 0.5, Stdev: 0.05}
	linear := func(under, over float64) model.LossParameters {
		return model.LossParameters{SlopeUnder: under, PowerUnder: 1, SlopeOver: over, PowerOver: 1}
	}

	if res := evaluate(t, src, 0.001, linear(3, 1)); !(res.OptimumEstimate > 0.5) {
		t.Errorf("slope_under > slope_over: OptimumEstimate = %v, want above 0.5", res.OptimumEstimate)
	}
	if res := evaluate(t, src, 0.001, linear(1, 3)); !(res.OptimumEstimate < 0.5) {
		t.Errorf("slope_over > slope_under: OptimumEstimate = %v, want below 0.5", res.OptimumEstimate)
	}
}

// For a quadratic symmetric loss the minimum is slope * variance.
func TestEvaluate_MinimumExpectedLoss(t *testing.T) {
	res := evaluate(t, model.Parametric{Mean: 0.2, Stdev: 0.03}, 0.001, quadratic(0.1, 0.1))
	want := 0.1 * 0.03 * 0.03
	if math.Abs(res.MinimumExpectedLoss-want) > 0.01*want {
		t.Errorf("MinimumExpectedLoss = %v, want %v", res.MinimumExpectedLoss, want)
	}
	for i, v := range res.ExpectedLoss.Values {
		if v < 0 {
			t.Fatalf("expected loss %v at index %d is negative", v, i)
		}
	}
}

func TestEvaluate_Result(t *testing.T) {
	res := evaluate(t, model.Parametric{Mean: 0.2, Stdev: 0.03}, 0.001, quadratic(0.1, 0.1))

	if res.Source != "parametric" || res.Mean != 0.2 {
		t.Errorf("Source/Mean = %q/%v", res.Source, res.Mean)
	}
	if len(res.DensityValues) != res.DensityGrid.Len || len(res.LossValues) != res.LossDelta.Len ||
		len(res.ExpectedLoss.Values) != res.ExpectedLoss.Grid.Len {
		t.Fatal("array and grid lengths disagree")
	}
	if res.LossDelta.Len != 4*res.DensityGrid.Len {
		t.Errorf("loss kernel has %d points, want 4x density %d", res.LossDelta.Len, res.DensityGrid.Len)
	}
	if got := res.ExpectedLoss.Grid.Len; got != res.LossDelta.Len-res.DensityGrid.Len+1 {
		t.Errorf("expected loss has %d points, want valid overlap length", got)
	}

	if len(res.Histogram) != DefaultHistogramBins {
		t.Fatalf("histogram has %d bins, want %d", len(res.Histogram), DefaultHistogramBins)
	}
	total := 0.0
	for _, b := range res.Histogram {
		total += b.Count
	}
	if total < 0.999*float64(len(res.Sample)) {
		t.Errorf("histogram counts %v of %d draws", total, len(res.Sample))
	}

	short := res.WithoutCurves()
	if short.DensityValues != nil || short.ExpectedLoss.Values != nil || res.DensityValues == nil {
		t.Error("WithoutCurves() should drop arrays of the copy only")
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	src := model.Parametric{Mean: 0.2, Stdev: 0.03}
	params := quadratic(0.9, 0.1)
	a := evaluate(t, src, 0.001, params)
	b := evaluate(t, src, 0.001, params)
	if !reflect.DeepEqual(a, b) {
		t.Error("two evaluations with equal inputs differ")
	}
}

func TestEvaluate_Empirical(t *testing.T) {
	dist := distuv.Normal{Mu: 0.5, Sigma: 0.05, Src: rand.NewSource(3)}
	sample := make([]float64, 2000)
	for i := range sample {
		sample[i] = dist.Rand()
	}

	res := evaluate(t, model.Empirical{Sample: sample}, 0.001, quadratic(0.1, 0.1))
	if res.Source != "empirical" {
		t.Errorf("Source = %q", res.Source)
	}
	if res.DensityGrid.Min != 0 || res.DensityGrid.Len != 1000 {
		t.Errorf("DensityGrid = %+v, want 1000 points from 0", res.DensityGrid)
	}
	if math.Abs(res.OptimumEstimate-res.Mean) > 0.002 {
		t.Errorf("OptimumEstimate = %v, want sample mean %v", res.OptimumEstimate, res.Mean)
	}

	shifted := evaluate(t, model.Empirical{Sample: sample}, 0.001, quadratic(0.9, 0.1))
	if !(shifted.OptimumEstimate > res.OptimumEstimate+0.02) {
		t.Errorf("shifted OptimumEstimate = %v, want above %v", shifted.OptimumEstimate, res.OptimumEstimate+0.02)
	}
}

func TestEvaluate_SmallStep(t *testing.T) {
	res := evaluate(t, model.Parametric{Mean: 0.2, Stdev: 0.03}, 1e-4, quadratic(0.1, 0.1))
	n := res.ExpectedLoss.Grid.Len
	if n <= 0 || n > 4*res.DensityGrid.Len {
		t.Errorf("expected loss length %d out of bounds for %d density points", n, res.DensityGrid.Len)
	}
	if math.Abs(res.OptimumEstimate-0.2) > 1e-4 {
		t.Errorf("OptimumEstimate = %v, want 0.2", res.OptimumEstimate)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	good := model.Parametric{Mean: 0.2, Stdev: 0.03}
	tests := []struct {
		name   string
		source model.DensitySource
		step   float64
		params model.LossParameters
		want   error
	}{
		{"bad stdev", model.Parametric{Mean: 0.2, Stdev: 0}, 0.001, quadratic(0.1, 0.1), common.ErrorInvalidParameter},
		{"bad step", good, 0, quadratic(0.1, 0.1), common.ErrorInvalidParameter},
		{"bad slope", good, 0.001, quadratic(-0.1, 0.1), common.ErrorInvalidParameter},
		{"loss overflow", model.Parametric{Mean: 0, Stdev: 1}, 0.01, model.LossParameters{SlopeUnder: 1, PowerUnder: 300, SlopeOver: 1, PowerOver: 300}, common.ErrorInvalidParameter},
		{"bad power", good, 0.001, model.LossParameters{SlopeUnder: 1, PowerUnder: 0.5, SlopeOver: 1, PowerOver: 1}, common.ErrorInvalidParameter},
		{"degenerate sample", model.Empirical{Sample: []float64{0.3, 0.3}}, 0.001, quadratic(0.1, 0.1), common.ErrorInsufficientData},
		// a single density point at 0 and a kernel from -2 put every estimate below the domain
		{"step too coarse", model.Empirical{Sample: []float64{0.3, 0.4}}, 10, quadratic(0.1, 0.1), common.ErrorInsufficientResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(DefaultOptions()).Evaluate(context.Background(), tt.source, tt.step, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("Evaluate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{0.05, 0.15, 0.15, 0.95, 1.0, -0.1, 0.999}, 0, 1, 10)
	if len(bins) != 10 {
		t.Fatalf("len = %d, want 10", len(bins))
	}
	counts := make([]float64, len(bins))
	for i, b := range bins {
		counts[i] = b.Count
	}
	if !floats.Equal(counts, []float64{1, 2, 0, 0, 0, 0, 0, 0, 0, 2}) {
		t.Errorf("counts = %v", counts)
	}
	if bins[9].Upper != 1 {
		t.Errorf("last bin ends at %v, want 1", bins[9].Upper)
	}
	if Histogram(nil, 0, 1, 5)[0].Count != 0 {
		t.Error("empty sample should give empty bins")
	}
}
