package kde

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/model"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

func normalSample(n int, mu, sigma float64) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: rand.NewSource(7)}
	res := make([]float64, n)
	for i := range res {
		res[i] = dist.Rand()
	}
	return res
}

func TestNewKDEUnivariate_InsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
	}{
		{"empty", nil},
		{"single value", []float64{0.3}},
		{"all equal", []float64{0.3, 0.3, 0.3, 0.3}},
		{"nan", []float64{0.1, math.NaN(), 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKDEUnivariate(tt.sample, nil, 1, 0, nil)
			if !errors.Is(err, common.ErrorInsufficientData) {
				t.Errorf("NewKDEUnivariate() error = %v, want ErrorInsufficientData", err)
			}
		})
	}
}

func TestNewKDEUnivariate_ClipLeavesTooFew(t *testing.T) {
	_, err := NewKDEUnivariate([]float64{0.1, 0.5, 2, 3}, nil, 1, 0, &model.Clip{Lower: 0, Upper: 1.5})
	if err != nil {
		t.Fatalf("two values left after clipping, got error %v", err)
	}
	_, err = NewKDEUnivariate([]float64{0.1, 2, 3}, nil, 1, 0, &model.Clip{Lower: 0, Upper: 1})
	if !errors.Is(err, common.ErrorInsufficientData) {
		t.Errorf("error = %v, want ErrorInsufficientData", err)
	}
}

func TestNewKDEUnivariate_DoesNotMutateInput(t *testing.T) {
	sample := []float64{0.9, 0.1, 0.5, 0.3}
	k, err := NewKDEUnivariate(sample, nil, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.9, 0.1, 0.5, 0.3}
	for i := range want {
		if sample[i] != want[i] {
			t.Fatalf("input modified: %v", sample)
		}
	}
	if !floats.Equal(k.Endog, []float64{0.1, 0.3, 0.5, 0.9}) {
		t.Errorf("Endog = %v, want sorted sample", k.Endog)
	}
}

func TestKDEUnivariate_Evaluate(t *testing.T) {
	sample := normalSample(2000, 0.5, 0.05)
	k, err := NewKDEUnivariate(sample, nil, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	bw := k.Fit()
	if !(bw > 0) || bw > 0.05 {
		t.Fatalf("bandwidth = %v, want in (0, 0.05]", bw)
	}
	if got := k.BandWidth(); got != bw {
		t.Errorf("BandWidth() = %v, want %v", got, bw)
	}

	step := 0.001
	xs := linspace(0, 1-step, 1000)
	dens := k.Evaluate(xs)

	mass := floats.Sum(dens) * step
	if math.Abs(mass-1) > 0.01 {
		t.Errorf("density integrates to %v, want about 1", mass)
	}

	peak := xs[floats.MaxIdx(dens)]
	if math.Abs(peak-0.5) > 0.02 {
		t.Errorf("density peak at %v, want about 0.5", peak)
	}

	// gaussian peak height 1/(sigma*sqrt(2pi)) ~= 7.98, smoothed slightly lower
	if maxDens := floats.Max(dens); maxDens < 6 || maxDens > 9 {
		t.Errorf("peak density = %v, want about 7.5", maxDens)
	}
}

func TestKDEUnivariate_Quantile(t *testing.T) {
	sample := normalSample(1000, 0.5, 0.05)
	k, err := NewKDEUnivariate(sample, nil, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.05, 0.5 - 1.645*0.05},
		{0.5, 0.5},
		{0.95, 0.5 + 1.645*0.05},
	}
	for _, tt := range tests {
		q, err := k.Quantile(tt.p)
		if err != nil {
			t.Fatalf("Quantile(%v) error = %v", tt.p, err)
		}
		if math.Abs(q.Value-tt.want) > 0.015 {
			t.Errorf("Quantile(%v) = %v, want about %v", tt.p, q.Value, tt.want)
		}
	}

	if _, err := k.Quantile(1.5); !errors.Is(err, common.ErrorInvalidParameter) {
		t.Errorf("Quantile(1.5) error = %v, want ErrorInvalidParameter", err)
	}

	cdf, _ := k.Cdf()
	if last := cdf[len(cdf)-1].Value; math.Abs(last-1) > 1e-3 {
		t.Errorf("cdf ends at %v, want 1", last)
	}
}

func TestCalculateQuantiles(t *testing.T) {
	k, err := NewKDEUnivariate(normalSample(500, 0.3, 0.02), nil, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	res := CalculateQuantiles(context.Background(), k, []float64{0.1, 2, 0.9})
	if len(res) != 2 {
		t.Fatalf("got %d quantiles, want 2 (invalid probability skipped)", len(res))
	}
	if !(res[0].Value < res[1].Value) {
		t.Errorf("quantiles not increasing: %+v", res)
	}
}

func TestGuassianKernel_NormalReferenceConstant(t *testing.T) {
	c := NewGuassianKernel().NormalReferenceConstant()
	// (4/3)^(1/5)
	if math.Abs(c-1.0592238410488122) > 1e-9 {
		t.Errorf("NormalReferenceConstant() = %v, want 1.0592", c)
	}
}
