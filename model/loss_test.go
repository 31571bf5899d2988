package model

import (
	"errors"
	"math"
	"testing"

	"github.com/uyouii/lossopt/common"
)

var lossCases = []LossParameters{
	{SlopeUnder: 0.1, PowerUnder: 2, SlopeOver: 0.1, PowerOver: 2},
	{SlopeUnder: 0.9, PowerUnder: 1, SlopeOver: 0.1, PowerOver: 3},
	{SlopeUnder: 0, PowerUnder: 1, SlopeOver: 2, PowerOver: 1.5},
	{SlopeUnder: 5, PowerUnder: 4, SlopeOver: 0, PowerOver: 1},
}

func TestLoss_ZeroAtOrigin(t *testing.T) {
	for _, p := range lossCases {
		if got := p.Loss(0); got != 0 {
			t.Errorf("%+v: Loss(0) = %v, want 0", p, got)
		}
		if got := p.Loss(math.Copysign(0, -1)); got != 0 {
			t.Errorf("%+v: Loss(-0) = %v, want 0", p, got)
		}
	}
}

func TestLoss_Monotonic(t *testing.T) {
	for _, p := range lossCases {
		prev := p.Loss(-2)
		for d := -2.0; d < 0; d += 0.01 {
			cur := p.Loss(d)
			if cur > prev {
				t.Fatalf("%+v: Loss(%v) = %v above Loss at smaller delta %v", p, d, cur, prev)
			}
			if cur < 0 {
				t.Fatalf("%+v: Loss(%v) = %v is negative", p, d, cur)
			}
			prev = cur
		}

		prev = 0
		for d := 0.0; d <= 2; d += 0.01 {
			cur := p.Loss(d)
			if cur < prev {
				t.Fatalf("%+v: Loss(%v) = %v below Loss at smaller delta %v", p, d, cur, prev)
			}
			prev = cur
		}
	}
}

func TestLoss_Formula(t *testing.T) {
	p := LossParameters{SlopeUnder: 0.9, PowerUnder: 2, SlopeOver: 0.1, PowerOver: 3}
	if got, want := p.Loss(-0.5), 0.9*0.25; math.Abs(got-want) > 1e-15 {
		t.Errorf("Loss(-0.5) = %v, want %v", got, want)
	}
	if got, want := p.Loss(0.5), 0.1*0.125; math.Abs(got-want) > 1e-15 {
		t.Errorf("Loss(0.5) = %v, want %v", got, want)
	}
}

func TestLossParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  LossParameters
		wantErr bool
	}{
		{"quadratic", LossParameters{0.1, 2, 0.1, 2}, false},
		{"linear zero slope", LossParameters{0, 1, 1, 1}, false},
		{"negative slope under", LossParameters{-0.1, 2, 0.1, 2}, true},
		{"negative slope over", LossParameters{0.1, 2, -0.1, 2}, true},
		{"power under below one", LossParameters{0.1, 0.5, 0.1, 2}, true},
		{"power over below one", LossParameters{0.1, 2, 0.1, 0.99}, true},
		{"nan", LossParameters{math.NaN(), 2, 0.1, 2}, true},
		{"inf", LossParameters{0.1, 2, 0.1, math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrorInvalidParameter) {
				t.Errorf("Validate() error = %v, want ErrorInvalidParameter", err)
			}
		})
	}
}
