package model

// ExpectedLossCurve holds E[loss | estimate = Grid.At(i)] at Values[i].
type ExpectedLossCurve struct {
	Grid   Grid      `json:"grid" yaml:"grid"`
	Values []float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

func (c *ExpectedLossCurve) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Grid.IsEmpty() || len(c.Values) == 0
}

// Result is the output of one evaluation. It is owned by the caller.
type Result struct {
	Source string  `json:"source" yaml:"source"`
	Mean   float64 `json:"mean" yaml:"mean"`

	DensityGrid   Grid      `json:"density_grid" yaml:"density_grid"`
	DensityValues []float64 `json:"density_values,omitempty" yaml:"density_values,omitempty"`

	LossDelta  Grid      `json:"loss_delta" yaml:"loss_delta"`
	LossValues []float64 `json:"loss_values,omitempty" yaml:"loss_values,omitempty"`

	ExpectedLoss ExpectedLossCurve `json:"expected_loss" yaml:"expected_loss"`

	OptimumEstimate     float64 `json:"optimum_estimate" yaml:"optimum_estimate"`
	MinimumExpectedLoss float64 `json:"minimum_expected_loss" yaml:"minimum_expected_loss"`

	// Sample is only used for the histogram overlay.
	Sample    []float64       `json:"-" yaml:"-"`
	Histogram []HistogramBin  `json:"histogram,omitempty" yaml:"histogram,omitempty"`
	Quantiles []QuantileValue `json:"quantiles,omitempty" yaml:"quantiles,omitempty"`
}

// WithoutCurves returns a shallow copy with the array fields dropped.
func (r *Result) WithoutCurves() *Result {
	res := *r
	res.DensityValues = nil
	res.LossValues = nil
	res.ExpectedLoss.Values = nil
	res.Histogram = nil
	return &res
}
