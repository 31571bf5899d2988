package model

type Clip struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

type Cdf struct {
	X     float64
	Value float64
}

type QuantileValue struct {
	Value    float64 `json:"v" yaml:"v"`
	Quantile float64 `json:"q" yaml:"q"`
}

// HistogramBin counts sample values in [Lower, Upper).
type HistogramBin struct {
	Lower float64 `json:"l" yaml:"l"`
	Upper float64 `json:"u" yaml:"u"`
	Count float64 `json:"c" yaml:"c"`
}
