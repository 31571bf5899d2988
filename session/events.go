package session

import "github.com/uyouii/lossopt/model"

// Field is an editable scalar input.
type Field int

const (
	FieldMean Field = iota
	FieldStdev
	FieldSlopeUnder
	FieldPowerUnder
	FieldSlopeOver
	FieldPowerOver
	FieldStep
)

var AllFields = []Field{FieldMean, FieldStdev, FieldSlopeUnder, FieldPowerUnder, FieldSlopeOver, FieldPowerOver, FieldStep}

func (f Field) String() string {
	switch f {
	case FieldMean:
		return "mean"
	case FieldStdev:
		return "stdev"
	case FieldSlopeUnder:
		return "slope under"
	case FieldPowerUnder:
		return "power under"
	case FieldSlopeOver:
		return "slope over"
	case FieldPowerOver:
		return "power over"
	case FieldStep:
		return "step"
	default:
		return "unknown"
	}
}

type Event interface {
	event()
}

// SetField replaces one input value.
type SetField struct {
	Field Field
	Value float64
}

// ScaleStep multiplies the step, clamped to the configured range.
type ScaleStep struct {
	Factor float64
}

// ToggleEmpirical switches between the parametric and the empirical source.
type ToggleEmpirical struct{}

// SampleLoaded delivers the result of the data loader.
type SampleLoaded struct {
	Sample []float64
	Err    error
}

// SetClip replaces the empirical sample clip, nil disables it.
type SetClip struct {
	Clip *model.Clip
}

// Recompute evaluates the current inputs.
type Recompute struct{}

func (SetField) event()        {}
func (ScaleStep) event()       {}
func (ToggleEmpirical) event() {}
func (SampleLoaded) event()    {}
func (SetClip) event()         {}
func (Recompute) event()       {}
