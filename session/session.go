// Package session holds the interactive state as a pure reducer over events.
// Rendering reads State and never mutates it.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/config"
	"github.com/uyouii/lossopt/density"
	"github.com/uyouii/lossopt/loss"
	"github.com/uyouii/lossopt/model"
	"github.com/uyouii/lossopt/utils"
	"go.uber.org/zap"
)

var ErrorNoSample = errors.New("no empirical sample loaded")

type Evaluator interface {
	Evaluate(ctx context.Context, source model.DensitySource, step float64,
		params model.LossParameters) (*model.Result, error)
}

type Inputs struct {
	UseEmpirical bool
	Mean         float64
	Stdev        float64
	Sample       []float64
	SampleErr    error
	Clip         *model.Clip
	Loss         model.LossParameters
	Step         float64
}

// Source returns the density source the inputs select.
func (in Inputs) Source() (model.DensitySource, error) {
	if !in.UseEmpirical {
		return model.Parametric{Mean: in.Mean, Stdev: in.Stdev}, nil
	}
	if in.SampleErr != nil {
		return nil, in.SampleErr
	}
	if in.Sample == nil {
		return nil, ErrorNoSample
	}
	return model.Empirical{Sample: in.Sample, Clip: in.Clip}, nil
}

func (in Inputs) Value(f Field) float64 {
	switch f {
	case FieldMean:
		return in.Mean
	case FieldStdev:
		return in.Stdev
	case FieldSlopeUnder:
		return in.Loss.SlopeUnder
	case FieldPowerUnder:
		return in.Loss.PowerUnder
	case FieldSlopeOver:
		return in.Loss.SlopeOver
	case FieldPowerOver:
		return in.Loss.PowerOver
	case FieldStep:
		return in.Step
	}
	return math.NaN()
}

// Limits are enforced here, before the engine is invoked.
type Limits struct {
	StepMin       float64
	StepMax       float64
	MaxGridPoints int
}

type State struct {
	Inputs Inputs
	// last successful result, kept when a later evaluation fails
	Result *model.Result
	Err    error
	// incremented on every input change
	Revision int
	// revision of the last evaluation, successful or not
	Evaluated int
}

// Stale reports whether Result does not reflect the current inputs.
func (s State) Stale() bool {
	return s.Evaluated != s.Revision || s.Err != nil
}

func InputsFromConfig(cfg *config.Config) Inputs {
	return Inputs{
		UseEmpirical: cfg.Distribution.UseEmpirical,
		Mean:         cfg.Distribution.Mean,
		Stdev:        cfg.Distribution.Stdev,
		Clip:         cfg.Clip(),
		Loss:         cfg.Loss,
		Step:         cfg.Grid.Step,
	}
}

func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		StepMin:       cfg.Grid.StepMin,
		StepMax:       cfg.Grid.StepMax,
		MaxGridPoints: cfg.Grid.MaxGridPoints,
	}
}

type Reducer struct {
	evaluator Evaluator
	limits    Limits
}

func NewReducer(evaluator Evaluator, limits Limits) *Reducer {
	return &Reducer{evaluator: evaluator, limits: limits}
}

func (r *Reducer) Limits() Limits {
	return r.limits
}

// Reduce returns the state after ev. The input state is not modified.
func (r *Reducer) Reduce(ctx context.Context, s State, ev Event) State {
	switch e := ev.(type) {
	case SetField:
		s.Inputs = setField(s.Inputs, e.Field, e.Value)
		s.Revision++
	case ScaleStep:
		if e.Factor > 0 {
			s.Inputs.Step = r.clampStep(s.Inputs.Step * e.Factor)
			s.Revision++
		}
	case ToggleEmpirical:
		s.Inputs.UseEmpirical = !s.Inputs.UseEmpirical
		s.Revision++
	case SampleLoaded:
		s.Inputs.Sample, s.Inputs.SampleErr = e.Sample, e.Err
		s.Revision++
	case SetClip:
		s.Inputs.Clip = e.Clip
		s.Revision++
	case Recompute:
		s = r.recompute(ctx, s)
	}
	return s
}

func (r *Reducer) clampStep(step float64) float64 {
	if r.limits.StepMin > 0 && step < r.limits.StepMin {
		return r.limits.StepMin
	}
	if r.limits.StepMax > 0 && step > r.limits.StepMax {
		return r.limits.StepMax
	}
	return step
}

func setField(in Inputs, f Field, v float64) Inputs {
	switch f {
	case FieldMean:
		in.Mean = v
	case FieldStdev:
		in.Stdev = v
	case FieldSlopeUnder:
		in.Loss.SlopeUnder = v
	case FieldPowerUnder:
		in.Loss.PowerUnder = v
	case FieldSlopeOver:
		in.Loss.SlopeOver = v
	case FieldPowerOver:
		in.Loss.PowerOver = v
	case FieldStep:
		in.Step = v
	}
	return in
}

func (r *Reducer) recompute(ctx context.Context, s State) State {
	logger := utils.GetLogger(ctx)
	s.Evaluated = s.Revision

	result, err := r.evaluate(ctx, s.Inputs)
	if err != nil {
		logger.Info("evaluation failed, keeping previous result", zap.Error(err),
			zap.Int("revision", s.Revision))
		s.Err = err
		return s
	}
	s.Result, s.Err = result, nil
	return s
}

func (r *Reducer) evaluate(ctx context.Context, in Inputs) (result *model.Result, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("evaluate recover panic error!", zap.Any("err", p),
				zap.String("panic info", utils.GetPanicInfo()))
			result, err = nil, fmt.Errorf("evaluation panicked: %v", p)
		}
	}()

	source, err := in.Source()
	if err != nil {
		return nil, err
	}
	if err := r.checkGridSize(in); err != nil {
		return nil, err
	}
	return r.evaluator.Evaluate(ctx, source, in.Step, in.Loss)
}

// checkGridSize bounds the loss kernel length, the largest array of an evaluation.
func (r *Reducer) checkGridSize(in Inputs) error {
	if r.limits.MaxGridPoints <= 0 || !(in.Step > 0) {
		return nil
	}
	halfWidth := density.ParametricHalfWidthSigmas * in.Stdev
	if in.UseEmpirical {
		halfWidth = (density.EmpiricalDomain.Upper - density.EmpiricalDomain.Lower) / 2
	}
	if !(halfWidth > 0) {
		return nil
	}
	points := math.Ceil(2 * loss.KernelHalfWidthFactor * halfWidth / in.Step)
	if points > float64(r.limits.MaxGridPoints) {
		return fmt.Errorf("%w: step %v needs %.0f kernel points, limit is %d",
			common.ErrorInvalidParameter, in.Step, points, r.limits.MaxGridPoints)
	}
	return nil
}
