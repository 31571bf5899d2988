package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/uyouii/lossopt/config"
	"github.com/uyouii/lossopt/dataset"
	"github.com/uyouii/lossopt/model"
	"github.com/uyouii/lossopt/session"
	"github.com/uyouii/lossopt/utils"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var evalFlags struct {
	mean, stdev                float64
	slopeUnder, powerUnder     float64
	slopeOver, powerOver, step float64
	empirical                  bool
	dataPath, column           string
	output                     string
	curves                     bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute the optimum estimate once and print it",
	Example: `  lossopt evaluate --mean 0.2 --stdev 0.03 --slope-under 0.9 --slope-over 0.1
  lossopt evaluate --empirical --data feature.csv --column value --output yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyEvaluateFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := context.Background()
		logger := utils.GetLogger(ctx)

		state := session.State{Inputs: session.InputsFromConfig(cfg)}
		reducer := session.NewReducer(newEngine(cfg), session.LimitsFromConfig(cfg))

		if cfg.Distribution.UseEmpirical {
			sample, err := dataset.LoadColumn(cfg.Distribution.DataPath, cfg.Distribution.Column)
			if err != nil {
				return err
			}
			logger.Info("empirical sample loaded", zap.String("path", cfg.Distribution.DataPath),
				zap.String("column", cfg.Distribution.Column), zap.Int("cnt", len(sample)))
			state = reducer.Reduce(ctx, state, session.SampleLoaded{Sample: sample})
		}

		state = reducer.Reduce(ctx, state, session.Recompute{})
		if state.Err != nil {
			return state.Err
		}
		return writeResult(cmd.OutOrStdout(), state.Result, evalFlags.output, evalFlags.curves)
	},
}

func init() {
	f := evaluateCmd.Flags()
	f.Float64Var(&evalFlags.mean, "mean", 0, "distribution mean")
	f.Float64Var(&evalFlags.stdev, "stdev", 0, "distribution standard deviation")
	f.Float64Var(&evalFlags.slopeUnder, "slope-under", 0, "loss slope for underestimation")
	f.Float64Var(&evalFlags.powerUnder, "power-under", 0, "loss exponent for underestimation")
	f.Float64Var(&evalFlags.slopeOver, "slope-over", 0, "loss slope for overestimation")
	f.Float64Var(&evalFlags.powerOver, "power-over", 0, "loss exponent for overestimation")
	f.Float64Var(&evalFlags.step, "step", 0, "grid step")
	f.BoolVar(&evalFlags.empirical, "empirical", false, "estimate the density from --data")
	f.StringVar(&evalFlags.dataPath, "data", "", "CSV file with the empirical sample")
	f.StringVar(&evalFlags.column, "column", "", "column of --data holding the sample")
	f.StringVarP(&evalFlags.output, "output", "o", "text", "output format: text, yaml, json")
	f.BoolVar(&evalFlags.curves, "curves", false, "include the density, loss and expected loss arrays")
	rootCmd.AddCommand(evaluateCmd)
}

// applyEvaluateFlags overrides config values with the flags set on the command line.
func applyEvaluateFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	floatFlags := map[string]*float64{
		"mean":        &c.Distribution.Mean,
		"stdev":       &c.Distribution.Stdev,
		"slope-under": &c.Loss.SlopeUnder,
		"power-under": &c.Loss.PowerUnder,
		"slope-over":  &c.Loss.SlopeOver,
		"power-over":  &c.Loss.PowerOver,
		"step":        &c.Grid.Step,
	}
	values := map[string]float64{
		"mean":        evalFlags.mean,
		"stdev":       evalFlags.stdev,
		"slope-under": evalFlags.slopeUnder,
		"power-under": evalFlags.powerUnder,
		"slope-over":  evalFlags.slopeOver,
		"power-over":  evalFlags.powerOver,
		"step":        evalFlags.step,
	}
	for name, dst := range floatFlags {
		if f.Changed(name) {
			*dst = values[name]
		}
	}
	if f.Changed("empirical") {
		c.Distribution.UseEmpirical = evalFlags.empirical
	}
	if f.Changed("data") {
		c.Distribution.DataPath = evalFlags.dataPath
	}
	if f.Changed("column") {
		c.Distribution.Column = evalFlags.column
	}
}

func writeResult(w io.Writer, res *model.Result, format string, curves bool) error {
	out := res
	if !curves {
		out = res.WithoutCurves()
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "text", "":
		writeText(w, res)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, res *model.Result) {
	fmt.Fprintf(w, "source:                %s\n", res.Source)
	fmt.Fprintf(w, "mean:                  %v\n", utils.FormatFloat(res.Mean, 6))
	fmt.Fprintf(w, "optimum estimate:      %v\n", utils.FormatFloat(res.OptimumEstimate, 6))
	fmt.Fprintf(w, "minimum expected loss: %v\n", utils.FormatFloat(res.MinimumExpectedLoss, 9))
	for _, q := range res.Quantiles {
		fmt.Fprintf(w, "quantile %-4v          %v\n", q.Quantile, utils.FormatFloat(q.Value, 6))
	}
	fmt.Fprintf(w, "grid points:           density %d, loss %d, expected loss %d\n",
		res.DensityGrid.Len, res.LossDelta.Len, res.ExpectedLoss.Grid.Len)
}
