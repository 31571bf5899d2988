package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uyouii/lossopt/config"
	"github.com/uyouii/lossopt/engine"
	"github.com/uyouii/lossopt/utils"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lossopt",
	Short: "Optimum point estimate under an asymmetric loss",
	Long: `lossopt combines a probability density (Gaussian or estimated from data)
with a piecewise-power loss to get the expected loss of every candidate
estimate, and reports the estimate that minimizes it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		if err := utils.SetLevel(level); err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .toml or .yaml (default: $LOSSOPT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("LOSSOPT_CONFIG")
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newEngine(cfg *config.Config) *engine.Engine {
	opts := engine.DefaultOptions()
	opts.Density.SampleSize = cfg.Engine.SampleSize
	opts.Density.Seed = cfg.Engine.Seed
	opts.HistogramBins = cfg.Engine.HistogramBins
	return engine.NewEngine(opts)
}
