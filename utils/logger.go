package utils

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var level = zap.NewAtomicLevelAt(zap.InfoLevel)

func init() {
	zap.ReplaceGlobals(zap.Must(newProduction("stderr")))
}

func newProduction(outputs ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = outputs
	return cfg.Build()
}

func GetLogger(ctx context.Context) *zap.Logger {
	return zap.L()
}

// SetLevel accepts zap level names: debug, info, warn, error.
func SetLevel(name string) error {
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

// RedirectOutput sends the global logger to path. An empty path silences it,
// which the terminal UI needs since stderr shares the screen.
func RedirectOutput(path string) error {
	if path == "" {
		zap.ReplaceGlobals(zap.NewNop())
		return nil
	}
	logger, err := newProduction(path)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func GetPanicInfo() string {
	buf := make([]byte, 16384)
	l := runtime.Stack(buf, false)
	return string(buf[:l])
}
