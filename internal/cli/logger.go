package cli

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the diagnostic logger: JSON on stderr, tagged with the
// run id so lines can be matched to NDJSON records.
func newLogger(globals *Globals, runID string) *zap.Logger {
	if globals == nil || globals.Stderr == nil {
		return zap.NewNop()
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if globals.Level != "" {
		if parsed, err := zapcore.ParseLevel(globals.Level); err == nil {
			level.SetLevel(parsed)
		}
	}
	if globals.Verbose {
		level.SetLevel(zap.DebugLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(globals.Stderr), level)

	logger := zap.New(core)
	if runID != "" {
		logger = logger.With(zap.String("run_id", runID))
	}
	return logger
}
