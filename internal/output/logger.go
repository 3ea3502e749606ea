/*
PURPOSE:
  Provides a structured logger for the AFDB filter.
  Wraps zap for consistent key/value output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy: per-candidate rejections stay at debug.

  Implementation-discovered:
  - Needs Debug/Info/Warn/Error levels, adjustable from the CLI.
  - Sampling must be off: every archive failure has to reach the log.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - Falls back to a no-op logger if zap cannot build its sinks.

IMPLEMENTATION RULES:
  - Use go.uber.org/zap (SugaredLogger, key/value pairs).

USAGE:
  output.Logger.Infow("message", "key", "value")

SELF-HEALING INSTRUCTIONS:
  - If log lines disappear under load, check that Sampling is still nil.

RELATED FILES:
  - All.

MAINTENANCE:
  - JSON encoding for non-interactive runs?
*/

package output

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	Logger *zap.SugaredLogger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	Logger = l.Sugar()
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *zap.SugaredLogger) {
	Logger = l
}

// SetLevel changes the level of the default logger ("debug", "info", "warn", "error").
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}
