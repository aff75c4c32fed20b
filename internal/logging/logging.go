// Package logging builds the zap logger shared by the engine, the sources
// and the CLI. The interactive view owns the terminal, so diagnostics go
// to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where diagnostics are written
type Options struct {
	// Path appends logs to a file; it wins over Console
	Path string
	// Verbose lowers the level from info to debug
	Verbose bool
	// Console receives logs when Verbose is set and Path is empty. It is
	// left nil while the TUI runs.
	Console io.Writer
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
	}
}

// New returns the logger for opts and a function that flushes and closes
// its output. Without a destination the logger discards everything.
func New(opts Options) (*zap.Logger, func() error, error) {
	var w zapcore.WriteSyncer
	closeFn := func() error { return nil }

	switch {
	case opts.Path != "":
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = zapcore.AddSync(f)
		closeFn = f.Close
	case opts.Verbose && opts.Console != nil:
		w = zapcore.AddSync(opts.Console)
	default:
		return zap.NewNop(), closeFn, nil
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), w, level)
	logger := zap.New(core).Named("logpulse")

	return logger, func() error {
		_ = logger.Sync()
		return closeFn()
	}, nil
}
