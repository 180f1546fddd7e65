// Package logging builds the zap loggers used by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ANSI codes used by the console encoder.
const (
	reset        = "\033[0m"
	bold         = "\033[1m"
	dim          = "\033[2m"
	red          = "\033[31m"
	gray         = "\033[90m"
	brightRed    = "\033[91m"
	brightYellow = "\033[93m"
	brightWhite  = "\033[97m"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is console or json. Empty means console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// Color forces ANSI colors on or off. Nil detects a terminal.
	Color *bool
}

// New returns a logger for opts.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatConsole:
		encoder = consoleEncoder(colorEnabled(opts.Color, out))
	case FormatJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core, zap.AddCaller()), nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func colorEnabled(force *bool, out io.Writer) bool {
	if force != nil {
		return *force
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func levelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return gray
	case zapcore.InfoLevel:
		return brightWhite
	case zapcore.WarnLevel:
		return brightYellow
	case zapcore.ErrorLevel:
		return brightRed
	default:
		return red
	}
}

// consoleEncoder prints HH:MM:SS, a one-letter level and the bare caller file.
func consoleEncoder(color bool) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()

	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		ts := t.Format("15:04:05")
		if color {
			ts = dim + ts + reset
		}
		enc.AppendString(ts)
	}

	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		var s string
		switch level {
		case zapcore.DebugLevel:
			s = "D"
		case zapcore.InfoLevel:
			s = "I"
		case zapcore.WarnLevel:
			s = "W"
		case zapcore.ErrorLevel:
			s = "E"
		default:
			s = "?"
		}
		if color {
			s = levelColor(level) + bold + s + reset
		}
		enc.AppendString(s)
	}

	cfg.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := strings.TrimSuffix(filepath.Base(caller.File), ".go")
		if color {
			file = dim + file + reset
		}
		enc.AppendString(file)
	}

	return zapcore.NewConsoleEncoder(cfg)
}
