package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger = slog.Default()

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs a text handler writing to w (stdout when nil) as the default
// logger and returns it.
func Init(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	Logger = slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(Logger)
	return Logger
}

// With tags the package logger with attrs, such as a run id.
func With(args ...any) *slog.Logger {
	Logger = Logger.With(args...)
	slog.SetDefault(Logger)
	return Logger
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
