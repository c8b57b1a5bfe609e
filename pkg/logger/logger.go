package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var (
	base  = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	debug = os.Getenv("ENVIRONMENT") == "development"
)

// Init switches the output format for the given environment. Anything other
// than "development" logs JSON lines and suppresses debug output.
func Init(environment string) {
	debug = strings.EqualFold(environment, "development")
	if debug {
		base = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		base = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	slog.SetDefault(base)
}

// Logger returns the structured logger behind the printf helpers.
func Logger() *slog.Logger {
	return base
}

func Info(format string, v ...interface{}) {
	base.Info(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	base.Warn(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	base.Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	if debug {
		base.Debug(fmt.Sprintf(format, v...))
	}
}
