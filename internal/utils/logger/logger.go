package logger

import (
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slog"

	"tracker/internal/app/client/config"
)

// New создает логгер для окружения: local - цветной вывод, dev - JSON с DEBUG,
// prod и остальные - JSON с INFO.
func New(env string) *slog.Logger {
	return NewWithLevel(env, "")
}

// NewWithLevel то же, что New, но level (debug, info, warn, error) переопределяет уровень окружения
func NewWithLevel(env, level string) *slog.Logger {
	return newLogger(os.Stderr, env, level)
}

func newLogger(out io.Writer, env, level string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		return setupPrettySlogTo(out, levelOr(level, slog.LevelDebug))
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)}))
	default:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	return setupPrettySlogTo(os.Stderr, slog.LevelDebug)
}

func setupPrettySlogTo(out io.Writer, level slog.Level) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: level},
	}

	return slog.New(opts.NewPrettyHandler(out))
}

func levelOr(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
