package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/linemk/storefront/internal/lib/logger/handlers/slogpretty"
)

// switching logger
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// SetupLogger инициализирует логгер в зависимости от окружения:
// local пишет цветной текст (pretty), dev и prod пишут JSON с атрибутом env.
// level ("debug", "info", "warn", "error") переопределяет уровень окружения.
func SetupLogger(env, level string) *slog.Logger {
	return setupLogger(os.Stdout, env, level)
}

func setupLogger(out io.Writer, env, level string) *slog.Logger {
	switch env {
	case EnvLocal:
		return setupPrettySlog(out, parseLevel(level, slog.LevelDebug))
	case EnvDev:
		return newJSONLogger(out, env, parseLevel(level, slog.LevelDebug))
	default:
		return newJSONLogger(out, env, parseLevel(level, slog.LevelInfo))
	}
}

func newJSONLogger(out io.Writer, env string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("env", env))
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	if level == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fallback
	}
	return l
}

func setupPrettySlog(out io.Writer, level slog.Level) *slog.Logger {
	color.NoColor = false

	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(out)
	return slog.New(handler)
}
