package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is the minimum severity written.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger. The zero value logs info and above as text
// to stderr.
type LogConfig struct {
	Level       LogLevel
	Format      LogFormat
	Output      io.Writer
	ServiceName string
	AddSource   bool
}

// LogConfigFor maps APP_ENV and LOG_LEVEL onto a LogConfig. Anything other
// than development gets JSON with source locations.
func LogConfigFor(env, level string) LogConfig {
	cfg := LogConfig{
		Level:       LogLevel(strings.ToLower(strings.TrimSpace(level))),
		Format:      LogFormatText,
		ServiceName: "trimly",
	}
	if cfg.Level == "" {
		cfg.Level = LogLevelInfo
	}
	if !strings.EqualFold(env, "development") {
		cfg.Format = LogFormatJSON
		cfg.AddSource = true
	}
	return cfg
}

// NewLogger builds a slog.Logger that tags records with the service name and,
// when present on the context, the correlation ID.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel(), AddSource: cfg.AddSource}

	var h slog.Handler
	if cfg.Format == LogFormatJSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	if cfg.ServiceName != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("service", cfg.ServiceName)})
	}

	return slog.New(correlationHandler{h})
}

func (l LogLevel) slogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
