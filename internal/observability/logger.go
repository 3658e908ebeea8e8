package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/couchcryptid/station-telemetry-etl/internal/config"
)

// Levels beyond the slog defaults. Notice sits between info and warning,
// critical above error.
const (
	LevelNotice   = slog.Level(2)
	LevelCritical = slog.Level(12)
)

// Attribute keys shared by every component.
const (
	KeyFacility   = "facility"
	KeyService    = "service"
	KeyStationID  = "station_id"
	KeyDeviceName = "device_name"
	KeyModuleID   = "module_id"
	KeyModuleName = "module_name"
	KeyCode       = "code"
)

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "notice":
		return LevelNotice
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "crit":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

func levelName(l slog.Level) string {
	switch l {
	case LevelNotice:
		return "NOTICE"
	case LevelCritical:
		return "CRITICAL"
	default:
		return l.String()
	}
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(l))
		}
	}
	return a
}

// NewLogger builds the service logger: JSON lines by default, colorized text
// through tint when LOG_FORMAT is "text".
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	var h slog.Handler
	if format == "text" {
		h = tint.NewHandler(w, &tint.Options{
			Level:       lvl,
			TimeFormat:  time.Kitchen,
			ReplaceAttr: replaceLevel,
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       lvl,
			ReplaceAttr: replaceLevel,
		})
	}
	return slog.New(h).With(KeyService, "station-telemetry-etl")
}

// Notice logs at LevelNotice.
func Notice(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelNotice, msg, args...)
}

// Critical logs at LevelCritical.
func Critical(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelCritical, msg, args...)
}
