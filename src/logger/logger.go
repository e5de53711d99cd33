package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the process-wide logger. InitLogger must run before anything logs
// through it.
var L *slog.Logger

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// rfc3339Time rewrites the built-in timestamp attribute so log lines carry
// RFC3339 instead of slog's default fractional format.
func rfc3339Time(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
	}
	return a
}

// InitLogger installs a JSON logger at the named level as both L and the
// slog default. Unknown level names fall back to info.
func InitLogger(levelName string) {
	level, known := levelNames[strings.ToLower(levelName)]
	if !known {
		level = slog.LevelInfo
	}

	L = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: rfc3339Time,
	}))
	slog.SetDefault(L)

	if !known {
		L.Warn("unknown LOG_LEVEL, using info", "configuredLevel", levelName)
	}
	L.Info("logger initialized", "level", level.String())
}
