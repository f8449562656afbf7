package logging

import (
	"io"
	log "log/slog"
	"time"

	"github.com/lmittmann/tint"
)

var levels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// ParseLevel maps a --log flag value to a level. Unknown names fall back
// to info.
func ParseLevel(name string) log.Level {
	if l, ok := levels[name]; ok {
		return l
	}
	return log.LevelInfo
}

// New returns a colored tint logger writing to w.
func New(w io.Writer, level string) *log.Logger {
	return log.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
	}))
}

// Setup installs New(w, level) as the default logger.
func Setup(w io.Writer, level string) {
	log.SetDefault(New(w, level))
}
