package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Level is a log level. Only the four levels below are used.
type Level int

// Levels line up with zapcore's so conversion is a cast.
const (
	DEBUG = Level(zapcore.DebugLevel)
	INFO  = Level(zapcore.InfoLevel)
	WARN  = Level(zapcore.WarnLevel)
	ERROR = Level(zapcore.ErrorLevel)
)

// DefaultTimeFormatStr is the time layout of every appender.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// LevelFromString parses "debug", "info", "warn" (or "warning") and "error", ignoring case.
func LevelFromString(inp string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(inp)) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return INFO, errors.Errorf("unknown log level %q, expected debug, info, warn or error", inp)
}

// AsZap converts the level to its zapcore equivalent.
func (level Level) AsZap() zapcore.Level {
	return zapcore.Level(level)
}

func (level Level) String() string {
	return level.AsZap().String()
}
