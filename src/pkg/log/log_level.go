// Package log provides functionality for logging commands, errors and diagnostics
package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogLevel represents the type and severity of a log message
type LogLevel int

const (
	LevelCommand LogLevel = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// levelInfo pairs a level with its name and the slog level it is written at.
// Commands go to their own file, so they are written at info.
type levelInfo struct {
	name string
	slog slog.Level
}

var levels = map[LogLevel]levelInfo{
	LevelCommand: {"COMMAND", slog.LevelInfo},
	LevelError:   {"ERROR", slog.LevelError},
	LevelWarn:    {"WARN", slog.LevelWarn},
	LevelInfo:    {"INFO", slog.LevelInfo},
	LevelDebug:   {"DEBUG", slog.LevelDebug},
}

// levelAliases lists the accepted config spellings besides the level names
var levelAliases = map[string]LogLevel{
	"":        LevelInfo,
	"warning": LevelWarn,
}

func (l LogLevel) String() string {
	if info, ok := levels[l]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name such as "info" to a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if l, ok := levelAliases[strings.ToLower(name)]; ok {
		return l, nil
	}
	for l, info := range levels {
		if info.name == name {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) toSlogLevel() slog.Level {
	if info, ok := levels[l]; ok {
		return info.slog
	}
	return slog.LevelInfo
}
