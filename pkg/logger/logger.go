package logger

import (
	"fmt"
	"strings"
)

// Level is the minimum severity a Logger writes
type Level int8

const (
	Disabled Level = iota - 1
	TraceLevel
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	PanicLevel
	NoLevel
)

var levelNames = map[string]Level{
	"disabled": Disabled,
	"trace":    TraceLevel,
	"debug":    DebugLevel,
	"info":     InfoLevel,
	"warn":     WarnLevel,
	"warning":  WarnLevel,
	"error":    ErrorLevel,
	"fatal":    FatalLevel,
	"panic":    PanicLevel,
}

// ParseLevel maps a configuration value such as "info" to a Level
func ParseLevel(value string) (Level, error) {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(value))]; ok {
		return level, nil
	}
	return NoLevel, fmt.Errorf("unknown log level %q", value)
}

// Logger is the structured logger used by feeds, strategies and commands
type Logger interface {
	// Contextual loggers sharing the parent's output
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
	WithError(err error) Logger

	Print(args ...any)
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any) // exits the program
	Panic(args ...any) // panics after writing

	Printf(format string, args ...any)
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Panicf(format string, args ...any)

	SetLevel(level Level)
	GetLevel() Level
}
