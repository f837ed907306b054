package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // cyan
	INFO:  "\033[32m", // green
	WARN:  "\033[33m", // yellow
	ERROR: "\033[31m", // red
}

// ParseLevel converts a level name to a Level. Unknown names map to INFO.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides leveled, optionally colored logging.
type Logger struct {
	mu        sync.RWMutex
	level     Level
	colors    bool
	prefix    string
	stdLogger *log.Logger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init configures the default logger from the environment:
//   - LOG_LEVEL: DEBUG, INFO, WARN, ERROR (default INFO)
//   - LOG_COLOR: set to "false" or "0" to disable ANSI colors
func Init() {
	once.Do(func() {
		colors := true
		if v := os.Getenv("LOG_COLOR"); v == "false" || v == "0" {
			colors = false
		}
		defaultLogger = New(ParseLevel(os.Getenv("LOG_LEVEL")), os.Stdout, colors, "")
	})
}

// New creates a Logger writing to output.
func New(level Level, output io.Writer, colors bool, prefix string) *Logger {
	return &Logger{
		level:     level,
		colors:    colors,
		prefix:    prefix,
		stdLogger: log.New(output, "", log.LstdFlags),
	}
}

// SetLevel changes the minimum level that gets emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Enabled reports whether messages at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	name := levelNames[level]

	var out string
	switch {
	case l.colors && l.prefix != "":
		out = fmt.Sprintf("%s[%s]\033[0m [%s] %s", levelColors[level], name, l.prefix, msg)
	case l.colors:
		out = fmt.Sprintf("%s[%s]\033[0m %s", levelColors[level], name, msg)
	case l.prefix != "":
		out = fmt.Sprintf("[%s] [%s] %s", name, l.prefix, msg)
	default:
		out = fmt.Sprintf("[%s] %s", name, msg)
	}

	l.stdLogger.Output(2, out)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// WithPrefix returns a logger that tags every message with prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		level:     l.level,
		colors:    l.colors,
		prefix:    prefix,
		stdLogger: l.stdLogger,
	}
}

// Default returns the process-wide logger, initializing it if needed.
func Default() *Logger {
	if defaultLogger == nil {
		Init()
	}
	return defaultLogger
}

// Package-level convenience functions on the default logger.

func SetLevel(level Level)                     { Default().SetLevel(level) }
func IsDebugEnabled() bool                     { return Default().Enabled(DEBUG) }
func Debug(format string, args ...interface{}) { Default().log(DEBUG, format, args...) }
func Info(format string, args ...interface{})  { Default().log(INFO, format, args...) }
func Warn(format string, args ...interface{})  { Default().log(WARN, format, args...) }
func Error(format string, args ...interface{}) { Default().log(ERROR, format, args...) }
func WithPrefix(prefix string) *Logger         { return Default().WithPrefix(prefix) }
