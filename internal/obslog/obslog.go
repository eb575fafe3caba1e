// Package obslog is the resampler's structured logger: leveled,
// field-chaining, caller-annotated, with a package-level global and
// convenience functions.
package obslog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"
)

// Level is the severity of a log message. Off suppresses all output; it
// is the zero Level and what ParseLevel("off") returns, matching the
// resampler's CRES_LOG_LEVEL environment variable contract
// (off|error|warn|info|debug|trace).
type Level int

const (
	Off Level = iota
	Error
	Warn
	Info
	Debug
	Trace
)

func (l Level) String() string {
	switch l {
	case Off:
		return "OFF"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	case Trace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses the CRES_LOG_LEVEL environment variable's values.
func ParseLevel(level string) Level {
	switch level {
	case "off", "OFF":
		return Off
	case "error", "ERROR":
		return Error
	case "warn", "WARN", "warning", "WARNING":
		return Warn
	case "info", "INFO":
		return Info
	case "debug", "DEBUG":
		return Debug
	case "trace", "TRACE":
		return Trace
	default:
		return Info
	}
}

// Logger is a leveled, field-chaining logger over an io.Writer.
type Logger struct {
	level  Level
	output io.Writer
	fields map[string]interface{}
}

// New creates a logger at the given level.
func New(level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{level: level, output: output, fields: make(map[string]interface{})}
}

// NewDefault creates a logger at Info level writing to stderr.
func NewDefault() *Logger {
	return New(Info, os.Stderr)
}

// WithFields returns a new logger carrying additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, output: l.output, fields: merged}
}

// WithField is shorthand for WithFields with a single key/value.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *Logger) log(level Level, msg string, extra ...map[string]interface{}) {
	if l.level == Off || level > l.level {
		return
	}

	all := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for _, fields := range extra {
		for k, v := range fields {
			all[k] = v
		}
	}

	if _, file, line, ok := runtime.Caller(2); ok {
		all["file"] = fmt.Sprintf("%s:%d", file, line)
	}

	entry := fmt.Sprintf("[%s] %s: %s", time.Now().Format(time.RFC3339), level.String(), msg)
	for k, v := range all {
		entry += fmt.Sprintf(" %s=%v", k, v)
	}
	entry += "\n"
	l.output.Write([]byte(entry))
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.log(Error, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.log(Warn, msg, fields...) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.log(Info, msg, fields...) }
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.log(Debug, msg, fields...) }
func (l *Logger) Trace(msg string, fields ...map[string]interface{}) { l.log(Trace, msg, fields...) }

var global = NewDefault()

// SetGlobal replaces the package-level default logger.
func SetGlobal(l *Logger) { global = l }

// Global returns the package-level default logger.
func Global() *Logger { return global }

func LogError(msg string, fields ...map[string]interface{}) { global.Error(msg, fields...) }
func LogWarn(msg string, fields ...map[string]interface{})  { global.Warn(msg, fields...) }
func LogInfo(msg string, fields ...map[string]interface{})  { global.Info(msg, fields...) }
func LogDebug(msg string, fields ...map[string]interface{}) { global.Debug(msg, fields...) }
