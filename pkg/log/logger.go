// Structured logging for gcode-slowdown
//
// Provides a small logging system with support for:
// - Log levels (DEBUG, INFO, WARN, ERROR)
// - Structured fields (key-value pairs)
// - Text and JSON output
// - ANSI colors when writing to a terminal
// - Per-component loggers with prefixes
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// DEBUG level for per-block tracing
	DEBUG LogLevel = iota

	// INFO level for per-file progress
	INFO

	// WARN level for non-fatal G-code diagnostics
	WARN

	// ERROR level for files that could not be processed
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
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

// OutputFormat specifies the output format for log messages
type OutputFormat int

const (
	// FormatText outputs human-readable text format
	FormatText OutputFormat = iota
	// FormatJSON outputs one JSON object per line
	FormatJSON
)

// Fields is a map of structured logging fields
type Fields map[string]interface{}

// sharedState is the mutable part of a logger family. Loggers derived with
// WithPrefix share it so that SetWriter/SetLevel on the root apply everywhere.
type sharedState struct {
	mu         sync.Mutex
	writer     io.Writer
	level      LogLevel
	timeFormat string
	colorize   bool
	outFormat  OutputFormat
}

// Logger writes leveled messages under a component prefix
type Logger struct {
	prefix string
	state  *sharedState
}

// Entry represents a single log entry with fields
type Entry struct {
	logger *Logger
	fields Fields
}

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger

	ansiColors = map[LogLevel]string{
		DEBUG: "\x1b[36m", // Cyan
		INFO:  "\x1b[32m", // Green
		WARN:  "\x1b[33m", // Yellow
		ERROR: "\x1b[31m", // Red
	}
	ansiReset = "\x1b[0m"
)

// New creates a new logger writing to stderr with the given prefix
func New(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		state: &sharedState{
			writer:     os.Stderr,
			level:      INFO,
			timeFormat: "2006-01-02 15:04:05.000",
			colorize:   os.Getenv("NO_COLOR") == "" && IsTerminal(os.Stderr),
			outFormat:  FormatText,
		},
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	return l.state.level
}

// SetWriter sets the output writer. Colors are kept only if w is a terminal.
func (l *Logger) SetWriter(w io.Writer) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.writer = w
	if l.state.colorize && !IsTerminal(w) {
		l.state.colorize = false
	}
}

// SetTimeFormat sets the time format string
func (l *Logger) SetTimeFormat(format string) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.timeFormat = format
}

// SetColorize enables or disables colorized output
func (l *Logger) SetColorize(enable bool) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.colorize = enable
}

// SetFormat sets the output format (FormatText or FormatJSON)
func (l *Logger) SetFormat(format OutputFormat) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.outFormat = format
}

// Prefix returns the component prefix
func (l *Logger) Prefix() string {
	return l.prefix
}

// WithPrefix returns a logger for another component sharing this logger's output
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{prefix: prefix, state: l.state}
}

// WithField returns an Entry with the given field
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

// WithFields returns an Entry with the given fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithError returns an Entry with the error field set
func (l *Logger) WithError(err error) *Entry {
	return l.WithField("error", err.Error())
}

func (l *Logger) formatText(level LogLevel, msg string, fields Fields) string {
	var sb strings.Builder

	sb.WriteString(time.Now().Format(l.state.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")

	if l.state.colorize {
		sb.WriteString(ansiColors[level])
	}
	sb.WriteString(l.prefix)
	if l.state.colorize {
		sb.WriteString(ansiReset)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		sb.WriteString(" {")
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(fmt.Sprintf("%v", fields[k]))
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return sb.String()
}

// JSONLogEntry is the structure for JSON formatted log entries
type JSONLogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) formatJSON(level LogLevel, msg string, fields Fields) string {
	entry := JSONLogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Logger:    l.prefix,
		Message:   msg,
	}
	if len(fields) > 0 {
		entry.Fields = fields
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal log entry: %v"}`+"\n", err)
	}
	return string(data) + "\n"
}

// logInternal is the core logging function
func (l *Logger) logInternal(level LogLevel, msg string, args []interface{}, fields Fields) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if level < l.state.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var output string
	if l.state.outFormat == FormatJSON {
		output = l.formatJSON(level, msg, fields)
	} else {
		output = l.formatText(level, msg, fields)
	}
	fmt.Fprint(l.state.writer, output)
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.logInternal(DEBUG, msg, args, nil)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...interface{}) {
	l.logInternal(INFO, msg, args, nil)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.logInternal(WARN, msg, args, nil)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...interface{}) {
	l.logInternal(ERROR, msg, args, nil)
}

// WithField adds a field to the entry
func (e *Entry) WithField(key string, value interface{}) *Entry {
	newFields := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		newFields[k] = v
	}
	newFields[key] = value
	return &Entry{logger: e.logger, fields: newFields}
}

// WithError adds an error field to the entry
func (e *Entry) WithError(err error) *Entry {
	return e.WithField("error", err.Error())
}

// Debug logs at DEBUG level with fields
func (e *Entry) Debug(msg string, args ...interface{}) {
	e.logger.logInternal(DEBUG, msg, args, e.fields)
}

// Info logs at INFO level with fields
func (e *Entry) Info(msg string, args ...interface{}) {
	e.logger.logInternal(INFO, msg, args, e.fields)
}

// Warn logs at WARN level with fields
func (e *Entry) Warn(msg string, args ...interface{}) {
	e.logger.logInternal(WARN, msg, args, e.fields)
}

// Error logs at ERROR level with fields
func (e *Entry) Error(msg string, args ...interface{}) {
	e.logger.logInternal(ERROR, msg, args, e.fields)
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// GetLogger returns a component logger derived from the default logger
func GetLogger(prefix string) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("slowdown")
		ConfigureFromEnv(defaultLogger)
	}
	return defaultLogger.WithPrefix(prefix)
}

// Discard returns a logger that drops everything, for tests and library callers
func Discard() *Logger {
	l := New("discard")
	l.SetWriter(io.Discard)
	l.SetLevel(ERROR + 1)
	return l
}

// ConfigureFromEnv applies environment-based configuration to the logger.
// Environment variables:
//   - SLOWDOWN_LOG_LEVEL: DEBUG, INFO, WARN, ERROR
//   - SLOWDOWN_LOG_FORMAT: text, json
//   - NO_COLOR: any non-empty value disables colors
func ConfigureFromEnv(l *Logger) {
	if levelStr := os.Getenv("SLOWDOWN_LOG_LEVEL"); levelStr != "" {
		l.SetLevel(ParseLevel(levelStr))
	}
	if formatStr := os.Getenv("SLOWDOWN_LOG_FORMAT"); formatStr != "" {
		switch strings.ToLower(formatStr) {
		case "json":
			l.SetFormat(FormatJSON)
		case "text":
			l.SetFormat(FormatText)
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		l.SetColorize(false)
	}
}
