// Package logging provides structured logging with SRP secret redaction.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

// Log severity levels.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var levelRank = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// LogFormat represents the output format for log entries.
type LogFormat string

// Log output formats.
const (
	// FormatJSON outputs one JSON object per line (default).
	FormatJSON LogFormat = "json"
	// FormatHuman outputs "[time] level: message key=value" lines.
	FormatHuman LogFormat = "human"
)

// ParseLevel converts a configuration string into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", s)
	}
	return level, nil
}

// ParseFormat converts a configuration string into a LogFormat.
func ParseFormat(s string) (LogFormat, error) {
	switch format := LogFormat(strings.ToLower(strings.TrimSpace(s))); format {
	case FormatJSON, FormatHuman:
		return format, nil
	default:
		return "", fmt.Errorf("invalid log format %q (must be json or human)", s)
	}
}

// output is shared between a Logger and the children created by With.
type output struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// Logger writes leveled entries with redacted fields.
// Error entries go to stderr, everything else to stdout.
type Logger struct {
	level    LogLevel
	format   LogFormat
	redactor *Redactor
	out      *output
	fields   map[string]any
	now      func() time.Time
}

// logEntry represents a single log entry in JSON format.
type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a new Logger instance.
func New(level LogLevel, format LogFormat) *Logger {
	return &Logger{
		level:    level,
		format:   format,
		redactor: NewRedactor(),
		out:      &output{stdout: os.Stdout, stderr: os.Stderr},
		now:      time.Now,
	}
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	l := New(LevelError, FormatJSON)
	l.SetOutput(io.Discard, io.Discard)
	return l
}

// SetOutput sets custom output writers, mostly for tests.
// Children created with With share the change.
func (l *Logger) SetOutput(stdout, stderr io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.stdout = stdout
	l.out.stderr = stderr
}

// Redactor returns the redactor applied to every entry.
func (l *Logger) Redactor() *Redactor {
	return l.redactor
}

// With returns a child logger that adds fields to every entry.
// Fields passed at the call site override the child's fields.
func (l *Logger) With(fields map[string]any) *Logger {
	child := *l
	child.fields = mergeFields(l.fields, fields)
	return &child
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, fields)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(LevelWarn, msg, fields)
}

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	l.log(LevelError, msg, fields)
}

func (l *Logger) log(level LogLevel, msg string, fields []map[string]any) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	entry := logEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   msg,
		Fields:    l.redactor.RedactFields(mergeFields(append([]map[string]any{l.fields}, fields...)...)),
	}

	var line string
	if l.format == FormatHuman {
		line = formatHuman(entry)
	} else {
		line = formatJSON(entry)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	w := l.out.stdout
	if level == LevelError {
		w = l.out.stderr
	}
	_, _ = io.WriteString(w, line)
}

func formatJSON(entry logEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"timestamp":%q,"level":"error","message":"failed to marshal log entry: %s"}`+"\n",
			entry.Timestamp, err.Error())
	}
	return string(data) + "\n"
}

// formatHuman renders fields sorted by key so lines are stable.
func formatHuman(entry logEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", entry.Timestamp, entry.Level, entry.Message)

	for _, k := range slices.Sorted(maps.Keys(entry.Fields)) {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Fields[k])
	}

	sb.WriteString("\n")
	return sb.String()
}

// mergeFields merges field maps left to right; nil maps are skipped.
func mergeFields(fields ...map[string]any) map[string]any {
	var merged map[string]any
	for _, f := range fields {
		if len(f) == 0 {
			continue
		}
		if merged == nil {
			merged = make(map[string]any, len(f))
		}
		maps.Copy(merged, f)
	}
	return merged
}
