package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel orders entries by severity
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if l < DEBUG || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// LogFormat selects JSON lines or plain text output
type LogFormat int

const (
	JSONFormat LogFormat = iota
	TextFormat
)

// Fields carries structured key/value context for a log entry
type Fields map[string]interface{}

// LogEntry is the JSON shape of one line
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// sink is shared by a logger and every logger derived from it, so that
// concurrent workers never interleave partial lines
type sink struct {
	mu     sync.Mutex
	output io.Writer
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output.Write(line)
}

// Logger writes leveled, structured entries. Derived loggers share the
// parent's output but carry their own component and fields.
type Logger struct {
	mu        sync.RWMutex
	level     LogLevel
	format    LogFormat
	component string
	fields    Fields
	out       *sink
}

// Config is used by New. A nil Output means stdout.
type Config struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer
	Component string
}

func New(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:     config.Level,
		format:    config.Format,
		component: config.Component,
		out:       &sink{output: output},
	}
}

// NewDefault writes text at INFO and above to stdout
func NewDefault() *Logger {
	return New(Config{Level: INFO, Format: TextFormat})
}

// derive copies the logger settings, sharing the sink
func (l *Logger) derive(component string, fields Fields) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		level:     l.level,
		format:    l.format,
		component: component,
		fields:    fields,
		out:       l.out,
	}
}

// WithComponent returns a logger tagging entries with component
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.RLock()
	fields := l.fields
	l.mu.RUnlock()
	return l.derive(component, fields)
}

// With returns a logger that adds fields to every entry it writes
func (l *Logger) With(fields Fields) *Logger {
	l.mu.RLock()
	component := l.component
	merged := mergeFields(l.fields, fields)
	l.mu.RUnlock()
	return l.derive(component, merged)
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) SetFormat(format LogFormat) {
	l.mu.Lock()
	l.format = format
	l.mu.Unlock()
}

// Enabled reports whether entries at level would be written
func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func mergeFields(base, extra Fields) Fields {
	if len(base)+len(extra) == 0 {
		return nil
	}
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// log must be called exactly two frames below the user call site
func (l *Logger) log(level LogLevel, message string, fields Fields, err error) {
	l.mu.RLock()
	minLevel, format, component, base := l.level, l.format, l.component, l.fields
	l.mu.RUnlock()

	if level < minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Component: component,
		Fields:    mergeFields(base, fields),
	}
	if minLevel == DEBUG {
		entry.Caller = caller(3)
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.out.write(render(entry, format))

	if level == FATAL {
		os.Exit(1)
	}
}

func render(entry LogEntry, format LogFormat) []byte {
	if format == JSONFormat {
		if data, err := json.Marshal(entry); err == nil {
			return append(data, '\n')
		}
	}
	return []byte(formatText(entry))
}

// caller returns "pkg.Func (file.go:line)" for the frame skip levels up
func caller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}

	name := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		name = name[strings.LastIndex(name, "/")+1:]
	}
	file = file[strings.LastIndex(file, "/")+1:]
	return fmt.Sprintf("%s (%s:%d)", name, file, line)
}

// formatText renders one line with field keys sorted
func formatText(entry LogEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %-5s", entry.Timestamp, entry.Level)
	if entry.Component != "" {
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}
	b.WriteString(" " + entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%q", entry.Error)
	}
	if entry.Caller != "" {
		fmt.Fprintf(&b, " (%s)", entry.Caller)
	}
	b.WriteByte('\n')
	return b.String()
}

func firstFields(fields []Fields) Fields {
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}

func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(DEBUG, message, firstFields(fields), nil)
}

func (l *Logger) Info(message string, fields ...Fields) {
	l.log(INFO, message, firstFields(fields), nil)
}

func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(WARN, message, firstFields(fields), nil)
}

// Error records err alongside message
func (l *Logger) Error(message string, err error, fields ...Fields) {
	l.log(ERROR, message, firstFields(fields), err)
}

// Fatal logs and exits with status 1
func (l *Logger) Fatal(message string, err error, fields ...Fields) {
	l.log(FATAL, message, firstFields(fields), err)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil, nil)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, args...), nil, nil)
}
