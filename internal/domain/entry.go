package domain

import (
	"strings"
	"time"
)

// LogLevel is the normalized severity shared by every format
type LogLevel string

const (
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarn    LogLevel = "Warn"
	LogLevelError   LogLevel = "Error"
	LogLevelUnknown LogLevel = "Unknown"
)

// Priority returns the priority of a log level (higher = more severe)
func (l LogLevel) Priority() int {
	switch l {
	case LogLevelTrace:
		return 0
	case LogLevelDebug:
		return 1
	case LogLevelInfo:
		return 2
	case LogLevelWarn:
		return 3
	case LogLevelError:
		return 4
	default:
		return -1
	}
}

// Short returns the three letter tag used in compact views
func (l LogLevel) Short() string {
	switch l {
	case LogLevelTrace:
		return "TRC"
	case LogLevelDebug:
		return "DBG"
	case LogLevelInfo:
		return "INF"
	case LogLevelWarn:
		return "WRN"
	case LogLevelError:
		return "ERR"
	default:
		return "???"
	}
}

// ParseLogLevel converts a level name to LogLevel. Unrecognized names map to Unknown.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LogLevelTrace
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelUnknown
	}
}

// Entry is one logical log record: a primary line plus folded continuation lines
type Entry struct {
	Sequence  uint64            `json:"seq"`
	SourceID  string            `json:"source"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
	TimeText  string            `json:"time_text,omitempty"` // timestamp as written in the line
	Level     LogLevel          `json:"level"`
	Raw       string            `json:"raw"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`

	Continuations []string `json:"continuations,omitempty"`
}

// IsError reports whether the entry counts toward error-only views
func (e *Entry) IsError() bool {
	return e.Level == LogLevelError
}

// Text returns the raw line followed by its continuation lines, newline separated
func (e *Entry) Text() string {
	if len(e.Continuations) == 0 {
		return e.Raw
	}
	var b strings.Builder
	n := len(e.Raw)
	for _, c := range e.Continuations {
		n += len(c) + 1
	}
	b.Grow(n)
	b.WriteString(e.Raw)
	for _, c := range e.Continuations {
		b.WriteByte('\n')
		b.WriteString(c)
	}
	return b.String()
}
