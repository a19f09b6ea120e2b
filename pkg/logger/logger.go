package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(INFO))
}

// SetLevel changes the minimum level that gets written.
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

func GetLevel() Level {
	return Level(currentLevel.Load())
}

func (l Level) String() string {
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

func write(level Level, component, msg string, fields map[string]interface{}) {
	if level < GetLevel() {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(fmt.Sprintf(" [%-5s]", level))
	if component != "" {
		b.WriteString(fmt.Sprintf(" [%s]", component))
	}
	b.WriteString(" ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}

	fmt.Fprintln(os.Stderr, b.String())
}

// DebugC logs a debug message tagged with a component name.
func DebugC(component, msg string) { write(DEBUG, component, msg, nil) }

// InfoC logs an info message tagged with a component name.
func InfoC(component, msg string) { write(INFO, component, msg, nil) }

// WarnC logs a warning message tagged with a component name.
func WarnC(component, msg string) { write(WARN, component, msg, nil) }

// ErrorC logs an error message tagged with a component name.
func ErrorC(component, msg string) { write(ERROR, component, msg, nil) }

// DebugCF logs a debug message with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	write(DEBUG, component, msg, fields)
}

// InfoCF logs an info message with structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	write(INFO, component, msg, fields)
}

// WarnCF logs a warning message with structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	write(WARN, component, msg, fields)
}

// ErrorCF logs an error message with structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	write(ERROR, component, msg, fields)
}
