package logger

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// Log levels
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level    = LevelInfo
	mu       sync.RWMutex
	initOnce sync.Once
)

// Init initializes the klog backend. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		fs := flag.NewFlagSet("klog", flag.ContinueOnError)
		klog.InitFlags(fs)
		// Filtering happens here, klog only formats and writes.
		_ = fs.Set("v", "0")
		_ = fs.Set("one_output", "true")
	})
}

// SetOutput redirects all log output to w
func SetOutput(w io.Writer) {
	Init()

	mu.Lock()
	defer mu.Unlock()

	klog.LogToStderr(false)
	klog.SetOutput(w)
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	mu.Lock()
	defer mu.Unlock()

	level = ParseLevel(levelStr)
}

// ParseLevel maps a level name to its constant, defaulting to info.
func ParseLevel(levelStr string) int {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Enabled reports whether messages at lvl are currently emitted.
func Enabled(lvl int) bool {
	mu.RLock()
	defer mu.RUnlock()
	return level <= lvl
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	if Enabled(LevelDebug) {
		klog.InfoDepth(1, "[DEBUG] "+fmt.Sprintf(format, v...))
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	if Enabled(LevelInfo) {
		klog.InfoDepth(1, fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	if Enabled(LevelWarn) {
		klog.WarningDepth(1, fmt.Sprintf(format, v...))
	}
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	if Enabled(LevelError) {
		klog.ErrorDepth(1, fmt.Sprintf(format, v...))
	}
}

// Flush writes any buffered log entries.
func Flush() {
	klog.Flush()
}
