// Package logger provides the logging interface used by fleetwatch components.
// Packages log debug, info, warn, and error records without being coupled to
// the zap-backed file sink the CLI wires in.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DebugEnv forces debug level on the file logger when set to any value.
const DebugEnv = "FLEETWATCH_DEBUG"

// FileLogger writes JSON records to a file through zap.
type FileLogger struct {
	sugar *zap.SugaredLogger
	close func()
}

// NewFile opens path for appending and returns a logger writing JSON records to it.
// level is one of debug, info, warn, error; anything else means info.
func NewFile(path, level string) (*FileLogger, error) {
	sink, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		sink,
		ParseLevel(level),
	)

	return &FileLogger{
		sugar: zap.New(core).Sugar(),
		close: closeSink,
	}, nil
}

// ParseLevel maps a config level name to a zap level. DebugEnv wins over the name.
func ParseLevel(level string) zapcore.Level {
	if os.Getenv(DebugEnv) != "" {
		return zapcore.DebugLevel
	}
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *FileLogger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *FileLogger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *FileLogger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *FileLogger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Close flushes buffered records and closes the file.
func (l *FileLogger) Close() error {
	err := l.sugar.Sync()
	l.close()
	return err
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// It is safe for use from concurrent pool workers.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args) }

func (l *BufferLogger) add(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Messages returns a copy of everything captured so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	return l.Count(level, "") > 0
}

// Count returns how many messages at level contain substr. An empty level matches any level.
func (l *BufferLogger) Count(level, substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if (level == "" || m.Level == level) && strings.Contains(m.Message, substr) {
			n++
		}
	}
	return n
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}
