package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{name: "debug", level: "debug", want: zapcore.DebugLevel},
		{name: "warn", level: "warn", want: zapcore.WarnLevel},
		{name: "warning alias", level: "WARNING", want: zapcore.WarnLevel},
		{name: "error", level: "error", want: zapcore.ErrorLevel},
		{name: "empty defaults to info", level: "", want: zapcore.InfoLevel},
		{name: "unknown defaults to info", level: "loud", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DebugEnv, "")
			os.Unsetenv(DebugEnv)
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestParseLevel_DebugEnvWins(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("error"))
}

func TestFileLogger_WritesJSONRecords(t *testing.T) {
	t.Setenv(DebugEnv, "")
	os.Unsetenv(DebugEnv)

	path := filepath.Join(t.TempDir(), "fleetwatch.log")
	l, err := NewFile(path, "info")
	require.NoError(t, err)

	l.Debug("hidden %d", 1)
	l.Info("connected to %s", "web1")
	l.Warn("connect to %s failed", "db1")
	l.Error("collect %s: %s", "db1", "boom")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "debug record should be filtered at info level")

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "connected to web1", first["msg"])
	assert.Contains(t, first, "time")

	assert.Contains(t, lines[1], `"level":"warn"`)
	assert.Contains(t, lines[2], "collect db1: boom")
}

func TestNewFile_BadPath(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing", "dir", "x.log"), "info")
	assert.Error(t, err)
}

func TestNoopLogger(t *testing.T) {
	l := Noop()
	assert.NotPanics(t, func() {
		l.Debug("debug")
		l.Info("info")
		l.Warn("warn")
		l.Error("error")
	})
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	msgs := l.Messages()
	require.Len(t, msgs, 4)

	assert.Equal(t, LogMessage{Level: "debug", Message: "debug msg"}, msgs[0])
	assert.Equal(t, LogMessage{Level: "info", Message: "info msg"}, msgs[1])
	assert.Equal(t, LogMessage{Level: "warn", Message: "warn msg"}, msgs[2])
	assert.Equal(t, LogMessage{Level: "error", Message: "error msg"}, msgs[3])
}

func TestBufferLogger_HasLevelAndCount(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("error"))

	l.Info("connected to web1")
	l.Info("connected to web2")
	l.Error("collect web2 failed")

	assert.True(t, l.HasLevel("error"))
	assert.Equal(t, 2, l.Count("info", "connected"))
	assert.Equal(t, 1, l.Count("", "web2 failed"))
	assert.Equal(t, 3, l.Count("", ""))
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("test1")
	l.Info("test2")
	require.Len(t, l.Messages(), 2)

	l.Clear()
	assert.Empty(t, l.Messages())
}

func TestBufferLogger_Concurrent(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Info("worker %d", i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Messages(), 20)
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = Noop()
	var _ Logger = NewBufferLogger()
	var _ Logger = &FileLogger{}
}
