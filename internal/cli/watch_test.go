package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCommand_Once(t *testing.T) {
	dialer := healthyDialer()
	withDialer(t, dialer)
	path := writeConfig(t, "web01", "web02")

	var out bytes.Buffer
	err := watchCommand(context.Background(), &out, watchOptions{
		Options: Options{ConfigPath: path},
		Once:    true,
	})
	require.NoError(t, err)

	frame := out.String()
	assert.Contains(t, frame, "Last Update: ")
	assert.Contains(t, frame, "web01         12.5%")
	assert.Contains(t, frame, "web02         12.5%")
	assert.Less(t, strings.Index(frame, "web01"), strings.Index(frame, "web02"))
	assert.NotContains(t, frame, "\033[2J")

	for _, c := range dialer.All() {
		assert.Equal(t, 1, c.CloseCount())
	}
}

func TestWatchCommand_OnceWithFailedHost(t *testing.T) {
	dialer := healthyDialer()
	dialer.Unreachable("web02")
	withDialer(t, dialer)
	path := writeConfig(t, "web01", "web02")

	var out bytes.Buffer
	err := watchCommand(context.Background(), &out, watchOptions{
		Options: Options{ConfigPath: path},
		Once:    true,
	})

	code, ok := errors.GetExitCode(err)
	require.True(t, ok, "want an exit error, got %v", err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "web02            ?%")
	assert.Contains(t, out.String(), "connection refused")
}

func TestWatchCommand_HostsFilter(t *testing.T) {
	dialer := healthyDialer()
	withDialer(t, dialer)
	path := writeConfig(t, "web01", "web02", "web03")

	var out bytes.Buffer
	err := watchCommand(context.Background(), &out, watchOptions{
		Options: Options{ConfigPath: path, Hosts: "web03"},
		Once:    true,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "web03")
	assert.NotContains(t, out.String(), "web01")
	assert.Equal(t, 0, dialer.Dials("web01"))
}

func TestWatchCommand_StopsOnCancel(t *testing.T) {
	dialer := healthyDialer()
	withDialer(t, dialer)
	path := writeConfig(t, "web01", "web02")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := watchCommand(ctx, &out, watchOptions{
		Options:  Options{ConfigPath: path},
		Interval: time.Minute,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "web01")
	assert.Contains(t, out.String(), "Monitoring stopped")
	require.Len(t, dialer.All(), 2)
	for _, c := range dialer.All() {
		assert.Equal(t, 1, c.CloseCount())
	}
}

func TestWatchCommand_IntervalBelowMinimum(t *testing.T) {
	withDialer(t, healthyDialer())
	path := writeConfig(t, "web01")

	err := watchCommand(context.Background(), &bytes.Buffer{}, watchOptions{
		Options:  Options{ConfigPath: path},
		Interval: config.MinInterval / 2,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "below the")
}

func TestWatchCommand_ConfigError(t *testing.T) {
	dialer := healthyDialer()
	withDialer(t, dialer)

	err := watchCommand(context.Background(), &bytes.Buffer{}, watchOptions{
		Options: Options{ConfigPath: writeConfig(t)},
		Once:    true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Empty(t, dialer.All())
}
