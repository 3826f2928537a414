package monitor

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	sshtest "github.com/rileyhilliard/fleetwatch/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Healthy(t *testing.T) {
	dialer := healthyDialer()
	s := NewSession(testHost("web1"), dialer, nil)

	u := NewCollector(nil).Collect(context.Background(), s)
	require.NoError(t, u.Err)
	assert.True(t, u.OK())

	assert.InDelta(t, 12.5, u.CPUPercent, 1e-9)
	assert.InDelta(t, 50.0, u.Memory.UsagePercent, 1e-9)
	root, ok := u.Disks.Root()
	require.True(t, ok)
	assert.Equal(t, "20G", root.Used)
	assert.Equal(t, "50G", root.Total)

	assert.False(t, u.CollectedAt.IsZero())
	assert.GreaterOrEqual(t, u.Elapsed, time.Duration(0))

	assert.Equal(t, []string{CPUCommand, MemoryCommand, DiskCommand}, dialer.Last("web1").Commands())
}

func TestCollector_ElapsedUsesClock(t *testing.T) {
	s := NewSession(testHost("web1"), healthyDialer(), nil)
	c := NewCollector(nil)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	c.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 250 * time.Millisecond)
	}

	u := c.Collect(context.Background(), s)
	assert.Equal(t, base, u.CollectedAt)
	assert.Equal(t, 250*time.Millisecond, u.Elapsed)
}

func TestCollector_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(c *sshtest.MockClient)
		wantCode string
		wantMsg  string
		wantRuns int
	}{
		{
			name: "cpu missing binary reports stderr",
			setup: func(c *sshtest.MockClient) {
				c.SetCommandResponse(sshtest.MemoryProbe, sshtest.CommandResponse{Stdout: "8000000 4000000 4000000"})
			},
			wantCode: errors.ErrParse,
			wantMsg:  "Unexpected cpu output: empty output: stderr: sh: command not found",
			wantRuns: 1,
		},
		{
			name: "memory total zero",
			setup: func(c *sshtest.MockClient) {
				sshtest.WithProbes(c, sshtest.LinuxHost{CPU: "1.0", Memory: "0 0 0", Disk: ""})
			},
			wantCode: errors.ErrParse,
			wantMsg:  "total is zero",
			wantRuns: 2,
		},
		{
			name: "disk bad percent",
			setup: func(c *sshtest.MockClient) {
				sshtest.WithProbes(c, sshtest.LinuxHost{CPU: "1.0", Memory: "10 5 5", Disk: "/dev/sda1 1G 1G 0 full /"})
			},
			wantCode: errors.ErrParse,
			wantMsg:  "'full' is not a percentage",
			wantRuns: 3,
		},
		{
			name: "transport failure mid-collection",
			setup: func(c *sshtest.MockClient) {
				sshtest.WithProbes(c, sshtest.HealthyHost)
				c.SetCommandResponse(sshtest.DiskProbe, sshtest.CommandResponse{Error: stderrors.New("EOF")})
			},
			wantCode: errors.ErrCommand,
			wantMsg:  "EOF",
			wantRuns: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := sshtest.NewMockDialer(func(_ config.Host, c *sshtest.MockClient) { tt.setup(c) })
			log := logger.NewBufferLogger()
			s := NewSession(testHost("web1"), dialer, log)

			u := NewCollector(log).Collect(context.Background(), s)
			require.Error(t, u.Err)
			assert.False(t, u.OK())
			assert.True(t, errors.IsCode(u.Err, tt.wantCode), "got %v", u.Err)
			assert.Contains(t, errors.Summarize(u.Err), tt.wantMsg)
			assert.Nil(t, u.Disks)
			assert.Zero(t, u.CPUPercent)

			var fwErr *errors.Error
			require.ErrorAs(t, u.Err, &fwErr)
			assert.Equal(t, "web1", fwErr.Host)

			assert.Len(t, dialer.Last("web1").Commands(), tt.wantRuns, "collection stops at the first failure")
			assert.Equal(t, 1, log.Count("warn", "collect web1"))
		})
	}
}

func TestCollector_ConnectFailure(t *testing.T) {
	dialer := healthyDialer()
	dialer.Unreachable("web1")
	s := NewSession(testHost("web1"), dialer, nil)

	u := NewCollector(nil).Collect(context.Background(), s)
	require.Error(t, u.Err)
	assert.True(t, errors.IsCode(u.Err, errors.ErrConnect))
}
