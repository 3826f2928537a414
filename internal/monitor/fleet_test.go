package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	sshtest "github.com/rileyhilliard/fleetwatch/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleet_PollOncePreservesOrderAndSize(t *testing.T) {
	hosts := testHosts(7)
	// Earlier hosts answer slower so completion order is reversed.
	dialer := sshtest.NewMockDialer(func(h config.Host, c *sshtest.MockClient) {
		sshtest.WithProbes(c, sshtest.HealthyHost)
		for i, candidate := range hosts {
			if candidate.Name == h.Name {
				c.SetCommandResponse(sshtest.CPUProbe, sshtest.CommandResponse{
					Stdout: "1.0",
					Delay:  time.Duration(len(hosts)-i) * 5 * time.Millisecond,
				})
			}
		}
	})

	fleet := NewFleet(hosts, dialer, 4, nil)
	defer fleet.Close()

	snap := fleet.PollOnce(context.Background())

	require.Len(t, snap.Hosts, len(hosts))
	for i, h := range hosts {
		assert.Equal(t, h.Name, snap.Hosts[i].Name)
		assert.NoError(t, snap.Hosts[i].Utilization.Err)
	}
	assert.False(t, snap.Taken.IsZero())
	assert.Equal(t, 0, snap.Failed())
	assert.Equal(t, []string{"host00", "host01", "host02", "host03", "host04", "host05", "host06"}, fleet.Hosts())
}

func TestFleet_NeverConnectableHost(t *testing.T) {
	hosts := testHosts(3)
	dialer := healthyDialer()
	dialer.Unreachable("host01")
	log := logger.NewBufferLogger()

	fleet := NewFleet(hosts, dialer, 2, log)
	defer fleet.Close()

	for cycle := 1; cycle <= 3; cycle++ {
		snap := fleet.PollOnce(context.Background())

		require.Len(t, snap.Hosts, 3)
		assert.NoError(t, snap.Hosts[0].Utilization.Err)
		assert.NoError(t, snap.Hosts[2].Utilization.Err)

		bad := snap.Hosts[1]
		assert.Equal(t, "host01", bad.Name)
		require.Error(t, bad.Utilization.Err)
		assert.True(t, errors.IsCode(bad.Utilization.Err, errors.ErrConnect))
		assert.Equal(t, 1, snap.Failed())

		assert.Equal(t, cycle, dialer.Dials("host01"), "retried every cycle")
	}

	assert.Equal(t, 1, dialer.Dials("host00"), "healthy hosts keep their connection")
	assert.Equal(t, 3, log.Count("warn", "collect host01"))
}

func TestFleet_ConcurrencyBound(t *testing.T) {
	const workers = 4
	hosts := testHosts(13)
	gauge := &sshtest.Gauge{}
	dialer := sshtest.NewMockDialer(func(_ config.Host, c *sshtest.MockClient) {
		sshtest.WithProbes(c, sshtest.HealthyHost)
		c.SetCommandResponse(sshtest.CPUProbe, sshtest.CommandResponse{Stdout: "5.0", Delay: 15 * time.Millisecond})
	})
	dialer.UseGauge(gauge)

	fleet := NewFleet(hosts, dialer, workers, nil)
	defer fleet.Close()
	assert.Equal(t, workers, fleet.Workers())

	fleet.PollOnce(context.Background())
	fleet.PollOnce(context.Background())

	assert.LessOrEqual(t, gauge.Max(), workers)
	assert.Greater(t, gauge.Max(), 1, "work actually ran in parallel")
	assert.Equal(t, 2*3*len(hosts), gauge.Total())
}

func TestFleet_TaskPanicBecomesHostError(t *testing.T) {
	hosts := testHosts(3)
	dialer := sshtest.NewMockDialer(func(h config.Host, c *sshtest.MockClient) {
		sshtest.WithProbes(c, sshtest.HealthyHost)
		if h.Name == "host02" {
			c.PanicOn(`^free`)
		}
	})

	fleet := NewFleet(hosts, dialer, 2, nil)
	defer fleet.Close()

	snap := fleet.PollOnce(context.Background())
	assert.NoError(t, snap.Hosts[0].Utilization.Err)
	assert.NoError(t, snap.Hosts[1].Utilization.Err)

	var panicErr *PanicError
	require.ErrorAs(t, snap.Hosts[2].Utilization.Err, &panicErr)
	assert.Equal(t, "host02", snap.Hosts[2].Name)

	// The pool and the session lock both survive.
	snap = fleet.PollOnce(context.Background())
	assert.Len(t, snap.Hosts, 3)
	assert.NoError(t, snap.Hosts[0].Utilization.Err)
}

func TestFleet_ReconnectsDroppedHost(t *testing.T) {
	dialer := healthyDialer()
	fleet := NewFleet(testHosts(2), dialer, 2, nil)
	defer fleet.Close()

	fleet.PollOnce(context.Background())
	dialer.Last("host00").Drop()

	snap := fleet.PollOnce(context.Background())
	assert.NoError(t, snap.Hosts[0].Utilization.Err)
	assert.Equal(t, 2, dialer.Dials("host00"))
	assert.Equal(t, 1, dialer.Dials("host01"))
}

func TestFleet_ConnectAll(t *testing.T) {
	hosts := testHosts(4)
	dialer := healthyDialer()
	dialer.Unreachable("host02")
	log := logger.NewBufferLogger()

	fleet := NewFleet(hosts, dialer, 3, log)
	defer fleet.Close()

	results := fleet.ConnectAll(context.Background())
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, hosts[i].Name, r.Name)
		if r.Name == "host02" {
			assert.True(t, errors.IsCode(r.Err, errors.ErrConnect))
		} else {
			assert.NoError(t, r.Err)
			assert.True(t, fleet.Session(i).Connected())
		}
	}

	assert.Equal(t, 1, log.Count("warn", "connect to host02"))
	assert.Equal(t, 1, log.Count("info", "connected to 3 of 4 hosts"))

	// Polling reuses what ConnectAll opened.
	fleet.PollOnce(context.Background())
	assert.Equal(t, 1, dialer.Dials("host00"))
}

func TestFleet_DisconnectAllAndClose(t *testing.T) {
	dialer := healthyDialer()
	fleet := NewFleet(testHosts(3), dialer, 2, nil)

	fleet.ConnectAll(context.Background())
	fleet.DisconnectAll()
	for _, c := range dialer.All() {
		assert.Equal(t, 1, c.CloseCount())
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, Disconnected, fleet.Session(i).State())
	}

	fleet.Close()
	fleet.Close()
	for _, c := range dialer.All() {
		assert.Equal(t, 1, c.CloseCount(), "already-closed sessions are not closed again")
	}

	snap := fleet.PollOnce(context.Background())
	require.Len(t, snap.Hosts, 3)
	for _, h := range snap.Hosts {
		assert.ErrorIs(t, h.Utilization.Err, ErrPoolClosed)
	}
}

func TestFleet_PollIgnoresCancellationOfInFlightWork(t *testing.T) {
	dialer := sshtest.NewMockDialer(func(_ config.Host, c *sshtest.MockClient) {
		sshtest.WithProbes(c, sshtest.HealthyHost)
		c.SetCommandResponse(sshtest.CPUProbe, sshtest.CommandResponse{Stdout: "2.0", Delay: 30 * time.Millisecond})
	})
	fleet := NewFleet(testHosts(2), dialer, 2, nil)
	defer fleet.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(5*time.Millisecond, cancel)

	snap := fleet.PollOnce(ctx)
	for _, h := range snap.Hosts {
		assert.NoError(t, h.Utilization.Err, "tasks finish naturally after cancellation")
	}
}
