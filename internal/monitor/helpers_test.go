package monitor

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	sshtest "github.com/rileyhilliard/fleetwatch/pkg/sshutil/testing"
)

func testHost(name string) config.Host {
	return config.Host{
		Name:           name,
		Hostname:       name + ".internal",
		Port:           22,
		Username:       "ops",
		Password:       "pw",
		Timeout:        time.Second,
		CommandTimeout: 2 * time.Second,
	}
}

func testHosts(n int) []config.Host {
	hosts := make([]config.Host, n)
	for i := range hosts {
		hosts[i] = testHost(fmt.Sprintf("host%02d", i))
	}
	return hosts
}

// healthyDialer answers every probe like sshtest.HealthyHost.
func healthyDialer() *sshtest.MockDialer {
	return sshtest.NewMockDialer(func(_ config.Host, c *sshtest.MockClient) {
		sshtest.WithProbes(c, sshtest.HealthyHost)
	})
}
