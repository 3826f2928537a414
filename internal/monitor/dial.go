package monitor

import (
	"context"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/pkg/sshutil"
)

// SSHDialer dials hosts over SSH.
type SSHDialer struct {
	// KnownHostsPath overrides ~/.ssh/known_hosts for strict host key checking.
	KnownHostsPath string
}

// Dial implements Dialer.
func (d SSHDialer) Dial(ctx context.Context, host config.Host) (sshutil.Conn, error) {
	client, err := sshutil.Dial(ctx, Target(host, d.KnownHostsPath))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Target converts a resolved host into an sshutil dial target.
func Target(host config.Host, knownHostsPath string) sshutil.Target {
	return sshutil.Target{
		Name:                  host.Name,
		Hostname:              host.Hostname,
		Port:                  host.Port,
		User:                  host.Username,
		Password:              host.Password,
		KeyFile:               host.KeyFile,
		Timeout:               host.Timeout,
		StrictHostKeyChecking: host.StrictHostKeyChecking,
		KnownHostsPath:        knownHostsPath,
	}
}
