package cli

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/rileyhilliard/fleetwatch/pkg/sshutil"
)

// Options are the settings shared by every command that talks to the fleet.
type Options struct {
	ConfigPath string
	Workers    int
	LogFile    string
	Hosts      string
}

// newDialer builds the transport for a loaded config. Tests swap it for a fake.
var newDialer = func(cfg *config.Config) monitor.Dialer {
	return monitor.SSHDialer{}
}

// loadConfig finds and loads the config, then applies flag overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.FindAndLoad(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.Workers < 0 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("--workers must be positive, got %d", opts.Workers),
			"Pass a number like --workers 10, or leave it out to use monitor.workers.")
	}
	if opts.Workers > 0 {
		cfg.Monitor.Workers = opts.Workers
	}
	if opts.LogFile != "" {
		cfg.Log.File = config.ExpandTilde(opts.LogFile)
	}

	if opts.Hosts != "" {
		hosts, err := filterHosts(cfg.Hosts, opts.Hosts)
		if err != nil {
			return nil, err
		}
		cfg.Hosts = hosts
	}

	return cfg, nil
}

// filterHosts keeps the hosts named in the comma-separated filter, in config order.
func filterHosts(all []config.Host, filter string) ([]config.Host, error) {
	known := make(map[string]bool, len(all))
	for _, h := range all {
		known[h.Name] = true
	}

	wanted := make(map[string]bool)
	var unknown []string
	for _, name := range strings.Split(filter, ",") {
		name = strings.TrimSpace(name)
		if name == "" || wanted[name] {
			continue
		}
		wanted[name] = true
		if !known[name] {
			unknown = append(unknown, name)
		}
	}

	if len(unknown) > 0 {
		return nil, errors.New(errors.ErrConfig,
			"Unknown server in --hosts: "+strings.Join(unknown, ", "),
			"Double-check the names against the servers list in your config.")
	}
	if len(wanted) == 0 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("No servers match '%s'", filter),
			"Pass at least one server name, or leave out --hosts.")
	}

	kept := make([]config.Host, 0, len(wanted))
	for _, h := range all {
		if wanted[h.Name] {
			kept = append(kept, h)
		}
	}
	return kept, nil
}

// openLogger returns the log sink for cfg and a function that flushes it.
// Warnings from the SSH layer are routed into the same sink.
func openLogger(cfg config.LogConfig) (logger.Logger, func(), error) {
	if cfg.File == "" {
		// Stderr would tear the dashboard.
		sshutil.WarningHandler = func(string) {}
		return logger.Noop(), func() { sshutil.WarningHandler = nil }, nil
	}

	fileLog, err := logger.NewFile(cfg.File, cfg.Level)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open log file "+cfg.File,
			"Check the directory exists and is writable, or set log.file to another path.")
	}

	sshutil.WarningHandler = func(msg string) {
		fileLog.Warn("%s", msg)
	}
	return fileLog, func() {
		sshutil.WarningHandler = nil
		_ = fileLog.Close()
	}, nil
}
