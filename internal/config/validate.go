package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
)

// Resolve merges global defaults into every server, expands key paths, and
// validates the result. All problems are reported together in one CONFIG error.
func Resolve(file *File) (*Config, error) {
	var problems []string

	if file.Global.Password != "" && file.Global.KeyFilename != "" {
		problems = append(problems, "global: set either password or key_filename, not both")
	}
	if file.Global.Port < 0 || file.Global.Port > 65535 {
		problems = append(problems, fmt.Sprintf("global: port %d is out of range", file.Global.Port))
	}
	if file.Global.Timeout < 0 {
		problems = append(problems, "global: timeout can't be negative")
	}
	if file.Global.CommandTimeout < 0 {
		problems = append(problems, "global: command_timeout can't be negative")
	}

	if len(file.Servers) == 0 {
		problems = append(problems, "servers: at least one server is required")
	}

	hosts := make([]Host, 0, len(file.Servers))
	seen := make(map[string]int)
	for i, srv := range file.Servers {
		host, hostProblems := resolveServer(i, srv, file.Global)
		problems = append(problems, hostProblems...)

		if host.Name != "" {
			if prev, dup := seen[host.Name]; dup {
				problems = append(problems, fmt.Sprintf("servers[%d]: name '%s' already used by servers[%d]", i, host.Name, prev))
			} else {
				seen[host.Name] = i
			}
		}
		hosts = append(hosts, host)
	}

	monitor := file.Monitor
	if monitor.Interval == 0 {
		monitor.Interval = DefaultInterval
	}
	if monitor.Interval < MinInterval {
		problems = append(problems, fmt.Sprintf("monitor: interval %s is below the %s minimum", monitor.Interval, MinInterval))
	}
	if monitor.Workers == 0 {
		monitor.Workers = DefaultWorkers
	}
	if monitor.Workers < 0 {
		problems = append(problems, fmt.Sprintf("monitor: workers must be positive, got %d", monitor.Workers))
	}

	logCfg := file.Log
	logCfg.File = ExpandTilde(logCfg.File)
	if err := validateLevel(logCfg.Level); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return nil, errors.New(errors.ErrConfig,
			"Invalid configuration:\n    - "+strings.Join(problems, "\n    - "),
			"Fix the listed fields and start fleetwatch again.")
	}

	return &Config{
		Hosts:   hosts,
		Monitor: monitor,
		Log:     logCfg,
	}, nil
}

// resolveServer applies the inheritance rules to one server entry.
// A credential set on the server replaces an inherited credential of the other kind.
func resolveServer(i int, srv Server, global Global) (Host, []string) {
	var problems []string
	label := fmt.Sprintf("servers[%d]", i)
	if srv.Name != "" {
		label = fmt.Sprintf("servers[%d] (%s)", i, srv.Name)
	}

	host := Host{
		Name:                  strings.TrimSpace(srv.Name),
		Hostname:              strings.TrimSpace(srv.Hostname),
		Port:                  firstNonZero(srv.Port, global.Port, DefaultPort),
		Username:              firstNonEmpty(srv.Username, global.Username),
		Timeout:               firstNonZero(srv.Timeout, global.Timeout, DefaultTimeout),
		CommandTimeout:        global.CommandTimeout,
		StrictHostKeyChecking: global.StrictHostKeyChecking,
	}

	if srv.CommandTimeout != nil {
		host.CommandTimeout = *srv.CommandTimeout
	}

	switch {
	case srv.Password != "" && srv.KeyFilename != "":
		problems = append(problems, label+": set either password or key_filename, not both")
	case srv.Password != "":
		host.Password = srv.Password
	case srv.KeyFilename != "":
		host.KeyFile = ExpandTilde(srv.KeyFilename)
	case global.Password != "" && global.KeyFilename == "":
		host.Password = global.Password
	case global.KeyFilename != "" && global.Password == "":
		host.KeyFile = ExpandTilde(global.KeyFilename)
	case global.Password == "" && global.KeyFilename == "":
		problems = append(problems, label+": no password or key_filename (set one here or under global)")
	}

	if host.Name == "" {
		problems = append(problems, label+": name is required")
	}
	if host.Hostname == "" {
		problems = append(problems, label+": hostname is required")
	}
	if host.Username == "" {
		problems = append(problems, label+": username is required (set it here or under global)")
	}
	if host.Port < 1 || host.Port > 65535 {
		problems = append(problems, fmt.Sprintf("%s: port %d is out of range", label, host.Port))
	}
	if host.Timeout < 0 || host.CommandTimeout < 0 {
		problems = append(problems, label+": timeouts can't be negative")
	}

	return host, problems
}

func validateLevel(level string) error {
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("log: unknown level '%s' (use debug, info, warn or error)", level)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero[T ~int | ~int64](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
