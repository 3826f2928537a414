package config

import "time"

// Defaults for settings the config file may omit.
const (
	DefaultPort           = 22
	DefaultTimeout        = 5 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultInterval       = 1 * time.Second
	DefaultWorkers        = 10
	DefaultLogFile        = "fleetwatch.log"
	DefaultLogLevel       = "info"

	// MinInterval keeps the refresh loop from hammering the fleet.
	MinInterval = 200 * time.Millisecond
)

// File is the on-disk layout of the config file, before defaults are merged into servers.
type File struct {
	Global  Global        `yaml:"global,omitempty" mapstructure:"global"`
	Servers []Server      `yaml:"servers" mapstructure:"servers"`
	Monitor MonitorConfig `yaml:"monitor,omitempty" mapstructure:"monitor"`
	Log     LogConfig     `yaml:"log,omitempty" mapstructure:"log"`
}

// Global holds connection defaults applied to every server that doesn't override them.
type Global struct {
	Username    string `yaml:"username,omitempty" mapstructure:"username"`
	Password    string `yaml:"password,omitempty" mapstructure:"password"`
	KeyFilename string `yaml:"key_filename,omitempty" mapstructure:"key_filename"`
	Port        int    `yaml:"port,omitempty" mapstructure:"port"`

	// Timeout bounds dialing plus the SSH handshake.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`

	// CommandTimeout bounds a single remote command. Zero disables it.
	CommandTimeout time.Duration `yaml:"command_timeout,omitempty" mapstructure:"command_timeout"`

	// StrictHostKeyChecking verifies host keys against ~/.ssh/known_hosts.
	StrictHostKeyChecking bool `yaml:"strict_host_key_checking,omitempty" mapstructure:"strict_host_key_checking"`
}

// Server is one entry of the servers list. Zero values inherit from Global.
type Server struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Hostname    string        `yaml:"hostname" mapstructure:"hostname"`
	Username    string        `yaml:"username,omitempty" mapstructure:"username"`
	Password    string        `yaml:"password,omitempty" mapstructure:"password"`
	KeyFilename string        `yaml:"key_filename,omitempty" mapstructure:"key_filename"`
	Port        int           `yaml:"port,omitempty" mapstructure:"port"`
	Timeout     time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`

	// CommandTimeout is nil when the server inherits the global value.
	// An explicit zero disables the limit for this server only.
	CommandTimeout *time.Duration `yaml:"command_timeout,omitempty" mapstructure:"command_timeout"`
}

// MonitorConfig controls the refresh loop.
type MonitorConfig struct {
	// Interval is the pause between the end of one render and the next poll.
	Interval time.Duration `yaml:"interval,omitempty" mapstructure:"interval"`

	// Workers is the width of the polling pool.
	Workers int `yaml:"workers,omitempty" mapstructure:"workers"`
}

// LogConfig controls the log sink.
type LogConfig struct {
	// File receives JSON log records. Empty disables logging.
	File string `yaml:"file,omitempty" mapstructure:"file"`

	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty" mapstructure:"level"`
}

// Host is a fully resolved server: global defaults merged, paths expanded, credentials settled.
// It is immutable after Load returns.
type Host struct {
	Name     string
	Hostname string
	Port     int
	Username string

	// Exactly one of Password and KeyFile is set.
	Password string
	KeyFile  string

	Timeout               time.Duration
	CommandTimeout        time.Duration
	StrictHostKeyChecking bool
}

// Config is the loaded, validated configuration.
type Config struct {
	// Path is where the config was read from.
	Path string

	// Hosts in declaration order.
	Hosts   []Host
	Monitor MonitorConfig
	Log     LogConfig
}

// HostNames returns host names in declaration order.
func (c *Config) HostNames() []string {
	names := make([]string, len(c.Hosts))
	for i, h := range c.Hosts {
		names[i] = h.Name
	}
	return names
}

// DefaultFile returns a File with every default filled in and no servers.
func DefaultFile() *File {
	return &File{
		Global: Global{
			Port:           DefaultPort,
			Timeout:        DefaultTimeout,
			CommandTimeout: DefaultCommandTimeout,
		},
		Servers: []Server{},
		Monitor: MonitorConfig{
			Interval: DefaultInterval,
			Workers:  DefaultWorkers,
		},
		Log: LogConfig{
			File:  DefaultLogFile,
			Level: DefaultLogLevel,
		},
	}
}
