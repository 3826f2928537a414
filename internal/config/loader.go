package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "fleetwatch.yaml"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/fleetwatch"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. FLEETWATCH_MONITOR_INTERVAL.
	EnvPrefix = "FLEETWATCH"
)

// localCandidates are tried in the working directory, in order.
var localCandidates = []string{ConfigFileName, "fleetwatch.yml", "config.json"}

// Load reads, merges, and validates the config at path.
// Any failure is a CONFIG error: the caller should stop before polling starts.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Run 'fleetwatch init' to create one, or point at one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file is valid YAML or JSON")
	}

	file := &File{}
	if err := v.Unmarshal(file, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the field types in "+path)
	}

	cfg, err := Resolve(file)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. fleetwatch.yaml, fleetwatch.yml or config.json in the current directory
// 3. ~/.config/fleetwatch/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	for _, name := range localCandidates {
		candidate := filepath.Join(cwd, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// FindAndLoad combines Find and Load, failing when no config exists anywhere.
func FindAndLoad(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'fleetwatch init' to create "+ConfigFileName+", or pass --config")
	}
	return Load(path)
}

// setDefaults registers defaults so viper merges them under anything the file sets.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global.port", DefaultPort)
	v.SetDefault("global.timeout", DefaultTimeout)
	v.SetDefault("global.command_timeout", DefaultCommandTimeout)
	v.SetDefault("global.strict_host_key_checking", false)
	v.SetDefault("monitor.interval", DefaultInterval)
	v.SetDefault("monitor.workers", DefaultWorkers)
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.level", DefaultLogLevel)
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationDecodeHook accepts durations as Go duration strings ("5s", "1m30s")
// or as bare numbers of seconds (5, 0.5, "5").
func durationDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return time.Duration(0), nil
			}
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
			return time.ParseDuration(s)
		}
		return data, nil
	}
}
