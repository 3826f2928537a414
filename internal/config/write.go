package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Write serializes file as YAML to path. It refuses to overwrite an existing
// file unless force is set.
func Write(path string, file *File, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := Marshal(file)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// Credentials may live in this file.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders file as YAML with durations written as Go duration strings.
func Marshal(file *File) ([]byte, error) {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(toYAML(file)); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()
	return []byte(buf.String()), nil
}

// AppendServer adds srv to the servers list of an existing YAML config.
// It preserves the existing YAML structure and comments.
func AppendServer(configPath string, srv Server) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	serversNode := findMapValue(docNode, "servers")
	if serversNode == nil {
		serversNode = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "servers"}
		docNode.Content = append(docNode.Content, keyNode, serversNode)
	}
	if serversNode.Kind != yaml.SequenceNode {
		return fmt.Errorf("'servers' must be a list")
	}

	for _, item := range serversNode.Content {
		if name := findMapValue(item, "name"); name != nil && name.Value == srv.Name {
			return fmt.Errorf("server '%s' already exists in %s", srv.Name, configPath)
		}
	}

	var srvNode yaml.Node
	if err := srvNode.Encode(toYAMLServer(srv)); err != nil {
		return fmt.Errorf("failed to encode server: %w", err)
	}
	serversNode.Content = append(serversNode.Content, &srvNode)

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}

// yaml.v3 writes time.Duration as integer nanoseconds, which Load would read
// back as seconds. These mirrors carry durations as strings instead.
type yamlFile struct {
	Global  yamlGlobal   `yaml:"global,omitempty"`
	Servers []yamlServer `yaml:"servers"`
	Monitor yamlMonitor  `yaml:"monitor,omitempty"`
	Log     LogConfig    `yaml:"log,omitempty"`
}

type yamlGlobal struct {
	Username              string `yaml:"username,omitempty"`
	Password              string `yaml:"password,omitempty"`
	KeyFilename           string `yaml:"key_filename,omitempty"`
	Port                  int    `yaml:"port,omitempty"`
	Timeout               string `yaml:"timeout,omitempty"`
	CommandTimeout        string `yaml:"command_timeout,omitempty"`
	StrictHostKeyChecking bool   `yaml:"strict_host_key_checking,omitempty"`
}

type yamlServer struct {
	Name           string `yaml:"name"`
	Hostname       string `yaml:"hostname"`
	Username       string `yaml:"username,omitempty"`
	Password       string `yaml:"password,omitempty"`
	KeyFilename    string `yaml:"key_filename,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"`
	CommandTimeout string `yaml:"command_timeout,omitempty"`
}

type yamlMonitor struct {
	Interval string `yaml:"interval,omitempty"`
	Workers  int    `yaml:"workers,omitempty"`
}

func toYAML(f *File) yamlFile {
	out := yamlFile{
		Global: yamlGlobal{
			Username:              f.Global.Username,
			Password:              f.Global.Password,
			KeyFilename:           f.Global.KeyFilename,
			Port:                  f.Global.Port,
			Timeout:               durationString(f.Global.Timeout),
			CommandTimeout:        durationString(f.Global.CommandTimeout),
			StrictHostKeyChecking: f.Global.StrictHostKeyChecking,
		},
		Servers: make([]yamlServer, 0, len(f.Servers)),
		Monitor: yamlMonitor{
			Interval: durationString(f.Monitor.Interval),
			Workers:  f.Monitor.Workers,
		},
		Log: f.Log,
	}
	for _, s := range f.Servers {
		out.Servers = append(out.Servers, toYAMLServer(s))
	}
	return out
}

func toYAMLServer(s Server) yamlServer {
	return yamlServer{
		Name:           s.Name,
		Hostname:       s.Hostname,
		Username:       s.Username,
		Password:       s.Password,
		KeyFilename:    s.KeyFilename,
		Port:           s.Port,
		Timeout:        durationString(s.Timeout),
		CommandTimeout: overrideString(s.CommandTimeout),
	}
}

// overrideString keeps an explicit zero so it survives a round trip.
func overrideString(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func durationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
