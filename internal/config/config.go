// Package config loads and saves the daemon's YAML configuration,
// covering the listen address, authentication, per-connection limits,
// and the list of partitions to create at startup. A missing config
// file is tolerated and falls back to DefaultConfig.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PasswordEntry is one `password` config line: a plaintext password
// (stored as given; this core never hashes or hardens auth itself)
// and the permission names it grants.
type PasswordEntry struct {
	Password    string   `yaml:"password"`
	Permissions []string `yaml:"permissions"`
}

// PartitionConfig configures one partition to create at startup.
type PartitionConfig struct {
	Name           string `yaml:"name"`
	MaxQueueLength int    `yaml:"max_queue_length"`
}

// Config is the top-level configuration document.
type Config struct {
	ListenNetwork string `yaml:"listen_network"` // "tcp" or "unix"
	ListenAddress string `yaml:"listen_address"`

	Passwords          []PasswordEntry `yaml:"passwords"`
	DefaultPermissions []string        `yaml:"default_permissions"`

	ConnectionTimeoutSeconds int `yaml:"connection_timeout_seconds"`
	MaxConnections           int `yaml:"max_connections"`
	MaxCommandListSize       int `yaml:"max_command_list_size"`
	MaxOutputBufferSize      int `yaml:"max_output_buffer_size"`
	MaxPlaylistLength        int `yaml:"max_playlist_length"`

	Partitions []PartitionConfig `yaml:"partitions"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		ListenNetwork:            "tcp",
		ListenAddress:            "0.0.0.0:6600",
		DefaultPermissions:       []string{"read", "add", "control", "admin"},
		ConnectionTimeoutSeconds: 60,
		MaxConnections:           10,
		MaxCommandListSize:       2048 * 1024,
		MaxOutputBufferSize:      8 * 1024 * 1024,
		MaxPlaylistLength:        16384,
		Partitions: []PartitionConfig{
			{Name: "default", MaxQueueLength: 16384},
		},
	}
}

// ConnectionTimeout returns the configured connection timeout as a
// time.Duration.
func (c Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds) * time.Second
}

// ParsePermissions translates permission names ("read", "add",
// "control", "admin") into the bitmask the session/dispatch packages
// use. Unknown names are ignored rather than rejected.
func ParsePermissions(names []string) uint8 {
	var mask uint8
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "read":
			mask |= 1
		case "add":
			mask |= 2
		case "control":
			mask |= 4
		case "admin":
			mask |= 8
		}
	}
	return mask
}

// LoadConfig reads and parses path, returning DefaultConfig() if the
// file does not exist.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML. The parent directory must
// already exist; it is not created.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
