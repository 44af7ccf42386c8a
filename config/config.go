// Package config handles CLI configuration.
//
// Config is stored at $XDG_CONFIG_HOME/incman/config.yaml (defaults to
// ~/.config/incman/config.yaml): daemon connection and provisioning
// defaults shared by the commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config holds daemon connection and provisioning defaults.
type Config struct {
	Socket  string   `yaml:"socket,omitempty"`  // daemon unix socket path
	Images  []string `yaml:"images,omitempty"`  // launch image choices
	Network string   `yaml:"network,omitempty"` // managed bridge name
	Storage string   `yaml:"storage,omitempty"` // storage pool name
}

// DefaultImages seeds the launch picker when the config lists none.
var DefaultImages = []string{
	"images:ubuntu/24.04",
	"images:ubuntu/22.04",
	"images:alpine/edge",
}

// Provisioning defaults applied when the config leaves them unset.
const (
	DefaultNetwork = "incusbr0"
	DefaultStorage = "default"
)

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/incman/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "incman", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "incman", "config.yaml")
}

// Load reads the config file. If the file does not exist, an empty
// Config is returned (not an error).
func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating directories as needed.
func (c *Config) Save() error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ImageChoices returns the configured launch images, or the defaults
// when none are set.
func (c *Config) ImageChoices() []string {
	if len(c.Images) > 0 {
		return slices.Clone(c.Images)
	}
	return slices.Clone(DefaultImages)
}

// Bridge returns the managed bridge name, defaulted.
func (c *Config) Bridge() string {
	if c.Network != "" {
		return c.Network
	}
	return DefaultNetwork
}

// Pool returns the storage pool name, defaulted.
func (c *Config) Pool() string {
	if c.Storage != "" {
		return c.Storage
	}
	return DefaultStorage
}
