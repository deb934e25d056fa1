// Package config holds the daemon configuration, loaded from YAML over
// defaults that work for a local single-session daemon.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in the configuration.
const (
	// TransportFile exchanges commands through a command file and a
	// result file in ChannelDir, discovered by polling.
	TransportFile = "file"
	// TransportSocket exchanges commands over a unix domain socket with
	// blocking reads.
	TransportSocket = "socket"
)

// Config is the flat configuration shared by the daemon and its clients.
type Config struct {
	// Transport selects how commands reach the daemon: "file" or "socket".
	Transport string `yaml:"transport"`

	// ChannelDir is the directory holding the command and result slots
	// for the file transport.
	ChannelDir string `yaml:"channel_dir"`

	// SocketPath is the unix socket path for the socket transport.
	SocketPath string `yaml:"socket_path"`

	// PollIntervalMs is the cadence at which the file transport checks
	// for new commands, in milliseconds.
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// ClientTimeoutMs bounds how long a client waits for a result
	// before synthesizing a timeout, in milliseconds.
	ClientTimeoutMs int `yaml:"client_timeout_ms"`

	// Headless controls whether the browser runs without a window.
	Headless bool `yaml:"headless"`

	// Viewport dimensions for the browser context.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// DefaultTimeoutMs is the default timeout applied to page
	// operations, in milliseconds.
	DefaultTimeoutMs float64 `yaml:"default_timeout_ms"`

	// ScreenshotDir is prepended to relative screenshot filenames.
	// Empty means the daemon's working directory.
	ScreenshotDir string `yaml:"screenshot_dir"`

	// AllowedHosts and DeniedHosts are glob patterns gating navigation
	// targets. Deny wins; an empty allow list allows everything not
	// denied.
	AllowedHosts []string `yaml:"allowed_hosts"`
	DeniedHosts  []string `yaml:"denied_hosts"`
}

// DefaultConfig returns the configuration the daemon runs with when no
// config file is given.
func DefaultConfig() *Config {
	return &Config{
		Transport:        TransportFile,
		ChannelDir:       ".",
		SocketPath:       filepath.Join(os.TempDir(), "browserd.sock"),
		PollIntervalMs:   100,
		ClientTimeoutMs:  30000,
		Headless:         false,
		ViewportWidth:    1280,
		ViewportHeight:   720,
		DefaultTimeoutMs: 30000,
	}
}

// Load reads a YAML config file, applying defaults for any keys the file
// does not set, and validates the outcome.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportFile:
		if c.ChannelDir == "" {
			return fmt.Errorf("channel_dir is required for the file transport")
		}
	case TransportSocket:
		if c.SocketPath == "" {
			return fmt.Errorf("socket_path is required for the socket transport")
		}
	default:
		return fmt.Errorf("invalid transport: %s (must be 'file' or 'socket')", c.Transport)
	}

	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if c.ClientTimeoutMs <= 0 {
		return fmt.Errorf("client_timeout_ms must be positive")
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if c.DefaultTimeoutMs <= 0 {
		return fmt.Errorf("default_timeout_ms must be positive")
	}

	// Surface bad glob patterns at startup rather than on first navigate.
	if _, err := NewHostRules(c.AllowedHosts, c.DeniedHosts); err != nil {
		return err
	}

	return nil
}

// PollInterval returns the file transport poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ClientTimeout returns how long clients wait for a result.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutMs) * time.Millisecond
}

// Rules compiles the configured host patterns. A config with no patterns
// yields nil rules, which allow every host.
func (c *Config) Rules() (*HostRules, error) {
	if len(c.AllowedHosts) == 0 && len(c.DeniedHosts) == 0 {
		return nil, nil
	}
	return NewHostRules(c.AllowedHosts, c.DeniedHosts)
}
