package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FluidXR/devmon/internal/logger"
	"github.com/FluidXR/devmon/internal/monitor"
)

// DeviceConfig stores per-device settings.
type DeviceConfig struct {
	Nickname string `yaml:"nickname,omitempty"`
	WiFiIP   string `yaml:"wifi_ip,omitempty"`
	// MountPoints pre-seeds the mount-point cache for this device,
	// keyed by mount name (e.g. EXTERNAL_STORAGE).
	MountPoints map[string]string `yaml:"mount_points,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Log logger.Config `yaml:"log,omitempty"`

	// ScanInterval is how often the fleet manager re-scans adb.
	ScanInterval Duration `yaml:"scan_interval,omitempty"`
	// PollInterval is the delay between unsuccessful readiness probes.
	PollInterval Duration `yaml:"poll_interval,omitempty"`
	// CommandTimeout bounds a single probe shell command.
	CommandTimeout Duration `yaml:"command_timeout,omitempty"`
	// OnlineTimeout is the default budget for an online-only wait.
	OnlineTimeout Duration `yaml:"online_timeout,omitempty"`
	// AvailableTimeout is the default budget for a full availability wait.
	AvailableTimeout Duration `yaml:"available_timeout,omitempty"`

	Devices map[string]DeviceConfig `yaml:"devices,omitempty"`
}

// DefaultConfig returns a config with sensible defaults. Probe and wait
// budgets default to the monitor package's stock constants.
func DefaultConfig() *Config {
	return &Config{
		ScanInterval:     Duration(2 * time.Second),
		PollInterval:     Duration(monitor.DefaultPollInterval),
		CommandTimeout:   Duration(monitor.DefaultCommandTimeout),
		OnlineTimeout:    Duration(monitor.DefaultOnlineTimeout),
		AvailableTimeout: Duration(monitor.DefaultAvailableTimeout),
		Devices:          make(map[string]DeviceConfig),
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devmon")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "devmon")
}

// ConfigPath returns the config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Devices == nil {
		cfg.Devices = make(map[string]DeviceConfig)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := ConfigPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
