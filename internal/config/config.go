package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path over the defaults and validates
// the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Services.AP == "" || c.Services.ConnectionManager == "" || c.Services.Supplicant == "" {
		return fmt.Errorf("services: all three unit names are required")
	}
	if c.Services.AP == c.Services.ConnectionManager || c.Services.AP == c.Services.Supplicant {
		return fmt.Errorf("services: access point unit %q must differ from the client units", c.Services.AP)
	}
	if c.System.CommandTimeout <= 0 {
		return fmt.Errorf("system.command_timeout must be positive, got %s", c.System.CommandTimeout)
	}
	if c.Radio.ScanDuration <= 0 {
		return fmt.Errorf("radio.scan_duration must be positive, got %d", c.Radio.ScanDuration)
	}
	if c.Radio.RescanInterval <= 0 {
		return fmt.Errorf("radio.rescan_interval must be positive, got %s", c.Radio.RescanInterval)
	}
	if c.Radio.DaemonSettle < 0 || c.Radio.ScanSettle < 0 {
		return fmt.Errorf("radio: settle delays must not be negative")
	}
	if c.Portal.Listen == "" {
		return fmt.Errorf("portal.listen is required")
	}
	if c.StateFile == "" {
		return fmt.Errorf("state_file is required")
	}
	return nil
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# hotspoter configuration
#
# Wi-Fi passphrases are NEVER stored in this file.

`)
	return writeFileAtomic(path, append(header, data...), 0644)
}

// writeFileAtomic writes to a temporary file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	return nil
}
