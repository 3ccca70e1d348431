package config

import (
	"time"

	"github.com/muurk/hotspoter/internal/supervisor"
	"github.com/muurk/hotspoter/internal/system"
	"github.com/muurk/hotspoter/internal/wifi"
)

// Config represents the entire configuration file.
type Config struct {
	Services  Services  `yaml:"services"`
	System    System    `yaml:"system"`
	Radio     Radio     `yaml:"radio"`
	Portal    Portal    `yaml:"portal"`
	Discovery Discovery `yaml:"discovery"`
	StateFile string    `yaml:"state_file"` // Where the latest join outcome is kept
}

// Services names the systemd units that own the radio.
type Services struct {
	AP                string `yaml:"ap"`                 // Access point daemon
	ConnectionManager string `yaml:"connection_manager"` // Scans and joins networks
	Supplicant        string `yaml:"supplicant"`         // WPA handshake
}

// System controls how external commands are executed.
type System struct {
	UseSudo        bool          `yaml:"use_sudo"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// Radio tunes scanning and joining.
type Radio struct {
	Interface      string        `yaml:"interface,omitempty"` // Empty lets nmcli pick the device
	ScanDuration   int           `yaml:"scan_duration"`       // Seconds, used when a request names none
	RescanInterval time.Duration `yaml:"rescan_interval"`
	DaemonSettle   time.Duration `yaml:"daemon_settle"`
	ScanSettle     time.Duration `yaml:"scan_settle"`
}

// Portal configures the HTTP portal.
type Portal struct {
	Listen string `yaml:"listen"`
	WebDir string `yaml:"web_dir,omitempty"` // Optional static files served at /
}

// Discovery configures mDNS advertisement.
type Discovery struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance,omitempty"` // Defaults to <hostname>-hotspoter
}

// Default configuration values.
const (
	DefaultPath         = "/etc/hotspoter/config.yaml"
	DefaultStateFile    = "/var/lib/hotspoter/state.yaml"
	DefaultListen       = ":80"
	DefaultScanDuration = 10
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	units := supervisor.DefaultUnits()
	runner := system.DefaultConfig()

	return &Config{
		Services: Services{
			AP:                units.AP,
			ConnectionManager: units.ConnectionManager,
			Supplicant:        units.Supplicant,
		},
		System: System{
			UseSudo:        runner.UseSudo,
			CommandTimeout: runner.Timeout,
		},
		Radio: Radio{
			ScanDuration:   DefaultScanDuration,
			RescanInterval: wifi.RescanInterval,
			DaemonSettle:   wifi.DaemonSettleDelay,
			ScanSettle:     wifi.ScanSettleDelay,
		},
		Portal: Portal{
			Listen: DefaultListen,
		},
		Discovery: Discovery{
			Enabled: true,
		},
		StateFile: DefaultStateFile,
	}
}

// Units returns the supervisor unit names.
func (c *Config) Units() supervisor.Units {
	return supervisor.Units{
		AP:                c.Services.AP,
		ConnectionManager: c.Services.ConnectionManager,
		Supplicant:        c.Services.Supplicant,
	}
}

// RunnerConfig returns the command runner settings.
func (c *Config) RunnerConfig() system.Config {
	config := system.DefaultConfig()
	config.UseSudo = c.System.UseSudo
	config.Timeout = c.System.CommandTimeout
	return config
}

// ScannerConfig returns the scanner settings.
func (c *Config) ScannerConfig() wifi.ScannerConfig {
	return wifi.ScannerConfig{RescanInterval: c.Radio.RescanInterval}
}

// JoinerConfig returns the joiner settings.
func (c *Config) JoinerConfig() wifi.JoinerConfig {
	return wifi.JoinerConfig{
		DaemonSettle: c.Radio.DaemonSettle,
		ScanSettle:   c.Radio.ScanSettle,
	}
}
