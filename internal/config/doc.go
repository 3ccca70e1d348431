// Package config loads the hotspoter configuration file and persists the
// outcome of the most recent join attempt.
//
// # Configuration File
//
// The configuration is a YAML file, by default /etc/hotspoter/config.yaml.
// A missing file is not an error: every setting has a default, and a file
// only needs to name what it changes. Durations are Go duration strings.
//
//	services:
//	  ap: hostapd
//	  connection_manager: NetworkManager
//	  supplicant: wpa_supplicant
//	system:
//	  use_sudo: false
//	  command_timeout: 30s
//	radio:
//	  interface: wlan0
//	  scan_duration: 10
//	  rescan_interval: 1s
//	  daemon_settle: 5s
//	  scan_settle: 5s
//	portal:
//	  listen: ":80"
//	  web_dir: /usr/share/hotspoter/www
//	discovery:
//	  enabled: true
//	state_file: /var/lib/hotspoter/state.yaml
//
// # Security
//
// Passphrases are NEVER written to disk. The state file records only the
// SSID, result and timestamp of the latest join attempt.
//
// # Thread Safety
//
// StateStore serializes writes with a mutex, and every write is atomic
// (temporary file plus rename) so a crash never leaves a torn file.
package config
