package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a hotspoter portal found on the network
type Device struct {
	// Instance is the mDNS service instance (e.g., "kitchen-pi-hotspoter")
	Instance string

	// Hostname is the mDNS hostname (e.g., "kitchen-pi.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the portal HTTP port
	Port int

	// Mode is the radio mode advertised in the TXT records
	Mode string

	// Metadata contains all mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d [%s]", d.Instance, d.Hostname, d.IP, d.Port, d.Mode)
}

// BaseURL returns the HTTP base URL for the device's portal
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
