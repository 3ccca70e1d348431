package wifi

import (
	"context"

	"github.com/muurk/hotspoter/internal/system"
)

// Radio is the client-mode control surface of the connection manager.
type Radio interface {
	// Rescan asks the radio for a fresh scan. It does not wait for results.
	Rescan(ctx context.Context) error

	// ListNetworks returns the raw listing, header line included.
	ListNetworks(ctx context.Context) (string, error)

	// Connect joins ssid. It returns the command's diagnostic output, which
	// is meaningful on both success and failure.
	Connect(ctx context.Context, ssid, passphrase string) (string, error)
}

// NMCLI drives NetworkManager through nmcli.
type NMCLI struct {
	runner system.Runner
	binary string
	iface  string
}

// NewNMCLI creates an nmcli-backed Radio. An empty iface lets NetworkManager
// pick the wifi device.
func NewNMCLI(runner system.Runner, iface string) *NMCLI {
	return &NMCLI{
		runner: runner,
		binary: "nmcli",
		iface:  iface,
	}
}

func (n *NMCLI) withIface(args ...string) []string {
	if n.iface != "" {
		args = append(args, "ifname", n.iface)
	}
	return args
}

// Rescan runs "nmcli device wifi rescan".
func (n *NMCLI) Rescan(ctx context.Context) error {
	_, err := n.runner.Run(ctx, n.binary, n.withIface("device", "wifi", "rescan")...)
	return err
}

// ListNetworks runs "nmcli -f SSID,SIGNAL device wifi list".
func (n *NMCLI) ListNetworks(ctx context.Context) (string, error) {
	args := append([]string{"-f", "SSID,SIGNAL"}, n.withIface("device", "wifi", "list")...)
	result, err := n.runner.Run(ctx, n.binary, args...)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// Connect runs "nmcli device wifi connect <ssid> [password <psk>]". Open
// networks are joined without a password argument.
func (n *NMCLI) Connect(ctx context.Context, ssid, passphrase string) (string, error) {
	args := []string{"device", "wifi", "connect", ssid}
	if passphrase != "" {
		args = append(args, "password", passphrase)
	}
	result, err := n.runner.Run(ctx, n.binary, n.withIface(args...)...)
	if result == nil {
		return "", err
	}
	return result.Output(), err
}
