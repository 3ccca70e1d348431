// Hotspoter provisions a headless Linux device onto Wi-Fi.
//
// The device serves its own access point with a small portal. From the
// portal, or from this CLI, a user scans for nearby networks and picks one
// to join. Scanning briefly takes the access point down; a failed join
// brings it back.
//
// Usage:
//
//	hotspoter serve            # run the daemon on the device
//	hotspoter scan             # list networks the device can see
//	hotspoter join <ssid>      # move the device onto a network
//
// See 'hotspoter --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/hotspoter/internal/logging"
	"github.com/muurk/hotspoter/internal/version"
)

// serverEnvVar overrides the default --server value.
const serverEnvVar = "HOTSPOTER_SERVER"

// defaultServer is the portal address when the CLI runs on the device.
const defaultServer = "http://127.0.0.1"

var (
	configPath string
	logLevel   string
	serverAddr string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hotspoter",
	Short: "Wi-Fi provisioning for headless devices",
	Long: `Hotspoter runs a device's Wi-Fi radio either as an access point serving a
provisioning portal or as a client on a network the user picks.

'hotspoter serve' runs on the device. The other commands talk to a running
portal, by default on this machine. Use --server to reach a device from a
laptop connected to its access point.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	server := os.Getenv(serverEnvVar)
	if server == "" {
		server = defaultServer
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", server, "Portal address for client commands (env "+serverEnvVar+")")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "hotspoter %s (commit: %s, %s, %s)\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
