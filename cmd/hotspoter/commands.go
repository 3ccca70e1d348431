package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/hotspoter/internal/discovery"
	"github.com/muurk/hotspoter/internal/orchestrator"
	"github.com/muurk/hotspoter/internal/portal"
	"github.com/muurk/hotspoter/internal/ui"
	"github.com/muurk/hotspoter/internal/wifi"
)

// scanOverhead covers daemon settle delays on top of the scan itself.
const scanOverhead = 10 * time.Second

// joinTimeout bounds how long join waits for an outcome.
const joinTimeout = 90 * time.Second

var (
	scanDuration int
	joinPassword string
	joinAskPass  bool
	joinYes      bool
	statusJSON   bool
	findTimeout  time.Duration
	watchJSON    bool
)

var unreachableTips = []string{
	"Check that 'hotspoter serve' is running on the device",
	"Connect to the device's access point, then pass --server http://<device-ip>",
	"Try: hotspoter find",
}

func init() {
	scanCmd.Flags().IntVar(&scanDuration, "duration", 0, "Scan length in seconds (default: the device's radio.scan_duration)")

	joinCmd.Flags().StringVar(&joinPassword, "password", "", "Network passphrase (prefer --ask-password)")
	joinCmd.Flags().BoolVar(&joinAskPass, "ask-password", false, "Prompt for the passphrase without echo")
	joinCmd.Flags().BoolVarP(&joinYes, "yes", "y", false, "Skip the confirmation prompt")

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status as JSON")

	findCmd.Flags().DurationVar(&findTimeout, "timeout", discovery.DefaultBrowseTimeout, "How long to listen for advertisements")

	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print each event as raw JSON")

	rootCmd.AddCommand(scanCmd, joinCmd, resetCmd, statusCmd, findCmd, watchCmd)
}

// --- scan ---

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for networks the device can see",
	Long: `Ask the device to scan for nearby networks and print the results.

The access point goes down for the length of the scan. When the CLI is
connected through that access point it polls until the device is back.`,
	Example: `  # Scan with the device default duration
  hotspoter scan

  # Longer scan from a laptop on the device's access point
  hotspoter scan --duration 20 --server http://192.168.4.1`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := portal.NewClient(serverAddr)
	printer := ui.NewPrinter(cmd.OutOrStdout())

	params := []ui.Param{{Key: "Server", Value: client.BaseURL}}
	if scanDuration > 0 {
		params = append(params, ui.Param{Key: "Duration", Value: strconv.Itoa(scanDuration) + "s"})
	}
	printer.PrintHeader("Network Scan", commandLine(cmd), params...)

	// Subscribe first so the completion event cannot be missed
	events, _ := client.Events(ctx)

	accepted, err := client.Scan(ctx, scanDuration)
	if err != nil {
		printer.PrintFailure("Scan rejected", err, tipsFor(err))
		return err
	}

	expected := time.Duration(accepted.DurationSeconds)*time.Second + scanOverhead
	var candidates []wifi.Candidate

	err = ui.RunWithSpinner(ctx, "Scanning", expected, func(ctx context.Context) error {
		if c, ok := awaitScan(ctx, events); ok {
			candidates = c
			return nil
		}

		// The stream dropped with the access point
		if _, err := client.WaitIdle(ctx); err != nil {
			return err
		}
		networks, err := client.Networks(ctx)
		if err != nil {
			return err
		}
		candidates = networks.Networks
		return nil
	})
	if err != nil {
		printer.PrintFailure("Scan failed", err, tipsFor(err))
		return err
	}

	printer.Newline()
	printer.PrintNetworks(candidates)
	printer.Newline()
	printer.PrintSuccess(fmt.Sprintf("Found %d networks", len(candidates)),
		ui.Param{Key: "Next", Value: "hotspoter join <ssid> --ask-password"},
	)
	return nil
}

// awaitScan waits for a scanComplete event. It reports false if the stream
// ends first.
func awaitScan(ctx context.Context, events <-chan portal.Event) ([]wifi.Candidate, bool) {
	if events == nil {
		return nil, false
	}
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case event, ok := <-events:
			if !ok {
				return nil, false
			}
			if event.Name != orchestrator.EventScanComplete {
				continue
			}
			payload, err := event.ScanComplete()
			if err != nil {
				continue
			}
			return payload.Candidates, true
		}
	}
}

// --- join ---

var joinCmd = &cobra.Command{
	Use:   "join <ssid>",
	Short: "Move the device onto a network",
	Long: `Ask the device to join a network.

The access point goes down while the device joins. If the join fails the
access point comes back on its own. If it succeeds the device stays on the
new network and can be found there with 'hotspoter find'.`,
	Example: `  # Join an open network
  hotspoter join "Cafe"

  # Join a protected network, prompting for the passphrase
  hotspoter join "Home Net" --ask-password`,
	Args: cobra.ExactArgs(1),
	RunE: runJoin,
}

func runJoin(cmd *cobra.Command, args []string) error {
	ssid := strings.TrimSpace(args[0])
	if ssid == "" {
		return errors.New("ssid must not be empty")
	}

	password := joinPassword
	if joinAskPass {
		p, err := readPassword(cmd.ErrOrStderr(), ssid)
		if err != nil {
			return err
		}
		password = p
	}

	if !joinYes && !ui.JoinConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(), ssid) {
		return nil
	}

	ctx := cmd.Context()
	client := portal.NewClient(serverAddr)

	security := "open"
	if password != "" {
		security = "passphrase set"
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Join",
		Command: commandLine(cmd),
		Params: []ui.Param{
			{Key: "Server", Value: client.BaseURL},
			{Key: "SSID", Value: ssid},
			{Key: "Security", Value: security},
		},
		StepNames: []string{"Send join request", "Wait for outcome"},
		Troubleshooting: []string{
			"Check the passphrase",
			"Move the device closer to the access point",
			"Run 'hotspoter scan' to confirm the network is visible",
		},
		Output: cmd.OutOrStdout(),
	})

	var lost bool
	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
		events, _ := client.Events(ctx)

		onStep(1, ui.StepRunning, "")
		if _, err := client.Connect(ctx, ssid, password); err != nil {
			onStep(1, ui.StepFailed, "")
			return nil, err
		}
		onStep(1, ui.StepComplete, "")

		onStep(2, ui.StepRunning, "")
		waitCtx, cancel := context.WithTimeout(ctx, joinTimeout)
		defer cancel()

		outcome, ok := awaitJoin(waitCtx, events)
		if !ok {
			// The portal went away with the access point
			lost = true
			onStep(2, ui.StepSkipped, "connection to the portal lost")
			return []ui.Param{{Key: "SSID", Value: ssid}}, nil
		}

		if !outcome.Succeeded {
			onStep(2, ui.StepFailed, "")
			runner.SetDetail(outcome.Detail)
			return nil, fmt.Errorf("device could not join %s; access point restored", ssid)
		}

		onStep(2, ui.StepComplete, "")
		return []ui.Param{{Key: "SSID", Value: ssid}, {Key: "Find it", Value: "hotspoter find"}}, nil
	})
	if err != nil {
		return err
	}

	if lost {
		ui.NewPrinter(cmd.OutOrStdout()).PrintWarning("Outcome unknown",
			ui.Param{Key: "If it joined", Value: "connect to " + ssid + " and run: hotspoter find"},
			ui.Param{Key: "If it failed", Value: "the access point returns; reconnect and run: hotspoter status"},
		)
	}
	return nil
}

// awaitJoin waits for a joinComplete event. It reports false if the stream
// ends first.
func awaitJoin(ctx context.Context, events <-chan portal.Event) (orchestrator.JoinComplete, bool) {
	if events == nil {
		return orchestrator.JoinComplete{}, false
	}
	for {
		select {
		case <-ctx.Done():
			return orchestrator.JoinComplete{}, false
		case event, ok := <-events:
			if !ok {
				return orchestrator.JoinComplete{}, false
			}
			if event.Name != orchestrator.EventJoinComplete {
				continue
			}
			payload, err := event.JoinComplete()
			if err != nil {
				continue
			}
			return payload, true
		}
	}
}

func readPassword(out io.Writer, ssid string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--ask-password needs an interactive terminal")
	}

	_, _ = fmt.Fprintf(out, "Passphrase for %s: ", ssid)
	data, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(data), nil
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return the device to access point mode",
	Long: `Bring the device's access point back up and stop the client daemons.

Use this after a join to re-provision the device. It is rejected while a
scan or join is running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := portal.NewClient(serverAddr)

		runner := ui.NewRunner(ui.RunnerConfig{
			Title:           "Reset",
			Command:         commandLine(cmd),
			Params:          []ui.Param{{Key: "Server", Value: client.BaseURL}},
			StepNames:       []string{"Return to access point"},
			Troubleshooting: unreachableTips,
			Output:          cmd.OutOrStdout(),
		})

		return runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
			onStep(1, ui.StepRunning, "")
			reply, err := client.Reset(ctx)
			if err != nil {
				onStep(1, ui.StepFailed, "")
				return nil, err
			}
			onStep(1, ui.StepComplete, "")
			return []ui.Param{{Key: "Mode", Value: reply.Mode.String()}}, nil
		})
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the radio mode and daemon state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := portal.NewClient(serverAddr)
		printer := ui.NewPrinter(cmd.OutOrStdout())

		status, err := client.Status(cmd.Context())
		if err != nil {
			printer.PrintFailure("Status unavailable", err, tipsFor(err))
			return err
		}

		if statusJSON {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			printer.Println(string(data))
			return nil
		}

		printer.PrintHeader("Device Status", commandLine(cmd), ui.Param{Key: "Server", Value: client.BaseURL})
		printer.PrintSuccess(status.Mode.String(), statusDetails(status)...)
		return nil
	},
}

func statusDetails(status *portal.StatusResponse) []ui.Param {
	details := []ui.Param{
		{Key: "Busy", Value: strconv.FormatBool(status.Busy)},
		{Key: "Networks", Value: strconv.Itoa(len(status.Networks))},
	}
	if status.LastScanAt != nil {
		details = append(details, ui.Param{Key: "Last scan", Value: status.LastScanAt.Local().Format(time.DateTime)})
	}
	if o := status.LastOutcome; o != nil {
		result := "joined"
		if !o.Succeeded {
			result = "failed"
			if o.Detail != "" {
				result += ": " + o.Detail
			}
		}
		details = append(details, ui.Param{Key: "Last join", Value: o.SSID + " (" + result + ")"})
	}
	if status.DaemonFailures > 0 {
		details = append(details, ui.Param{Key: "Daemon failures", Value: strconv.Itoa(status.DaemonFailures)})
	}

	units := make([]string, 0, len(status.Daemons))
	for unit := range status.Daemons {
		units = append(units, unit)
	}
	slices.Sort(units)
	for _, unit := range units {
		state := "inactive"
		if status.Daemons[unit] {
			state = "active"
		}
		details = append(details, ui.Param{Key: unit, Value: state})
	}
	return details
}

// --- find ---

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find hotspoter devices on the local network",
	Long: `Browse mDNS for hotspoter portals.

Run this from the network a device just joined to learn its address.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer := ui.NewPrinter(cmd.OutOrStdout())
		printer.PrintHeader("Find Devices", commandLine(cmd), ui.Param{Key: "Timeout", Value: findTimeout.String()})

		browser := discovery.NewBrowser()
		browser.Timeout = findTimeout

		var devices []*discovery.Device
		err := ui.RunWithSpinner(cmd.Context(), "Listening for advertisements", findTimeout, func(ctx context.Context) error {
			var err error
			devices, err = browser.Browse(ctx)
			return err
		})
		if err != nil {
			printer.PrintFailure("Discovery failed", err, []string{"Check that multicast traffic is allowed on this network"})
			return err
		}

		if len(devices) == 0 {
			printer.PrintWarning("No devices found",
				ui.Param{Key: "Hint", Value: "increase --timeout or check the device is on this network"},
			)
			return nil
		}

		for _, d := range devices {
			printer.PrintSuccess(d.Instance,
				ui.Param{Key: "Portal", Value: d.BaseURL()},
				ui.Param{Key: "Mode", Value: d.Mode},
				ui.Param{Key: "Host", Value: d.Hostname},
			)
		}
		return nil
	},
}

// --- watch ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream portal events",
	Long: `Print scan, join and mode change events as the device publishes them.

The stream ends when the device's access point goes down.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := portal.NewClient(serverAddr)
		events, err := client.Events(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for event := range events {
			if watchJSON {
				_, _ = fmt.Fprintln(out, string(event.Data))
				continue
			}
			_, _ = fmt.Fprintf(out, "%s  %s\n", time.Now().Format(time.TimeOnly), describeEvent(event))
		}
		return nil
	},
}

func describeEvent(event portal.Event) string {
	switch event.Name {
	case orchestrator.EventScanComplete:
		payload, err := event.ScanComplete()
		if err != nil {
			break
		}
		names := make([]string, 0, len(payload.Candidates))
		for _, c := range payload.Candidates {
			names = append(names, c.String())
		}
		return fmt.Sprintf("scan complete: %d networks %s", len(names), strings.Join(names, ", "))
	case orchestrator.EventJoinComplete:
		payload, err := event.JoinComplete()
		if err != nil {
			break
		}
		if payload.Succeeded {
			return "joined " + payload.SSID
		}
		return fmt.Sprintf("join %s failed: %s", payload.SSID, payload.Detail)
	case orchestrator.EventModeChanged:
		var payload orchestrator.ModeChanged
		if json.Unmarshal(event.Data, &payload) == nil {
			return fmt.Sprintf("mode %s -> %s", payload.From, payload.To)
		}
	}
	return event.Name + " " + string(event.Data)
}

// --- helpers ---

func commandLine(cmd *cobra.Command) string {
	line := cmd.CommandPath()
	if args := cmd.Flags().Args(); len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	return line
}

func tipsFor(err error) []string {
	switch {
	case portal.IsUnreachable(err):
		return unreachableTips
	case portal.IsBusyReply(err):
		return []string{"Another scan or join is running; wait for it to finish", "Check progress with: hotspoter watch"}
	default:
		return nil
	}
}
