package supervisor

import (
	"context"

	"github.com/muurk/hotspoter/internal/logging"
	"github.com/muurk/hotspoter/internal/system"
	"go.uber.org/zap"
)

// Target is the desired daemon set.
type Target struct {
	AP     bool
	Client bool
}

var (
	// TargetAP runs the access point and stops the client daemons.
	TargetAP = Target{AP: true, Client: false}

	// TargetClient runs the client daemons and stops the access point.
	TargetClient = Target{AP: false, Client: true}
)

// String returns a short label for logging.
func (t Target) String() string {
	switch {
	case t.AP && !t.Client:
		return "ap"
	case t.Client && !t.AP:
		return "client"
	case t.AP && t.Client:
		return "ap+client"
	default:
		return "none"
	}
}

// Units names the systemd units under supervision.
type Units struct {
	AP                string
	ConnectionManager string
	Supplicant        string
}

// DefaultUnits returns the unit names of a stock Raspberry Pi OS image.
func DefaultUnits() Units {
	return Units{
		AP:                "hostapd",
		ConnectionManager: "NetworkManager",
		Supplicant:        "wpa_supplicant",
	}
}

// Supervisor toggles units through systemctl.
type Supervisor struct {
	runner    system.Runner
	units     Units
	systemctl string
	logger    *zap.Logger
}

// New creates a Supervisor. Empty unit names fall back to DefaultUnits.
func New(runner system.Runner, units Units, logger *zap.Logger) *Supervisor {
	defaults := DefaultUnits()
	if units.AP == "" {
		units.AP = defaults.AP
	}
	if units.ConnectionManager == "" {
		units.ConnectionManager = defaults.ConnectionManager
	}
	if units.Supplicant == "" {
		units.Supplicant = defaults.Supplicant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		runner:    runner,
		units:     units,
		systemctl: "systemctl",
		logger:    logger,
	}
}

// Units returns the supervised unit names.
func (s *Supervisor) Units() Units {
	return s.units
}

type action struct {
	verb string
	unit string
}

// plan orders the unit actions for a target. Stops come first so the radio is
// released before another daemon claims it.
func (s *Supervisor) plan(target Target) []action {
	var stops, starts []action

	apAction := action{verb: "stop", unit: s.units.AP}
	if target.AP {
		apAction.verb = "start"
	}

	clientVerb := "stop"
	if target.Client {
		clientVerb = "start"
	}
	clientActions := []action{
		{verb: clientVerb, unit: s.units.ConnectionManager},
		{verb: clientVerb, unit: s.units.Supplicant},
	}

	for _, a := range append([]action{apAction}, clientActions...) {
		if a.verb == "stop" {
			stops = append(stops, a)
		} else {
			starts = append(starts, a)
		}
	}

	return append(stops, starts...)
}

// Ensure starts and stops units to match target. It returns true only if
// every action succeeded.
func (s *Supervisor) Ensure(ctx context.Context, target Target) bool {
	ok := true

	for _, a := range s.plan(target) {
		result, err := s.runner.Run(ctx, s.systemctl, a.verb, a.unit)
		if err != nil {
			ok = false
			detail := err.Error()
			if result != nil && result.Output() != "" {
				detail = result.Output()
			}
			logging.LogDaemonAction(s.logger, a.unit, a.verb, false, detail)
			continue
		}
		logging.LogDaemonAction(s.logger, a.unit, a.verb, true, "")
	}

	if ok {
		s.logger.Info("Daemon set applied", zap.String("target", target.String()))
	} else {
		s.logger.Warn("Daemon set partially applied", zap.String("target", target.String()))
	}

	return ok
}

// Status reports whether each supervised unit is active.
func (s *Supervisor) Status(ctx context.Context) map[string]bool {
	status := make(map[string]bool, 3)
	for _, unit := range []string{s.units.AP, s.units.ConnectionManager, s.units.Supplicant} {
		_, err := s.runner.Run(ctx, s.systemctl, "is-active", "--quiet", unit)
		status[unit] = err == nil
	}
	return status
}
