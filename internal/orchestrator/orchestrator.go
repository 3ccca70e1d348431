package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/hotspoter/internal/logging"
	"github.com/muurk/hotspoter/internal/supervisor"
	"github.com/muurk/hotspoter/internal/wifi"
	"go.uber.org/zap"
)

// Supervisor applies a daemon set. It reports failure instead of erroring.
type Supervisor interface {
	Ensure(ctx context.Context, target supervisor.Target) bool
}

// Scanner runs one scan cycle against already-running client daemons.
type Scanner interface {
	Scan(ctx context.Context, durationSeconds int) *wifi.ScanSession
}

// Joiner makes one join attempt against already-running client daemons.
type Joiner interface {
	Join(ctx context.Context, req wifi.JoinRequest) wifi.JoinOutcome
}

// Recorder persists the most recent join outcome.
type Recorder interface {
	RecordJoin(outcome wifi.JoinOutcome) error
}

// Options wires an Orchestrator. Supervisor, Scanner and Joiner are required.
type Options struct {
	Supervisor Supervisor
	Scanner    Scanner
	Joiner     Joiner
	Publisher  Publisher
	Recorder   Recorder
	Logger     *zap.Logger
}

// Status is a point-in-time snapshot of the orchestrator.
type Status struct {
	Mode           Mode              `json:"mode"`
	Busy           bool              `json:"busy"`
	Networks       []wifi.Candidate  `json:"networks"`
	LastScanAt     *time.Time        `json:"lastScanAt,omitempty"`
	LastOutcome    *wifi.JoinOutcome `json:"lastOutcome,omitempty"`
	DaemonFailures int               `json:"daemonFailures"`
}

// Orchestrator owns the radio. At most one scan, join or reset runs at a time.
type Orchestrator struct {
	supervisor Supervisor
	scanner    Scanner
	joiner     Joiner
	publisher  Publisher
	recorder   Recorder
	logger     *zap.Logger

	// ctx is the context for background work; there is no external cancel
	ctx context.Context

	// mu protects everything below
	mu             sync.Mutex
	mode           Mode
	inFlight       bool
	networks       []wifi.Candidate
	lastScanAt     time.Time
	lastOutcome    *wifi.JoinOutcome
	daemonFailures int

	wg sync.WaitGroup
}

// New creates an Orchestrator in ModeAPServing. Call Start to enforce the
// matching daemon set at boot.
func New(opts Options) *Orchestrator {
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		supervisor: opts.Supervisor,
		scanner:    opts.Scanner,
		joiner:     opts.Joiner,
		publisher:  opts.Publisher,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		ctx:        context.Background(),
		mode:       ModeAPServing,
		networks:   []wifi.Candidate{},
	}
}

// Mode returns the current radio mode.
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Networks returns a copy of the candidates from the latest scan.
func (o *Orchestrator) Networks() []wifi.Candidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyCandidates(o.networks)
}

// LastOutcome returns the most recent join outcome, if any.
func (o *Orchestrator) LastOutcome() (wifi.JoinOutcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastOutcome == nil {
		return wifi.JoinOutcome{}, false
	}
	return *o.lastOutcome, true
}

// Status returns a snapshot for diagnostics and the portal API.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{
		Mode:           o.mode,
		Busy:           o.inFlight,
		Networks:       copyCandidates(o.networks),
		DaemonFailures: o.daemonFailures,
	}
	if !o.lastScanAt.IsZero() {
		at := o.lastScanAt
		status.LastScanAt = &at
	}
	if o.lastOutcome != nil {
		outcome := *o.lastOutcome
		status.LastOutcome = &outcome
	}
	return status
}

// Wait blocks until in-flight background work has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// admit is the single-slot gate. It moves AP-serving to next and marks the
// radio busy, or rejects with ErrBusy leaving the mode untouched.
func (o *Orchestrator) admit(next Mode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight || o.mode != ModeAPServing {
		return newBusyError(o.mode)
	}

	o.inFlight = true
	o.mode = next
	o.wg.Add(1)
	return nil
}

// settle records the final mode of a unit of work and reopens the gate.
func (o *Orchestrator) settle(final Mode, update func()) Mode {
	o.mu.Lock()
	defer o.mu.Unlock()

	previous := o.mode
	if update != nil {
		update()
	}
	o.mode = final
	o.inFlight = false
	return previous
}

func (o *Orchestrator) transitioned(from, to Mode, reason string) {
	if from == to {
		return
	}
	logging.LogTransition(o.logger, from.String(), to.String(), reason)
	o.publisher.Publish(EventModeChanged, ModeChanged{Event: EventModeChanged, From: from, To: to})
}

func (o *Orchestrator) ensure(target supervisor.Target, reason string) {
	if o.supervisor.Ensure(o.ctx, target) {
		return
	}

	o.mu.Lock()
	o.daemonFailures++
	o.mu.Unlock()

	// Proceed anyway: some daemons may already be in the right state
	o.logger.Warn("Daemon control failure, continuing transition",
		zap.String("target", target.String()),
		zap.String("reason", reason),
		zap.Stringer("error_type", ErrTypeDaemonControl),
	)
}

// recoverToAP restores AP serving if a unit of work panics, so every path
// ends in a known mode.
func (o *Orchestrator) recoverToAP(operation string) {
	r := recover()
	if r == nil {
		return
	}
	o.logger.Error("Recovered from panic, restoring AP mode",
		zap.String("operation", operation),
		zap.Any("panic", r),
	)
	o.ensure(supervisor.TargetAP, "panic recovery")
	from := o.settle(ModeAPServing, nil)
	o.transitioned(from, ModeAPServing, "panic recovery")
}

// RequestScan starts a scan in the background and returns immediately.
// The result is published as EventScanComplete.
func (o *Orchestrator) RequestScan(durationSeconds int) error {
	if durationSeconds <= 0 {
		return newValidationError(fmt.Sprintf("scan duration must be positive, got %d", durationSeconds))
	}
	if err := o.admit(ModeScanning); err != nil {
		o.logger.Info("Scan request rejected", zap.Error(err))
		return err
	}

	o.transitioned(ModeAPServing, ModeScanning, "scan requested")

	go o.runScan(durationSeconds)
	return nil
}

func (o *Orchestrator) runScan(durationSeconds int) {
	defer o.wg.Done()
	defer o.recoverToAP("scan")

	o.ensure(supervisor.TargetClient, "scan")
	session := o.scanner.Scan(o.ctx, durationSeconds)
	o.ensure(supervisor.TargetAP, "restore after scan")

	candidates := []wifi.Candidate{}
	if session != nil {
		candidates = copyCandidates(session.Candidates)
	}
	if len(candidates) == 0 {
		o.logger.Info("Scan found no networks", zap.Stringer("error_type", ErrTypeScanEmpty))
	}

	from := o.settle(ModeAPServing, func() {
		// Replace, never merge: networks that vanished must not linger
		o.networks = candidates
		if session != nil {
			o.lastScanAt = session.StartedAt
		}
	})
	o.transitioned(from, ModeAPServing, "scan complete")

	o.publisher.Publish(EventScanComplete, ScanComplete{
		Event:      EventScanComplete,
		Candidates: copyCandidates(candidates),
	})
}

// RequestJoin starts a join attempt in the background and returns
// immediately. The outcome is published as EventJoinComplete.
func (o *Orchestrator) RequestJoin(req wifi.JoinRequest) error {
	if req.SSID == "" {
		return newValidationError("ssid is required")
	}
	if err := o.admit(ModeJoining); err != nil {
		o.logger.Info("Join request rejected", zap.String("ssid", req.SSID), zap.Error(err))
		return err
	}

	o.transitioned(ModeAPServing, ModeJoining, "join requested")

	go o.runJoin(req)
	return nil
}

func (o *Orchestrator) runJoin(req wifi.JoinRequest) {
	defer o.wg.Done()
	defer o.recoverToAP("join")

	o.ensure(supervisor.TargetClient, "join")
	outcome := o.joiner.Join(o.ctx, req)

	var final Mode
	if outcome.Succeeded {
		// Commit: the AP stays down so the device is reachable on the new network
		final = ModeClientConnected
	} else {
		o.logger.Warn("Join rejected, rolling back to AP mode",
			zap.String("ssid", outcome.SSID),
			zap.String("detail", outcome.Detail),
			zap.Stringer("error_type", ErrTypeJoinRejected),
		)
		o.ensure(supervisor.TargetAP, "rollback after failed join")
		final = ModeAPServing
	}

	from := o.settle(final, func() {
		latest := outcome
		o.lastOutcome = &latest
	})
	o.transitioned(from, final, "join complete")

	if o.recorder != nil {
		if err := o.recorder.RecordJoin(outcome); err != nil {
			o.logger.Warn("Failed to record join outcome", zap.Error(err))
		}
	}

	// Published after rollback and settle, so subscribers that react to a
	// failure find the access point already back and the gate open.
	o.publisher.Publish(EventJoinComplete, JoinComplete{
		Event:     EventJoinComplete,
		Succeeded: outcome.Succeeded,
		SSID:      outcome.SSID,
		Detail:    outcome.Detail,
	})
}

// Start enforces the AP-serving daemon set at boot.
func (o *Orchestrator) Start(ctx context.Context) error {
	return o.returnToAP(ctx, "startup")
}

// ReturnToAP commands the radio back to AP-serving mode, typically from
// ModeClientConnected. It runs synchronously and fails with ErrBusy while a
// scan or join is in flight.
func (o *Orchestrator) ReturnToAP(ctx context.Context) error {
	return o.returnToAP(ctx, "reset requested")
}

func (o *Orchestrator) returnToAP(ctx context.Context, reason string) error {
	o.mu.Lock()
	if o.inFlight {
		mode := o.mode
		o.mu.Unlock()
		return newBusyError(mode)
	}
	o.inFlight = true
	o.mu.Unlock()

	// Once started the transition runs to completion even if the caller
	// goes away; a cancelled systemctl would leave hostapd down.
	ok := o.supervisor.Ensure(context.WithoutCancel(ctx), supervisor.TargetAP)
	if !ok {
		o.mu.Lock()
		o.daemonFailures++
		o.mu.Unlock()
		o.logger.Warn("Daemon control failure while returning to AP mode",
			zap.String("reason", reason),
			zap.Stringer("error_type", ErrTypeDaemonControl),
		)
	}

	from := o.settle(ModeAPServing, nil)
	o.transitioned(from, ModeAPServing, reason)
	return nil
}

func copyCandidates(in []wifi.Candidate) []wifi.Candidate {
	out := make([]wifi.Candidate, len(in))
	copy(out, in)
	return out
}
