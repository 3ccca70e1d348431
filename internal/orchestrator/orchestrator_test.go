package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muurk/hotspoter/internal/supervisor"
	"github.com/muurk/hotspoter/internal/wifi"
)

// fakeSupervisor records every Ensure call.
type fakeSupervisor struct {
	mu      sync.Mutex
	targets []supervisor.Target
	ctxErrs []error
	fail    bool
}

func (f *fakeSupervisor) Ensure(ctx context.Context, target supervisor.Target) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	// systemctl under exec.CommandContext fails on a done context
	if ctx.Err() != nil {
		return false
	}
	return !f.fail
}

func (f *fakeSupervisor) calls() []supervisor.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]supervisor.Target(nil), f.targets...)
}

// fakeScanner returns a fixed session, optionally blocking until released.
type fakeScanner struct {
	candidates []wifi.Candidate
	release    chan struct{}
	panics     bool

	mu        sync.Mutex
	durations []int
}

func (f *fakeScanner) Scan(ctx context.Context, durationSeconds int) *wifi.ScanSession {
	f.mu.Lock()
	f.durations = append(f.durations, durationSeconds)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("radio exploded")
	}
	return &wifi.ScanSession{
		StartedAt:       time.Now(),
		DurationSeconds: durationSeconds,
		Candidates:      append([]wifi.Candidate(nil), f.candidates...),
	}
}

// fakeJoiner returns a fixed outcome, optionally blocking until released.
type fakeJoiner struct {
	succeed bool
	detail  string
	release chan struct{}

	mu       sync.Mutex
	requests []wifi.JoinRequest
}

func (f *fakeJoiner) Join(ctx context.Context, req wifi.JoinRequest) wifi.JoinOutcome {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	return wifi.JoinOutcome{Succeeded: f.succeed, SSID: req.SSID, Detail: f.detail}
}

type published struct {
	event   string
	payload any
}

// recordingPublisher captures events along with the mode at publish time.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	modes  []Mode
	orch   *Orchestrator
}

func (r *recordingPublisher) Publish(event string, payload any) {
	var mode Mode
	if r.orch != nil {
		mode = r.orch.Mode()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{event: event, payload: payload})
	r.modes = append(r.modes, mode)
}

func (r *recordingPublisher) only(event string) []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []published
	for _, e := range r.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []wifi.JoinOutcome
	err      error
}

func (f *fakeRecorder) RecordJoin(outcome wifi.JoinOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return f.err
}

type harness struct {
	orch       *Orchestrator
	supervisor *fakeSupervisor
	scanner    *fakeScanner
	joiner     *fakeJoiner
	publisher  *recordingPublisher
	recorder   *fakeRecorder
}

func newHarness() *harness {
	h := &harness{
		supervisor: &fakeSupervisor{},
		scanner:    &fakeScanner{},
		joiner:     &fakeJoiner{},
		publisher:  &recordingPublisher{},
		recorder:   &fakeRecorder{},
	}
	h.orch = New(Options{
		Supervisor: h.supervisor,
		Scanner:    h.scanner,
		Joiner:     h.joiner,
		Publisher:  h.publisher,
		Recorder:   h.recorder,
	})
	h.publisher.orch = h.orch
	return h
}

func TestNew_InitialState(t *testing.T) {
	h := newHarness()

	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
	if networks := h.orch.Networks(); networks == nil || len(networks) != 0 {
		t.Errorf("Networks() = %#v, want empty non-nil slice", networks)
	}
	if _, ok := h.orch.LastOutcome(); ok {
		t.Error("LastOutcome() reported an outcome before any join")
	}
}

func TestStart_EnforcesAPDaemons(t *testing.T) {
	h := newHarness()

	if err := h.orch.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	calls := h.supervisor.calls()
	if len(calls) != 1 || calls[0] != supervisor.TargetAP {
		t.Errorf("Ensure calls = %v, want [ap]", calls)
	}
	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
}

func TestRequestScan_Validation(t *testing.T) {
	tests := []struct {
		name     string
		duration int
	}{
		{"zero", 0},
		{"negative", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			err := h.orch.RequestScan(tt.duration)
			if !IsValidation(err) {
				t.Fatalf("RequestScan(%d) error = %v, want validation error", tt.duration, err)
			}
			if got := h.orch.Mode(); got != ModeAPServing {
				t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
			}
			if len(h.supervisor.calls()) != 0 {
				t.Error("supervisor was called for a rejected request")
			}
		})
	}
}

func TestRequestScan_Completes(t *testing.T) {
	h := newHarness()
	h.scanner.candidates = []wifi.Candidate{{SSID: "Cafe", SignalPercent: 80}}

	if err := h.orch.RequestScan(4); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	h.orch.Wait()

	calls := h.supervisor.calls()
	want := []supervisor.Target{supervisor.TargetClient, supervisor.TargetAP}
	if len(calls) != len(want) {
		t.Fatalf("Ensure calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Ensure call %d = %v, want %v", i, calls[i], want[i])
		}
	}

	if len(h.scanner.durations) != 1 || h.scanner.durations[0] != 4 {
		t.Errorf("scanner durations = %v, want [4]", h.scanner.durations)
	}

	scans := h.publisher.only(EventScanComplete)
	if len(scans) != 1 {
		t.Fatalf("got %d scanComplete events, want 1", len(scans))
	}
	payload, ok := scans[0].payload.(ScanComplete)
	if !ok {
		t.Fatalf("payload type = %T, want ScanComplete", scans[0].payload)
	}
	if payload.Event != EventScanComplete {
		t.Errorf("payload.Event = %q, want %q", payload.Event, EventScanComplete)
	}
	if len(payload.Candidates) != 1 || payload.Candidates[0].SSID != "Cafe" {
		t.Errorf("payload.Candidates = %v", payload.Candidates)
	}

	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
	if got := h.orch.Networks(); len(got) != 1 || got[0].SSID != "Cafe" {
		t.Errorf("Networks() = %v", got)
	}
	if h.orch.Status().LastScanAt == nil {
		t.Error("Status().LastScanAt not set after scan")
	}
}

func TestRequestScan_PublishesAfterReturningToAP(t *testing.T) {
	h := newHarness()

	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	h.orch.Wait()

	h.publisher.mu.Lock()
	defer h.publisher.mu.Unlock()
	for i, e := range h.publisher.events {
		if e.event == EventScanComplete && h.publisher.modes[i] != ModeAPServing {
			t.Errorf("scanComplete published in mode %v, want %v", h.publisher.modes[i], ModeAPServing)
		}
	}
}

func TestRequestScan_ReplacesNetworks(t *testing.T) {
	h := newHarness()
	h.scanner.candidates = []wifi.Candidate{{SSID: "Old", SignalPercent: 50}}
	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("first RequestScan() error = %v", err)
	}
	h.orch.Wait()

	h.scanner.candidates = nil
	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("second RequestScan() error = %v", err)
	}
	h.orch.Wait()

	if got := h.orch.Networks(); len(got) != 0 {
		t.Errorf("Networks() = %v, want empty after an empty scan", got)
	}

	scans := h.publisher.only(EventScanComplete)
	if len(scans) != 2 {
		t.Fatalf("got %d scanComplete events, want 2", len(scans))
	}
	last := scans[1].payload.(ScanComplete)
	if last.Candidates == nil || len(last.Candidates) != 0 {
		t.Errorf("empty scan payload = %#v, want empty non-nil slice", last.Candidates)
	}
}

func TestNetworks_ReturnsCopy(t *testing.T) {
	h := newHarness()
	h.scanner.candidates = []wifi.Candidate{{SSID: "Cafe", SignalPercent: 80}}
	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	h.orch.Wait()

	networks := h.orch.Networks()
	networks[0].SSID = "mutated"

	if got := h.orch.Networks()[0].SSID; got != "Cafe" {
		t.Errorf("Networks()[0].SSID = %q after caller mutation, want Cafe", got)
	}
}

func TestRequestScan_BusyWhileScanning(t *testing.T) {
	h := newHarness()
	h.scanner.release = make(chan struct{})

	if err := h.orch.RequestScan(10); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	if got := h.orch.Mode(); got != ModeScanning {
		t.Errorf("Mode() = %v, want %v", got, ModeScanning)
	}

	err := h.orch.RequestScan(10)
	if !IsBusy(err) {
		t.Errorf("second RequestScan() error = %v, want ErrBusy", err)
	}
	if !errors.Is(err, ErrBusy) {
		t.Errorf("errors.Is(err, ErrBusy) = false for %v", err)
	}
	if err := h.orch.RequestJoin(wifi.JoinRequest{SSID: "Cafe"}); !IsBusy(err) {
		t.Errorf("RequestJoin() during scan error = %v, want ErrBusy", err)
	}
	if err := h.orch.ReturnToAP(context.Background()); !IsBusy(err) {
		t.Errorf("ReturnToAP() during scan error = %v, want ErrBusy", err)
	}

	close(h.scanner.release)
	h.orch.Wait()

	if n := len(h.publisher.only(EventScanComplete)); n != 1 {
		t.Errorf("got %d scanComplete events, want 1", n)
	}
	if n := len(h.scanner.durations); n != 1 {
		t.Errorf("scanner ran %d times, want 1", n)
	}
	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
}

func TestRequestScan_ConcurrentAdmitsOne(t *testing.T) {
	h := newHarness()
	h.scanner.release = make(chan struct{})

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		busy     int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := h.orch.RequestScan(1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case IsBusy(err):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(h.scanner.release)
	h.orch.Wait()

	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
	if busy != callers-1 {
		t.Errorf("busy = %d, want %d", busy, callers-1)
	}
}

func TestRequestScan_DaemonFailureStillCompletes(t *testing.T) {
	h := newHarness()
	h.supervisor.fail = true

	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	h.orch.Wait()

	if n := len(h.publisher.only(EventScanComplete)); n != 1 {
		t.Errorf("got %d scanComplete events, want 1", n)
	}
	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
	if got := h.orch.Status().DaemonFailures; got != 2 {
		t.Errorf("DaemonFailures = %d, want 2", got)
	}
}

func TestRequestScan_PanicRestoresAP(t *testing.T) {
	h := newHarness()
	h.scanner.panics = true

	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	h.orch.Wait()

	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
	calls := h.supervisor.calls()
	if len(calls) == 0 || calls[len(calls)-1] != supervisor.TargetAP {
		t.Errorf("last Ensure call = %v, want ap", calls)
	}
	h.scanner.panics = false
	if err := h.orch.RequestScan(1); err != nil {
		t.Errorf("RequestScan() after recovery error = %v", err)
	}
	h.orch.Wait()
}

func TestRequestJoin_Validation(t *testing.T) {
	h := newHarness()

	err := h.orch.RequestJoin(wifi.JoinRequest{Passphrase: "secret"})
	if !IsValidation(err) {
		t.Fatalf("RequestJoin() error = %v, want validation error", err)
	}
	if len(h.supervisor.calls()) != 0 {
		t.Error("supervisor was called for an invalid join")
	}
}

func TestRequestJoin_Success(t *testing.T) {
	h := newHarness()
	h.joiner.succeed = true

	req := wifi.JoinRequest{SSID: "Cafe", Passphrase: "hunter22"}
	if err := h.orch.RequestJoin(req); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	h.orch.Wait()

	calls := h.supervisor.calls()
	if len(calls) != 1 || calls[0] != supervisor.TargetClient {
		t.Errorf("Ensure calls = %v, want [client] with no rollback", calls)
	}
	if len(h.joiner.requests) != 1 || h.joiner.requests[0] != req {
		t.Errorf("joiner requests = %v, want [%v]", h.joiner.requests, req)
	}
	if got := h.orch.Mode(); got != ModeClientConnected {
		t.Errorf("Mode() = %v, want %v", got, ModeClientConnected)
	}

	joins := h.publisher.only(EventJoinComplete)
	if len(joins) != 1 {
		t.Fatalf("got %d joinComplete events, want 1", len(joins))
	}
	payload := joins[0].payload.(JoinComplete)
	if !payload.Succeeded || payload.SSID != "Cafe" {
		t.Errorf("payload = %+v, want success for Cafe", payload)
	}

	outcome, ok := h.orch.LastOutcome()
	if !ok || !outcome.Succeeded {
		t.Errorf("LastOutcome() = %+v, %v", outcome, ok)
	}
	if len(h.recorder.outcomes) != 1 {
		t.Errorf("recorder got %d outcomes, want 1", len(h.recorder.outcomes))
	}
}

func TestRequestJoin_FailureRollsBack(t *testing.T) {
	h := newHarness()
	h.joiner.detail = "Error: Secrets were required, but not provided."

	if err := h.orch.RequestJoin(wifi.JoinRequest{SSID: "Cafe", Passphrase: "wrong"}); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	h.orch.Wait()

	calls := h.supervisor.calls()
	want := []supervisor.Target{supervisor.TargetClient, supervisor.TargetAP}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("Ensure calls = %v, want %v", calls, want)
	}
	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}

	joins := h.publisher.only(EventJoinComplete)
	if len(joins) != 1 {
		t.Fatalf("got %d joinComplete events, want 1", len(joins))
	}
	payload := joins[0].payload.(JoinComplete)
	if payload.Succeeded {
		t.Error("payload.Succeeded = true, want false")
	}
	if payload.Detail != h.joiner.detail {
		t.Errorf("payload.Detail = %q, want %q", payload.Detail, h.joiner.detail)
	}

	// The failure is published once the access point is back
	h.publisher.mu.Lock()
	defer h.publisher.mu.Unlock()
	for i, e := range h.publisher.events {
		if e.event == EventJoinComplete && h.publisher.modes[i] != ModeAPServing {
			t.Errorf("joinComplete published in mode %v, want %v", h.publisher.modes[i], ModeAPServing)
		}
	}
}

func TestRequestJoin_RecorderErrorDoesNotBlockPublish(t *testing.T) {
	h := newHarness()
	h.joiner.succeed = true
	h.recorder.err = errors.New("disk full")

	if err := h.orch.RequestJoin(wifi.JoinRequest{SSID: "Cafe"}); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	h.orch.Wait()

	if n := len(h.publisher.only(EventJoinComplete)); n != 1 {
		t.Errorf("got %d joinComplete events, want 1", n)
	}
}

func TestClientConnected_RejectsUntilReturnToAP(t *testing.T) {
	h := newHarness()
	h.joiner.succeed = true

	if err := h.orch.RequestJoin(wifi.JoinRequest{SSID: "Cafe"}); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	h.orch.Wait()

	err := h.orch.RequestScan(3)
	if !IsBusy(err) {
		t.Fatalf("RequestScan() in client mode error = %v, want ErrBusy", err)
	}
	if msg := ShortMessage(err); msg == "" {
		t.Error("ShortMessage() returned empty string")
	}

	if err := h.orch.ReturnToAP(context.Background()); err != nil {
		t.Fatalf("ReturnToAP() error = %v", err)
	}
	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
	calls := h.supervisor.calls()
	if last := calls[len(calls)-1]; last != supervisor.TargetAP {
		t.Errorf("last Ensure call = %v, want ap", last)
	}

	if err := h.orch.RequestScan(1); err != nil {
		t.Errorf("RequestScan() after ReturnToAP error = %v", err)
	}
	h.orch.Wait()
}

func TestReturnToAP_IgnoresCallerCancellation(t *testing.T) {
	h := newHarness()
	h.joiner.succeed = true

	if err := h.orch.RequestJoin(wifi.JoinRequest{SSID: "Cafe"}); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	h.orch.Wait()

	// The HTTP client gave up while the daemons were switching
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.orch.ReturnToAP(ctx); err != nil {
		t.Fatalf("ReturnToAP() error = %v", err)
	}

	h.supervisor.mu.Lock()
	lastTarget := h.supervisor.targets[len(h.supervisor.targets)-1]
	lastErr := h.supervisor.ctxErrs[len(h.supervisor.ctxErrs)-1]
	h.supervisor.mu.Unlock()

	if lastTarget != supervisor.TargetAP {
		t.Errorf("last Ensure call = %v, want ap", lastTarget)
	}
	if lastErr != nil {
		t.Errorf("Ensure saw cancelled context: %v", lastErr)
	}
	if got := h.orch.Status().DaemonFailures; got != 0 {
		t.Errorf("DaemonFailures = %d, want 0", got)
	}
	if got := h.orch.Mode(); got != ModeAPServing {
		t.Errorf("Mode() = %v, want %v", got, ModeAPServing)
	}
}

func TestModeChanged_Events(t *testing.T) {
	h := newHarness()

	if err := h.orch.RequestScan(1); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	h.orch.Wait()

	changes := h.publisher.only(EventModeChanged)
	if len(changes) != 2 {
		t.Fatalf("got %d modeChanged events, want 2", len(changes))
	}
	first := changes[0].payload.(ModeChanged)
	second := changes[1].payload.(ModeChanged)
	if first.From != ModeAPServing || first.To != ModeScanning {
		t.Errorf("first change = %+v", first)
	}
	if second.From != ModeScanning || second.To != ModeAPServing {
		t.Errorf("second change = %+v", second)
	}
}

// scriptedRadio is a wifi.Radio that reports a fixed listing.
type scriptedRadio struct {
	mu       sync.Mutex
	rescans  int
	listing  string
	connects []string
}

func (r *scriptedRadio) Rescan(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rescans++
	return nil
}

func (r *scriptedRadio) ListNetworks(ctx context.Context) (string, error) {
	return r.listing, nil
}

func (r *scriptedRadio) Connect(ctx context.Context, ssid, passphrase string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connects = append(r.connects, ssid)
	return "Device 'wlan0' successfully activated.", nil
}

func TestEndToEnd_ScanThenJoin(t *testing.T) {
	radio := &scriptedRadio{
		listing: "SSID      SIGNAL\nCafe      80\nHome Net  45\n",
	}
	sup := &fakeSupervisor{}
	pub := &recordingPublisher{}

	orch := New(Options{
		Supervisor: sup,
		Scanner:    wifi.NewScanner(radio, wifi.ScannerConfig{RescanInterval: time.Millisecond}, nil),
		Joiner: wifi.NewJoiner(radio, wifi.JoinerConfig{
			DaemonSettle: time.Millisecond,
			ScanSettle:   time.Millisecond,
		}, nil),
		Publisher: pub,
	})

	if err := orch.RequestScan(3); err != nil {
		t.Fatalf("RequestScan() error = %v", err)
	}
	orch.Wait()

	if radio.rescans != 3 {
		t.Errorf("rescans = %d, want 3", radio.rescans)
	}
	scans := pub.only(EventScanComplete)
	if len(scans) != 1 {
		t.Fatalf("got %d scanComplete events, want 1", len(scans))
	}
	candidates := scans[0].payload.(ScanComplete).Candidates
	want := []wifi.Candidate{{SSID: "Cafe", SignalPercent: 80}, {SSID: "Home Net", SignalPercent: 45}}
	if len(candidates) != len(want) {
		t.Fatalf("candidates = %v, want %v", candidates, want)
	}
	for i := range want {
		if candidates[i] != want[i] {
			t.Errorf("candidate %d = %v, want %v", i, candidates[i], want[i])
		}
	}

	if err := orch.RequestJoin(wifi.JoinRequest{SSID: "Home Net", Passphrase: "pw"}); err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	orch.Wait()

	if got := orch.Mode(); got != ModeClientConnected {
		t.Errorf("Mode() = %v, want %v", got, ModeClientConnected)
	}
	if len(radio.connects) != 1 || radio.connects[0] != "Home Net" {
		t.Errorf("connects = %v, want [Home Net]", radio.connects)
	}
}
