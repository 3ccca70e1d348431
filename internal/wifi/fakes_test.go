package wifi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/muurk/hotspoter/internal/system"
)

// fakeRadio is a scripted Radio.
type fakeRadio struct {
	mu            sync.Mutex
	rescans       int
	listOutput    string
	listErr       error
	connectOutput string
	connectErr    error
	connected     []JoinRequest
	events        []string
}

func (f *fakeRadio) Rescan(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescans++
	f.events = append(f.events, "rescan")
	return nil
}

func (f *fakeRadio) ListNetworks(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "list")
	return f.listOutput, f.listErr
}

func (f *fakeRadio) Connect(ctx context.Context, ssid, passphrase string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "connect")
	f.connected = append(f.connected, JoinRequest{SSID: ssid, Passphrase: passphrase})
	return f.connectOutput, f.connectErr
}

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	waits  []time.Duration
	radio  *fakeRadio
	failAt int
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	if r.radio != nil {
		r.radio.mu.Lock()
		r.radio.events = append(r.radio.events, "sleep")
		r.radio.mu.Unlock()
	}
	if r.failAt > 0 && len(r.waits) == r.failAt {
		return context.Canceled
	}
	return nil
}

// scriptedRunner returns canned results keyed by command line.
type scriptedRunner struct {
	calls   []string
	results map[string]*system.Result
	fail    map[string]bool
}

func (s *scriptedRunner) Run(ctx context.Context, name string, args ...string) (*system.Result, error) {
	argv := append([]string{name}, args...)
	line := strings.Join(argv, " ")
	s.calls = append(s.calls, line)

	result, ok := s.results[line]
	if !ok {
		result = &system.Result{Command: argv}
	}
	if s.fail[line] {
		if result.ExitCode == 0 {
			result.ExitCode = 1
		}
		return result, &system.CommandError{Command: line, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: errors.New("exit status")}
	}
	return result, nil
}
