package wifi

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestScanner(radio *fakeRadio, sleeper *recordingSleeper) *Scanner {
	s := NewScanner(radio, ScannerConfig{}, zap.NewNop())
	s.sleep = sleeper.sleep
	return s
}

func TestNewScanner_Defaults(t *testing.T) {
	s := NewScanner(&fakeRadio{}, ScannerConfig{}, nil)
	if s.interval != RescanInterval {
		t.Errorf("expected default interval %s, got %s", RescanInterval, s.interval)
	}
}

func TestScanner_RescansOncePerSecond(t *testing.T) {
	radio := &fakeRadio{listOutput: "SSID SIGNAL\nCafe 80\nHome Net 45\n"}
	sleeper := &recordingSleeper{radio: radio}
	s := newTestScanner(radio, sleeper)

	session := s.Scan(context.Background(), 3)

	if radio.rescans != 3 {
		t.Errorf("expected 3 rescans, got %d", radio.rescans)
	}
	if len(sleeper.waits) != 3 {
		t.Fatalf("expected 3 waits, got %d", len(sleeper.waits))
	}
	for _, w := range sleeper.waits {
		if w != time.Second {
			t.Errorf("expected 1s waits, got %s", w)
		}
	}

	want := []string{"rescan", "sleep", "rescan", "sleep", "rescan", "sleep", "list"}
	if len(radio.events) != len(want) {
		t.Fatalf("events = %v, want %v", radio.events, want)
	}
	for i := range want {
		if radio.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", radio.events, want)
		}
	}

	if session.DurationSeconds != 3 {
		t.Errorf("expected DurationSeconds 3, got %d", session.DurationSeconds)
	}
	if len(session.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(session.Candidates))
	}
	if session.Candidates[1].SSID != "Home Net" || session.Candidates[1].SignalPercent != 45 {
		t.Errorf("unexpected second candidate: %+v", session.Candidates[1])
	}
	if session.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
}

func TestScanner_ListFailureYieldsEmptyList(t *testing.T) {
	radio := &fakeRadio{listErr: errors.New("nmcli: device not ready")}
	s := newTestScanner(radio, &recordingSleeper{})

	session := s.Scan(context.Background(), 1)

	if session.Candidates == nil {
		t.Fatal("expected non-nil empty candidate list")
	}
	if len(session.Candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", session.Candidates)
	}
}

func TestScanner_MalformedLinesOmitted(t *testing.T) {
	radio := &fakeRadio{listOutput: "SSID SIGNAL\n\nno-signal-here\nCafe 80\n"}
	s := newTestScanner(radio, &recordingSleeper{})

	session := s.Scan(context.Background(), 1)

	if len(session.Candidates) != 1 || session.Candidates[0].SSID != "Cafe" {
		t.Errorf("expected only Cafe, got %+v", session.Candidates)
	}
}

func TestScanner_InterruptedStillLists(t *testing.T) {
	radio := &fakeRadio{listOutput: "SSID SIGNAL\nCafe 80\n"}
	sleeper := &recordingSleeper{failAt: 2}
	s := newTestScanner(radio, sleeper)

	session := s.Scan(context.Background(), 10)

	if radio.rescans != 2 {
		t.Errorf("expected scan loop to stop after 2 rescans, got %d", radio.rescans)
	}
	if len(session.Candidates) != 1 {
		t.Errorf("expected listing after interruption, got %+v", session.Candidates)
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
