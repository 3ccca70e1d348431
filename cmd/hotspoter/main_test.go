package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/muurk/hotspoter/internal/config"
	"github.com/muurk/hotspoter/internal/orchestrator"
	"github.com/muurk/hotspoter/internal/portal"
	"github.com/muurk/hotspoter/internal/wifi"
)

func TestListenPort(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":80", 80, false},
		{"0.0.0.0:8080", 8080, false},
		{"[::]:443", 443, false},
		{"80", 0, true},
		{":http", 0, true},
		{":0", 0, true},
	}
	for _, tt := range tests {
		got, err := listenPort(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("listenPort(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("listenPort(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}

func TestApplyServeFlags(t *testing.T) {
	cfg := config.Default()
	if err := applyServeFlags(serveCmd, cfg); err != nil {
		t.Fatalf("applyServeFlags() with no flags error = %v", err)
	}
	if cfg.Portal.Listen != config.DefaultListen {
		t.Errorf("Listen changed without a flag: %q", cfg.Portal.Listen)
	}

	if err := serveCmd.Flags().Set("listen", ":8080"); err != nil {
		t.Fatal(err)
	}
	if err := serveCmd.Flags().Set("no-discovery", "true"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		serveListen, serveNoDiscovery = "", false
	})

	cfg = config.Default()
	cfg.Discovery.Enabled = true
	if err := applyServeFlags(serveCmd, cfg); err != nil {
		t.Fatalf("applyServeFlags() error = %v", err)
	}
	if cfg.Portal.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Portal.Listen)
	}
	if cfg.Discovery.Enabled {
		t.Error("--no-discovery did not disable discovery")
	}
}

func event(t *testing.T, name string, payload any) portal.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return portal.Event{Name: name, Data: data}
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		name  string
		event portal.Event
		want  string
	}{
		{
			name: "scan",
			event: event(t, orchestrator.EventScanComplete, orchestrator.ScanComplete{
				Event:      orchestrator.EventScanComplete,
				Candidates: []wifi.Candidate{{SSID: "Cafe", SignalPercent: 80}},
			}),
			want: "scan complete: 1 networks Cafe (80%)",
		},
		{
			name: "join failed",
			event: event(t, orchestrator.EventJoinComplete, orchestrator.JoinComplete{
				Event: orchestrator.EventJoinComplete, SSID: "Cafe", Detail: "secrets required",
			}),
			want: "join Cafe failed: secrets required",
		},
		{
			name: "joined",
			event: event(t, orchestrator.EventJoinComplete, orchestrator.JoinComplete{
				Event: orchestrator.EventJoinComplete, SSID: "Cafe", Succeeded: true,
			}),
			want: "joined Cafe",
		},
		{
			name: "mode",
			event: event(t, orchestrator.EventModeChanged, orchestrator.ModeChanged{
				Event: orchestrator.EventModeChanged, From: orchestrator.ModeAPServing, To: orchestrator.ModeScanning,
			}),
			want: "mode ap_serving -> scanning",
		},
		{
			name:  "unknown",
			event: portal.Event{Name: "other", Data: []byte(`{"event":"other"}`)},
			want:  `other {"event":"other"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeEvent(tt.event); got != tt.want {
				t.Errorf("describeEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAwaitScan(t *testing.T) {
	events := make(chan portal.Event, 2)
	events <- event(t, orchestrator.EventModeChanged, orchestrator.ModeChanged{Event: orchestrator.EventModeChanged})
	events <- event(t, orchestrator.EventScanComplete, orchestrator.ScanComplete{
		Event:      orchestrator.EventScanComplete,
		Candidates: []wifi.Candidate{{SSID: "Home Net", SignalPercent: 45}},
	})

	got, ok := awaitScan(context.Background(), events)
	if !ok || len(got) != 1 || got[0].SSID != "Home Net" {
		t.Fatalf("awaitScan() = %v, %v", got, ok)
	}

	closed := make(chan portal.Event)
	close(closed)
	if _, ok := awaitScan(context.Background(), closed); ok {
		t.Error("awaitScan() on a closed stream reported a result")
	}
	if _, ok := awaitScan(context.Background(), nil); ok {
		t.Error("awaitScan() without a stream reported a result")
	}
}

func TestAwaitJoin_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, ok := awaitJoin(ctx, make(chan portal.Event)); ok {
		t.Error("awaitJoin() reported a result after timeout")
	}
}

func TestStatusDetails(t *testing.T) {
	scanned := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	details := statusDetails(&portal.StatusResponse{
		Status: orchestrator.Status{
			Mode:           orchestrator.ModeAPServing,
			LastScanAt:     &scanned,
			LastOutcome:    &wifi.JoinOutcome{SSID: "Cafe", Detail: "secrets required"},
			DaemonFailures: 1,
		},
		Daemons: map[string]bool{"wpa_supplicant": false, "hostapd": true},
	})

	var lines []string
	for _, d := range details {
		lines = append(lines, d.Key+"="+d.Value)
	}
	joined := strings.Join(lines, "\n")

	for _, want := range []string{
		"Busy=false",
		"Last join=Cafe (failed: secrets required)",
		"Daemon failures=1",
		"hostapd=active",
		"wpa_supplicant=inactive",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("details missing %q:\n%s", want, joined)
		}
	}

	if strings.Index(joined, "hostapd") > strings.Index(joined, "wpa_supplicant") {
		t.Error("daemon units not sorted")
	}
}
