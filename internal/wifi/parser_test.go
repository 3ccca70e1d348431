package wifi

import (
	"reflect"
	"testing"
)

func TestParseNetworkLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Candidate
		wantOK bool
	}{
		{
			name:   "simple",
			line:   "Cafe   80",
			want:   Candidate{SSID: "Cafe", SignalPercent: 80},
			wantOK: true,
		},
		{
			name:   "ssid with embedded whitespace",
			line:   "My House WiFi   62",
			want:   Candidate{SSID: "My House WiFi", SignalPercent: 62},
			wantOK: true,
		},
		{
			name:   "tabs and trailing spaces",
			line:   "Guest\tNetwork\t\t45   ",
			want:   Candidate{SSID: "Guest\tNetwork", SignalPercent: 45},
			wantOK: true,
		},
		{
			name:   "multiple internal spaces preserved",
			line:   "A  B   7",
			want:   Candidate{SSID: "A  B", SignalPercent: 7},
			wantOK: true,
		},
		{
			name:   "zero signal",
			line:   "Far Away 0",
			want:   Candidate{SSID: "Far Away", SignalPercent: 0},
			wantOK: true,
		},
		{name: "empty", line: "", wantOK: false},
		{name: "whitespace only", line: "    ", wantOK: false},
		{name: "no trailing number", line: "Home Net   strong", wantOK: false},
		{name: "single token", line: "80", wantOK: false},
		{name: "hidden network", line: "--   30", wantOK: false},
		{name: "signal out of range", line: "Broken 140", wantOK: false},
		{name: "negative signal", line: "Broken -5", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNetworkLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseNetworkLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNetworkLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseNetworkList(t *testing.T) {
	output := "SSID             SIGNAL\n" +
		"Cafe             80\n" +
		"My House WiFi    62\n" +
		"--               30\n" +
		"garbage line\n" +
		"Cafe             78\n" +
		"\n"

	got, skipped := ParseNetworkList(output)

	want := []Candidate{
		{SSID: "Cafe", SignalPercent: 80},
		{SSID: "My House WiFi", SignalPercent: 62},
		{SSID: "Cafe", SignalPercent: 78},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseNetworkList() = %+v, want %+v", got, want)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestParseNetworkList_HeaderOnlyAndEmpty(t *testing.T) {
	for _, output := range []string{"", "SSID SIGNAL", "SSID SIGNAL\n"} {
		got, skipped := ParseNetworkList(output)
		if len(got) != 0 {
			t.Errorf("ParseNetworkList(%q) = %+v, want empty", output, got)
		}
		if got == nil {
			t.Errorf("ParseNetworkList(%q) returned nil slice", output)
		}
		if skipped != 0 {
			t.Errorf("ParseNetworkList(%q) skipped = %d, want 0", output, skipped)
		}
	}
}

func TestParseNetworkList_CRLF(t *testing.T) {
	got, _ := ParseNetworkList("SSID SIGNAL\r\nOffice 55\r\n")
	if len(got) != 1 || got[0].SSID != "Office" || got[0].SignalPercent != 55 {
		t.Errorf("unexpected result: %+v", got)
	}
}
