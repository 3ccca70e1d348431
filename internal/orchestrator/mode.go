package orchestrator

import "fmt"

// Mode is the exclusive state of the radio.
type Mode int

const (
	// ModeAPServing broadcasts the device's own access point (initial mode).
	ModeAPServing Mode = iota
	// ModeScanning has the client daemons up while a scan runs.
	ModeScanning
	// ModeJoining has the client daemons up while a join is attempted.
	ModeJoining
	// ModeClientConnected is committed client mode after a successful join.
	ModeClientConnected
)

var modeNames = map[Mode]string{
	ModeAPServing:       "ap_serving",
	ModeScanning:        "scanning",
	ModeJoining:         "joining",
	ModeClientConnected: "client_connected",
}

// String returns the wire name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	for mode, name := range modeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", string(text))
}

// ClientDaemons reports whether the mode requires the client daemons
// (and therefore a stopped access point).
func (m Mode) ClientDaemons() bool {
	return m != ModeAPServing
}
