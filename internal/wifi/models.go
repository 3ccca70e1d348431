package wifi

import (
	"fmt"
	"time"
)

// Candidate is a network seen during a scan.
type Candidate struct {
	SSID          string `json:"ssid"`
	SignalPercent int    `json:"signalPercent"`
}

// String returns "SSID (62%)".
func (c Candidate) String() string {
	return fmt.Sprintf("%s (%d%%)", c.SSID, c.SignalPercent)
}

// ScanSession is the result of one scan cycle.
type ScanSession struct {
	StartedAt       time.Time   `json:"startedAt"`
	DurationSeconds int         `json:"durationSeconds"`
	Candidates      []Candidate `json:"candidates"`
}

// JoinRequest carries credentials for a single join attempt.
type JoinRequest struct {
	SSID       string
	Passphrase string
}

// String never includes the passphrase.
func (r JoinRequest) String() string {
	if r.Passphrase == "" {
		return fmt.Sprintf("%s (open)", r.SSID)
	}
	return fmt.Sprintf("%s (passphrase: %d chars)", r.SSID, len(r.Passphrase))
}

// JoinOutcome reports how a join attempt ended.
type JoinOutcome struct {
	Succeeded bool   `json:"succeeded"`
	SSID      string `json:"ssid"`
	Detail    string `json:"detail,omitempty"`
}
