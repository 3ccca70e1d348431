package orchestrator

import "github.com/muurk/hotspoter/internal/wifi"

// Event names delivered to publishers.
const (
	EventScanComplete = "scanComplete"
	EventJoinComplete = "joinComplete"
	EventModeChanged  = "modeChanged"
)

// Publisher receives completed results for delivery to listening UIs.
// Publish must not block for long; the orchestrator calls it from its worker.
type Publisher interface {
	Publish(event string, payload any)
}

// ScanComplete is the payload of EventScanComplete.
type ScanComplete struct {
	Event      string           `json:"event"`
	Candidates []wifi.Candidate `json:"candidates"`
}

// JoinComplete is the payload of EventJoinComplete.
type JoinComplete struct {
	Event     string `json:"event"`
	Succeeded bool   `json:"succeeded"`
	SSID      string `json:"ssid"`
	Detail    string `json:"detail,omitempty"`
}

// ModeChanged is the payload of EventModeChanged.
type ModeChanged struct {
	Event string `json:"event"`
	From  Mode   `json:"from"`
	To    Mode   `json:"to"`
}

// MultiPublisher fans each event out to several publishers in order.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(event string, payload any) {
	for _, p := range m {
		if p != nil {
			p.Publish(event, payload)
		}
	}
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(event string, payload any)

// Publish implements Publisher.
func (f PublisherFunc) Publish(event string, payload any) {
	f(event, payload)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}
