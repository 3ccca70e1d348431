package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/muurk/hotspoter/internal/wifi"
	"gopkg.in/yaml.v3"
)

const stateVersion = 1

// JoinRecord is the persisted form of the latest join attempt.
type JoinRecord struct {
	SSID        string    `yaml:"ssid"`
	Succeeded   bool      `yaml:"succeeded"`
	Detail      string    `yaml:"detail,omitempty"`
	AttemptedAt time.Time `yaml:"attempted_at"`
}

// State is the state file layout.
type State struct {
	Version  int         `yaml:"version"`
	LastJoin *JoinRecord `yaml:"last_join,omitempty"`
}

// StateStore persists the latest join outcome.
type StateStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewStateStore creates a store backed by the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *StateStore) Path() string {
	return s.path
}

// Load reads the state file. A missing file yields an empty state.
func (s *StateStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &State{Version: stateVersion}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Version != stateVersion {
		return nil, fmt.Errorf("unsupported state version: %d (expected %d)", state.Version, stateVersion)
	}

	return state, nil
}

// RecordJoin replaces the stored join outcome. The passphrase never reaches
// this method.
func (s *StateStore) RecordJoin(outcome wifi.JoinOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Version: stateVersion,
		LastJoin: &JoinRecord{
			SSID:        outcome.SSID,
			Succeeded:   outcome.Succeeded,
			Detail:      outcome.Detail,
			AttemptedAt: s.now().UTC(),
		},
	}

	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return writeFileAtomic(s.path, data, 0600)
}
