package wifi

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RescanInterval is the pause between rescan requests during a scan.
const RescanInterval = 1 * time.Second

// ScannerConfig tunes a Scanner.
type ScannerConfig struct {
	// RescanInterval is the pause between rescan requests.
	// Default: RescanInterval
	RescanInterval time.Duration
}

// Scanner collects visible networks from a Radio.
type Scanner struct {
	radio    Radio
	interval time.Duration
	sleep    Sleeper
	now      func() time.Time
	logger   *zap.Logger
}

// NewScanner creates a Scanner.
func NewScanner(radio Radio, config ScannerConfig, logger *zap.Logger) *Scanner {
	if config.RescanInterval <= 0 {
		config.RescanInterval = RescanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		radio:    radio,
		interval: config.RescanInterval,
		sleep:    SleepContext,
		now:      time.Now,
		logger:   logger,
	}
}

// Scan requests a rescan once per interval for durationSeconds iterations,
// then lists visible networks once. It never fails: a listing error yields an
// empty candidate list.
func (s *Scanner) Scan(ctx context.Context, durationSeconds int) *ScanSession {
	session := &ScanSession{
		StartedAt:       s.now(),
		DurationSeconds: durationSeconds,
		Candidates:      []Candidate{},
	}

	s.logger.Info("Scan started", zap.Int("duration_seconds", durationSeconds))

	for i := 0; i < durationSeconds; i++ {
		if err := s.radio.Rescan(ctx); err != nil {
			// Rescan is fire-and-forget; nmcli refuses overlapping requests
			s.logger.Debug("Rescan request failed",
				zap.Int("iteration", i+1),
				zap.Error(err),
			)
		}
		if err := s.sleep(ctx, s.interval); err != nil {
			s.logger.Info("Scan interrupted", zap.Int("iteration", i+1), zap.Error(err))
			break
		}
	}

	output, err := s.radio.ListNetworks(ctx)
	if err != nil {
		s.logger.Warn("Network listing failed, reporting empty scan", zap.Error(err))
		return session
	}

	candidates, skipped := ParseNetworkList(output)
	if skipped > 0 {
		s.logger.Debug("Skipped unparseable scan lines", zap.Int("skipped", skipped))
	}
	session.Candidates = candidates

	s.logger.Info("Scan finished",
		zap.Int("candidates", len(candidates)),
		zap.Duration("elapsed", s.now().Sub(session.StartedAt)),
	)

	return session
}
