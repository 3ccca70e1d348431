package wifi

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DaemonSettleDelay lets freshly started daemons enumerate the radio.
	DaemonSettleDelay = 5 * time.Second

	// ScanSettleDelay lets rescan results populate before connecting.
	ScanSettleDelay = 5 * time.Second
)

// JoinerConfig tunes a Joiner.
type JoinerConfig struct {
	// DaemonSettle is the wait before the first command.
	// Default: DaemonSettleDelay
	DaemonSettle time.Duration

	// ScanSettle is the wait between the rescan and the connect request.
	// Default: ScanSettleDelay
	ScanSettle time.Duration
}

// Joiner makes a single credentialed connect attempt.
type Joiner struct {
	radio        Radio
	daemonSettle time.Duration
	scanSettle   time.Duration
	sleep        Sleeper
	logger       *zap.Logger
}

// NewJoiner creates a Joiner. Negative delays are treated as zero; zero
// delays keep the defaults.
func NewJoiner(radio Radio, config JoinerConfig, logger *zap.Logger) *Joiner {
	if config.DaemonSettle == 0 {
		config.DaemonSettle = DaemonSettleDelay
	}
	if config.ScanSettle == 0 {
		config.ScanSettle = ScanSettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Joiner{
		radio:        radio,
		daemonSettle: config.DaemonSettle,
		scanSettle:   config.ScanSettle,
		sleep:        SleepContext,
		logger:       logger,
	}
}

// Join waits for the daemons, rescans, waits for results and connects.
func (j *Joiner) Join(ctx context.Context, req JoinRequest) JoinOutcome {
	outcome := JoinOutcome{SSID: req.SSID}

	j.logger.Info("Join attempt started", zap.String("ssid", req.SSID))

	if err := j.sleep(ctx, j.daemonSettle); err != nil {
		outcome.Detail = "join interrupted while waiting for services: " + err.Error()
		return outcome
	}

	if err := j.radio.Rescan(ctx); err != nil {
		j.logger.Debug("Rescan before join failed", zap.Error(err))
	}

	if err := j.sleep(ctx, j.scanSettle); err != nil {
		outcome.Detail = "join interrupted while waiting for scan results: " + err.Error()
		return outcome
	}

	output, err := j.radio.Connect(ctx, req.SSID, req.Passphrase)
	if err != nil {
		outcome.Detail = output
		if outcome.Detail == "" {
			outcome.Detail = err.Error()
		}
		j.logger.Warn("Join attempt rejected",
			zap.String("ssid", req.SSID),
			zap.String("detail", outcome.Detail),
		)
		return outcome
	}

	outcome.Succeeded = true
	outcome.Detail = output
	j.logger.Info("Join attempt succeeded", zap.String("ssid", req.SSID))

	return outcome
}
