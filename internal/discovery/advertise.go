package discovery

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/hotspoter/internal/orchestrator"
	"go.uber.org/zap"
)

// DefaultRelinkDelay is how long the Advertiser waits after a successful
// join before re-registering on the new network.
const DefaultRelinkDelay = 5 * time.Second

// instanceSanitizer matches characters that are awkward in instance names
var instanceSanitizer = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// registration is a live mDNS service.
type registration interface {
	SetText(text []string)
	Shutdown()
}

// registerFunc registers a service. zeroconf.Register in production.
type registerFunc func(instance, service, domain string, port int, text []string) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, text []string) (registration, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, nil)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Instance is the service instance name.
	// Default: "<hostname>-hotspoter"
	Instance string

	// Port is the portal HTTP port.
	Port int

	// RelinkDelay is the wait before re-registering after a join.
	// Default: DefaultRelinkDelay
	RelinkDelay time.Duration
}

// Advertiser announces the portal over mDNS and keeps the mode TXT record
// current. It implements orchestrator.Publisher.
type Advertiser struct {
	instance    string
	port        int
	relinkDelay time.Duration
	register    registerFunc
	logger      *zap.Logger

	mu     sync.Mutex
	server registration
	mode   orchestrator.Mode
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// DefaultInstance returns "<hostname>-hotspoter".
func DefaultInstance() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "device"
	}
	// Strip any domain part
	hostname = strings.SplitN(hostname, ".", 2)[0]
	return strings.Trim(instanceSanitizer.ReplaceAllString(hostname, "-"), "-") + "-" + AppName
}

// NewAdvertiser creates an Advertiser. Call Start to register.
func NewAdvertiser(config AdvertiserConfig, logger *zap.Logger) *Advertiser {
	if config.Instance == "" {
		config.Instance = DefaultInstance()
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.RelinkDelay == 0 {
		config.RelinkDelay = DefaultRelinkDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advertiser{
		instance:    config.Instance,
		port:        config.Port,
		relinkDelay: config.RelinkDelay,
		register:    zeroconfRegister,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Instance returns the advertised instance name.
func (a *Advertiser) Instance() string {
	return a.instance
}

// Start registers the service in the given mode.
func (a *Advertiser) Start(mode orchestrator.Mode) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.mode = mode
	return a.registerLocked()
}

// Publish implements orchestrator.Publisher.
func (a *Advertiser) Publish(event string, payload any) {
	switch p := payload.(type) {
	case orchestrator.ModeChanged:
		a.setMode(p.To)
	case orchestrator.JoinComplete:
		if p.Succeeded {
			a.relink()
		}
	}
}

// Shutdown withdraws the advertisement.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.done)
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *Advertiser) text() []string {
	return []string{
		"path=/",
		"app=" + AppName,
		"mode=" + a.mode.String(),
	}
}

func (a *Advertiser) registerLocked() error {
	if a.closed {
		return fmt.Errorf("advertiser is shut down")
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := a.register(a.instance, ServiceType, ServiceDomain, a.port, a.text())
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	a.logger.Info("mDNS service registered",
		zap.String("instance", a.instance),
		zap.Int("port", a.port),
		zap.String("mode", a.mode.String()),
	)
	return nil
}

func (a *Advertiser) setMode(mode orchestrator.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.mode = mode
	if a.server != nil {
		a.server.SetText(a.text())
	}
}

// relink re-registers after the link has settled, so the service binds to
// the addresses of the newly joined network.
func (a *Advertiser) relink() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()

		timer := time.NewTimer(a.relinkDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-a.done:
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.closed {
			return
		}
		if err := a.registerLocked(); err != nil {
			a.logger.Warn("Failed to re-register mDNS service after join", zap.Error(err))
		}
	}()
}
