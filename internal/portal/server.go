package portal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/muurk/hotspoter/internal/logging"
	"go.uber.org/zap"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config holds the portal configuration.
type Config struct {
	Listen       string // Address to listen on, e.g. ":80"
	WebDir       string // Optional directory of static files served at /
	ScanDuration int    // Seconds, used when a scan request names none
}

// Server is the HTTP portal.
type Server struct {
	config  Config
	orch    Orchestrator
	daemons DaemonStatus
	hub     *Hub
	logger  *zap.Logger

	// ctx is cancelled when Run returns; it bounds WebSocket sessions
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
}

// New creates a portal Server. daemons may be nil.
func New(config Config, orch Orchestrator, daemons DaemonStatus, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ScanDuration <= 0 {
		config.ScanDuration = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  config,
		orch:    orch,
		daemons: daemons,
		hub:     NewHub(logger.Named("hub")),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.http = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Hub returns the WebSocket hub. Register it as an orchestrator publisher.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the portal's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr returns the listening address once Run has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves the portal until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go s.hub.Run(s.ctx)

	s.logger.Info("Portal listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("web_dir", s.config.WebDir),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown requested, stopping portal...")
		return s.Shutdown()
	case err := <-errChan:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("portal server failed: %w", err)
	}
}

// Shutdown stops accepting requests, disconnects WebSocket clients and
// waits for in-flight requests.
func (s *Server) Shutdown() error {
	// Hijacked WebSocket connections are not tracked by http.Server
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.http.Close()
	}

	s.logger.Info("Portal stopped")
	return nil
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, recorder.status)
	})
}
