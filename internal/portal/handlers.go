package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/hotspoter/internal/orchestrator"
	"github.com/muurk/hotspoter/internal/wifi"
	"go.uber.org/zap"
)

// maxBodySize bounds connect request bodies.
const maxBodySize = 4096

// statusTimeout bounds the daemon status probe of /api/status.
const statusTimeout = 5 * time.Second

// Orchestrator is the radio arbiter the portal drives.
type Orchestrator interface {
	RequestScan(durationSeconds int) error
	RequestJoin(req wifi.JoinRequest) error
	ReturnToAP(ctx context.Context) error
	Status() orchestrator.Status
}

// DaemonStatus reports which network daemons are running.
type DaemonStatus interface {
	Status(ctx context.Context) map[string]bool
}

// NetworksResponse is the body of GET /api/networks.
type NetworksResponse struct {
	Mode     orchestrator.Mode `json:"mode"`
	Networks []wifi.Candidate  `json:"networks"`
}

// ScanResponse is the body of an accepted scan request.
type ScanResponse struct {
	DurationSeconds int `json:"durationSeconds"`
}

// ConnectResponse is the body of an accepted connect request.
type ConnectResponse struct {
	SSID string `json:"ssid"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	orchestrator.Status
	Daemons map[string]bool `json:"daemons,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Mode  string `json:"mode,omitempty"`
}

// connectForm is the JSON form of a connect request.
type connectForm struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/networks", s.handleNetworks)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/connect", s.handleConnect)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	if s.config.WebDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.config.WebDir)))
	}

	return logRequests(mux)
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	status := s.orch.Status()
	writeJSON(w, http.StatusOK, NetworksResponse{Mode: status.Mode, Networks: status.Networks})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	duration := s.config.ScanDuration
	if raw := r.URL.Query().Get("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Sprintf("invalid duration %q", raw), http.StatusBadRequest)
			return
		}
		duration = parsed
	}

	if err := s.orch.RequestScan(duration); err != nil {
		writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, ScanResponse{DurationSeconds: duration})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	req, err := parseConnectRequest(w, r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("Join requested via portal",
		zap.String("ssid", req.SSID),
		zap.String("remote_addr", r.RemoteAddr),
	)

	if err := s.orch.RequestJoin(req); err != nil {
		writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, ConnectResponse{SSID: req.SSID})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.ReturnToAP(r.Context()); err != nil {
		writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NetworksResponse{Mode: orchestrator.ModeAPServing, Networks: s.orch.Status().Networks})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{Status: s.orch.Status()}

	if s.daemons != nil {
		ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
		defer cancel()
		response.Daemons = s.daemons.Status(ctx)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The portal is only reachable on the device's own network
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade to WebSocket",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	s.hub.serve(s.ctx, conn, r.RemoteAddr)
}

// parseConnectRequest accepts a JSON body or an HTML form.
func parseConnectRequest(w http.ResponseWriter, r *http.Request) (wifi.JoinRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var form connectForm
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return wifi.JoinRequest{}, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return wifi.JoinRequest{}, fmt.Errorf("invalid form body: %w", err)
		}
		form.SSID = r.PostForm.Get("ssid")
		form.Password = r.PostForm.Get("password")
	}

	form.SSID = strings.TrimSpace(form.SSID)
	if form.SSID == "" {
		return wifi.JoinRequest{}, fmt.Errorf("ssid is required")
	}

	return wifi.JoinRequest{SSID: form.SSID, Passphrase: form.Password}, nil
}

func writeOrchestratorError(w http.ResponseWriter, err error) {
	var oe *orchestrator.Error
	switch {
	case orchestrator.IsBusy(err):
		response := ErrorResponse{Error: orchestrator.ShortMessage(err)}
		if errors.As(err, &oe) {
			response.Mode = oe.Mode.String()
		}
		writeJSON(w, http.StatusConflict, response)
	case orchestrator.IsValidation(err):
		writeError(w, orchestrator.ShortMessage(err), http.StatusBadRequest)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
