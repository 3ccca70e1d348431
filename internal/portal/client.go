package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/hotspoter/internal/orchestrator"
)

const (
	// DefaultClientTimeout bounds a single API request.
	DefaultClientTimeout = 10 * time.Second

	// DefaultMaxRetries is the number of retries for idempotent requests.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the first delay between retries. It doubles.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultPollInterval is how often WaitIdle polls /api/status.
	DefaultPollInterval = time.Second
)

// ClientError is returned by Client for failed API calls.
type ClientError struct {
	StatusCode int    // 0 when the portal could not be reached
	Message    string // Server error text or a description of the failure
	Mode       string // Radio mode reported with a busy reply
	Err        error
}

func (e *ClientError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Mode != "" {
		return fmt.Sprintf("%s (HTTP %d, mode %s)", e.Message, e.StatusCode, e.Mode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err means the portal could not be reached.
// This is expected while the device's access point is down.
func IsUnreachable(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.StatusCode == 0
}

// IsBusyReply reports whether err is the portal's busy reply.
func IsBusyReply(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.StatusCode == http.StatusConflict
}

// Event is one message from the /ws stream.
type Event struct {
	Name string
	Data json.RawMessage
}

// ScanComplete decodes a scanComplete event.
func (e Event) ScanComplete() (orchestrator.ScanComplete, error) {
	var payload orchestrator.ScanComplete
	err := json.Unmarshal(e.Data, &payload)
	return payload, err
}

// JoinComplete decodes a joinComplete event.
func (e Event) JoinComplete() (orchestrator.JoinComplete, error) {
	var payload orchestrator.JoinComplete
	err := json.Unmarshal(e.Data, &payload)
	return payload, err
}

// Client talks to a running portal over HTTP and WebSocket.
type Client struct {
	// BaseURL is the portal address (e.g., "http://192.168.4.1")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries applies to GET requests only
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// PollInterval is how often WaitIdle polls
	PollInterval time.Duration
}

// NewClient creates a client for the portal at baseURL. A bare host or
// host:port is treated as http.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:      baseURL,
		HTTPClient:   &http.Client{Timeout: DefaultClientTimeout},
		MaxRetries:   DefaultMaxRetries,
		RetryDelay:   DefaultRetryDelay,
		PollInterval: DefaultPollInterval,
	}
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Networks fetches GET /api/networks.
func (c *Client) Networks(ctx context.Context) (*NetworksResponse, error) {
	var out NetworksResponse
	if err := c.get(ctx, "/api/networks", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scan requests a scan. durationSeconds <= 0 uses the server default.
func (c *Client) Scan(ctx context.Context, durationSeconds int) (*ScanResponse, error) {
	path := "/api/scan"
	if durationSeconds > 0 {
		path += "?duration=" + strconv.Itoa(durationSeconds)
	}

	var out ScanResponse
	if err := c.post(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Connect requests a join to ssid.
func (c *Client) Connect(ctx context.Context, ssid, password string) (*ConnectResponse, error) {
	body, err := json.Marshal(connectForm{SSID: ssid, Password: password})
	if err != nil {
		return nil, err
	}

	var out ConnectResponse
	if err := c.post(ctx, "/api/connect", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset asks the device to return to access point mode.
func (c *Client) Reset(ctx context.Context) (*NetworksResponse, error) {
	var out NetworksResponse
	if err := c.post(ctx, "/api/reset", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitIdle polls the status endpoint until no operation is in flight.
// Connection failures are tolerated since the access point is down while
// the radio scans or joins.
func (c *Client) WaitIdle(ctx context.Context) (*StatusResponse, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.statusOnce(ctx)
		if err == nil && !status.Busy {
			return status, nil
		}
		if err != nil && !IsUnreachable(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Events streams portal events until ctx is done or the connection drops.
// The returned channel is closed when the stream ends.
func (c *Client) Events(ctx context.Context) (<-chan Event, error) {
	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, &ClientError{StatusCode: resp.StatusCode, Message: "websocket upgrade refused"}
		}
		return nil, &ClientError{Message: "websocket dial failed", Err: err}
	}

	events := make(chan Event)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(events)
		defer func() { _ = conn.Close() }()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var head struct {
				Event string `json:"event"`
			}
			if json.Unmarshal(data, &head) != nil || head.Event == "" {
				continue
			}

			select {
			case events <- Event{Name: head.Event, Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", &ClientError{Message: "invalid portal URL", Err: err}
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (c *Client) statusOnce(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get retries on connection failures with exponential backoff.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsUnreachable(err) {
			return err
		}
	}

	return lastErr
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Message: "failed to create request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &ClientError{Message: "portal unreachable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ClientError{Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &ClientError{StatusCode: resp.StatusCode, Message: apiErr.Error, Mode: apiErr.Mode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}
