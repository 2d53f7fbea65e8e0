package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/ping"
	"github.com/anstrom/netdiag/internal/scanning"
	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/tcpping"
)

const (
	// WebSocket configuration constants.
	writeWait       = 10 * time.Second                                   // Time allowed to write a message to the peer
	pongWait        = 60 * time.Second                                   // Time to read next pong message from peer
	pingPeriodRatio = 0.9                                                // Ratio of pongWait for pingPeriod
	pingPeriod      = time.Duration(float64(pongWait) * pingPeriodRatio) // Send pings to peer (must be < pongWait)
	maxMessageSize  = 4096                                               // Maximum message size allowed from peer
	bufferSize      = 256                                                // Size of each connection's send buffer
)

// Message types sent on a sweep connection.
const (
	MessageSweepStarted  = "sweep_started"
	MessageSweepResult   = "sweep_result"
	MessageSweepComplete = "sweep_complete"
	MessageSweepError    = "sweep_error"
)

// Probes accepted by SweepRequest.
const (
	ProbePing     = "ping"
	ProbeTCPPing  = "tcp_ping"
	ProbePortScan = "portscan"
)

// WebSocketMessage represents a WebSocket message structure.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// SweepRequest starts a sweep on an open connection. For portscan, Dest
// is the host and Ports the port list.
type SweepRequest struct {
	Probe string `json:"probe" validate:"required,oneof=ping tcp_ping portscan"`
	Dest  string `json:"dest" validate:"required"`
	Count int    `json:"count,omitempty" validate:"omitempty,min=1,max=100"`
	Port  int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Ports string `json:"ports,omitempty"`
}

// SweepStatus is the payload of started, complete and error messages.
type SweepStatus struct {
	Probe   string `json:"probe,omitempty"`
	Dest    string `json:"dest,omitempty"`
	Results int    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SweepHandler streams sweep results over WebSocket connections. Each
// connection runs at most one sweep at a time and receives every result
// as soon as it and all results before it are known.
type SweepHandler struct {
	diag     *services.Diagnostics
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mutex    sync.Mutex
	sessions map[*session]struct{}
	closed   bool
}

type session struct {
	conn      *websocket.Conn
	send      chan WebSocketMessage
	ctx       context.Context
	cancel    context.CancelFunc
	requestID string
	busy      atomic.Bool
	sweeps    sync.WaitGroup
}

// NewSweepHandler creates a new sweep streaming handler. Browsers may open
// a socket from the server's own origin or from one of allowedOrigins,
// where "*" allows any origin.
func NewSweepHandler(diag *services.Diagnostics, logger *slog.Logger, allowedOrigins []string) *SweepHandler {
	return &SweepHandler{
		diag:   diag,
		logger: logger.With("handler", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		sessions: make(map[*session]struct{}),
	}
}

// originChecker accepts requests without an Origin header, which come from
// non-browser clients, same-origin requests and the listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Sweep upgrades the request and serves sweep requests until the peer
// disconnects.
//
// @Summary Streaming sweep
// @Description WebSocket endpoint. Send a SweepRequest; receive sweep_started, one sweep_result per target, then sweep_complete or sweep_error
// @Tags Diagnostics
// @Param request body SweepRequest true "First message sent on the socket"
// @Success 101 {object} WebSocketMessage
// @Router /sweep/ws [get]
func (h *SweepHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestIDFromContext(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", "request_id", requestID, "error", err)
		return
	}
	h.logger.Info("New sweep WebSocket connection", "request_id", requestID, "remote_addr", r.RemoteAddr)

	// The socket outlives any request deadline.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	s := &session{
		conn:      conn,
		send:      make(chan WebSocketMessage, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
		requestID: requestID,
	}

	if !h.register(s) {
		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer h.unregister(s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(s)
	}()

	h.readPump(s)
	s.cancel()
	s.sweeps.Wait()
	<-done
}

func (h *SweepHandler) register(s *session) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *SweepHandler) unregister(s *session) {
	h.mutex.Lock()
	delete(h.sessions, s)
	h.mutex.Unlock()
	h.logger.Debug("Sweep connection closed", "request_id", s.requestID)
}

// readPump decodes sweep requests until the connection fails.
func (h *SweepHandler) readPump(s *session) {
	conn := s.conn
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("Failed to set read deadline", "request_id", s.requestID, "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket unexpected close", "request_id", s.requestID, "error", err)
			}
			return
		}

		req, err := decodeSweepRequest(data)
		if err != nil {
			s.emit(MessageSweepError, errorStatus(SweepStatus{}, err))
			continue
		}
		if !s.busy.CompareAndSwap(false, true) {
			s.emit(MessageSweepError, SweepStatus{
				Probe: req.Probe,
				Dest:  req.Dest,
				Error: "a sweep is already running on this connection",
				Code:  string(errors.CodeValidation),
			})
			continue
		}

		s.sweeps.Add(1)
		go func() {
			defer s.sweeps.Done()
			defer s.busy.Store(false)
			h.runSweep(s, req)
		}()
	}
}

// writePump is the only writer of data frames on the connection.
func (h *SweepHandler) writePump(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := s.conn.Close(); err != nil {
			h.logger.Debug("Error closing connection in writePump", "request_id", s.requestID, "error", err)
		}
	}()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.cancel()
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				h.logger.Debug("Write failed, closing connection", "request_id", s.requestID, "error", err)
				s.cancel()
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.cancel()
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("Ping failed, closing connection", "request_id", s.requestID, "error", err)
				s.cancel()
				return
			}
		}
	}
}

func (h *SweepHandler) runSweep(s *session, req SweepRequest) {
	status := SweepStatus{Probe: req.Probe, Dest: req.Dest}
	s.emit(MessageSweepStarted, status)

	var (
		n   int
		err error
	)
	switch req.Probe {
	case ProbePing:
		var results []*ping.Result
		results, err = h.diag.Ping(s.ctx, req.Dest, req.Count, func(r *ping.Result) {
			s.emit(MessageSweepResult, r)
		})
		n = len(results)
	case ProbeTCPPing:
		var results []*tcpping.Result
		results, err = h.diag.TCPPing(s.ctx, req.Dest, req.Port, req.Count, func(r *tcpping.Result) {
			s.emit(MessageSweepResult, r)
		})
		n = len(results)
	case ProbePortScan:
		var report *services.PortScanReport
		report, err = h.diag.PortScan(s.ctx, req.Dest, req.Ports, func(r scanning.Result) {
			s.emit(MessageSweepResult, r)
		})
		if report != nil {
			n = len(report.Results)
		}
	}

	if err != nil {
		if s.ctx.Err() == nil {
			h.logger.Warn("Sweep failed", "request_id", s.requestID, "probe", req.Probe, "dest", req.Dest, "error", err)
		}
		s.emit(MessageSweepError, errorStatus(status, err))
		return
	}
	status.Results = n
	s.emit(MessageSweepComplete, status)
}

// emit queues a message unless the connection is closing.
func (s *session) emit(msgType string, data interface{}) {
	msg := WebSocketMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      data,
		RequestID: s.requestID,
	}
	select {
	case s.send <- msg:
	case <-s.ctx.Done():
	}
}

func decodeSweepRequest(data []byte) (SweepRequest, error) {
	var req SweepRequest
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, errors.NewValidationError("message", "invalid JSON: "+err.Error(), nil)
	}
	return req, validateRequest(&req)
}

func errorStatus(status SweepStatus, err error) SweepStatus {
	status.Error = err.Error()
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		status.Code = string(code)
	}
	return status
}

// GetConnectedClients returns the number of open sweep connections.
func (h *SweepHandler) GetConnectedClients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.sessions)
}

// Close cancels every running sweep, closes every connection and rejects
// new ones.
func (h *SweepHandler) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.closed = true
	for s := range h.sessions {
		s.cancel()
	}
	h.logger.Info("WebSocket handler closed", "connections", len(h.sessions))
	return nil
}
