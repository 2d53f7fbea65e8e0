package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anstrom/netdiag/internal/ping"
	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/tcpping"
	"github.com/anstrom/netdiag/internal/wol"
)

// PingRequest asks for ICMP pings of a host, address or CIDR block.
type PingRequest struct {
	Dest  string `json:"dest" validate:"required"`
	Count int    `json:"count,omitempty" validate:"omitempty,min=1,max=100"`
}

// TCPPingRequest asks for TCP connect pings of a host, address or CIDR block.
type TCPPingRequest struct {
	Dest  string `json:"dest" validate:"required"`
	Port  int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Count int    `json:"count,omitempty" validate:"omitempty,min=1,max=100"`
}

// TracerouteRequest asks for the route to a host.
type TracerouteRequest struct {
	Host string `json:"host" validate:"required"`
}

// PortScanRequest asks for a TCP connect scan. Ports uses the
// "22,80,8000-8100" syntax; empty means the configured default ports.
type PortScanRequest struct {
	Host  string `json:"host" validate:"required"`
	Ports string `json:"ports,omitempty"`
}

// NSLookupRequest asks for DNS records of a name, or the PTR of an address.
type NSLookupRequest struct {
	Host   string `json:"host" validate:"required"`
	Server string `json:"server,omitempty"`
}

// WhoisRequest asks for RDAP registration data.
type WhoisRequest struct {
	Target  string `json:"target" validate:"required"`
	Summary bool   `json:"summary,omitempty"`
}

// WakeOnLANRequest names the machine to wake, by hosts table entry or by
// MAC address.
type WakeOnLANRequest struct {
	Host       string `json:"host,omitempty"`
	MACAddress string `json:"mac_address,omitempty"`
	IPAddress  string `json:"ip_address,omitempty" validate:"omitempty,ip"`
	Port       int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
}

// SpeedTestRequest names the speed test server, as host or host:port. An
// empty server means the configured one.
type SpeedTestRequest struct {
	Server string `json:"server,omitempty" validate:"omitempty,hostname_port|hostname_rfc1123|ip"`
	Runs   int    `json:"runs,omitempty" validate:"omitempty,min=1,max=10"`
}

// PingResponse lists one result per probed target.
type PingResponse struct {
	Dest      string         `json:"dest"`
	Results   []*ping.Result `json:"results"`
	Timestamp time.Time      `json:"timestamp"`
}

// TCPPingResponse lists one result per probed target.
type TCPPingResponse struct {
	Dest      string            `json:"dest"`
	Results   []*tcpping.Result `json:"results"`
	Timestamp time.Time         `json:"timestamp"`
}

// DiagnosticsHandler serves the diagnostic endpoints.
type DiagnosticsHandler struct {
	diag           *services.Diagnostics
	logger         *slog.Logger
	maxRequestSize int64
}

// NewDiagnosticsHandler creates a handler running diagnostics through diag.
func NewDiagnosticsHandler(diag *services.Diagnostics, logger *slog.Logger, maxRequestSize int64) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		diag:           diag,
		logger:         logger.With("handler", "diagnostics"),
		maxRequestSize: maxRequestSize,
	}
}

// Ping pings every target of a destination.
//
// @Summary Ping
// @Description Runs the system ping utility against a host, an address or every usable address of a CIDR block
// @Tags Diagnostics
// @Accept json
// @Produce json
// @Param request body PingRequest true "Ping request"
// @Success 200 {object} PingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /ping [post]
func (h *DiagnosticsHandler) Ping(w http.ResponseWriter, r *http.Request) {
	var req PingRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	results, err := h.diag.Ping(r.Context(), req.Dest, req.Count, nil)
	if err != nil {
		writeServiceError(w, r, h.logger, "ping", err)
		return
	}
	writeJSON(w, r, http.StatusOK, PingResponse{Dest: req.Dest, Results: results, Timestamp: time.Now().UTC()})
}

// TCPPing runs TCP connect pings against every target of a destination.
//
// @Summary TCP ping
// @Description Opens repeated TCP connections to a port and reports loss and latency
// @Tags Diagnostics
// @Accept json
// @Produce json
// @Param request body TCPPingRequest true "TCP ping request"
// @Success 200 {object} TCPPingResponse
// @Failure 400 {object} ErrorResponse
// @Router /tcpping [post]
func (h *DiagnosticsHandler) TCPPing(w http.ResponseWriter, r *http.Request) {
	var req TCPPingRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	results, err := h.diag.TCPPing(r.Context(), req.Dest, req.Port, req.Count, nil)
	if err != nil {
		writeServiceError(w, r, h.logger, "tcp ping", err)
		return
	}
	writeJSON(w, r, http.StatusOK, TCPPingResponse{Dest: req.Dest, Results: results, Timestamp: time.Now().UTC()})
}

// Traceroute traces the route to a host.
//
// @Summary Traceroute
// @Description Runs the system traceroute utility and returns the parsed hops
// @Tags Diagnostics
// @Accept json
// @Produce json
// @Param request body TracerouteRequest true "Traceroute request"
// @Success 200 {object} traceroute.Run
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /traceroute [post]
func (h *DiagnosticsHandler) Traceroute(w http.ResponseWriter, r *http.Request) {
	var req TracerouteRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	run, err := h.diag.Traceroute(r.Context(), req.Host)
	if err != nil {
		writeServiceError(w, r, h.logger, "traceroute", err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// PortScan runs a TCP connect scan.
//
// @Summary Port scan
// @Description Probes a list of TCP ports on one host
// @Tags Diagnostics
// @Accept json
// @Produce json
// @Param request body PortScanRequest true "Port scan request"
// @Success 200 {object} services.PortScanReport
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /portscan [post]
func (h *DiagnosticsHandler) PortScan(w http.ResponseWriter, r *http.Request) {
	var req PortScanRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	report, err := h.diag.PortScan(r.Context(), req.Host, req.Ports, nil)
	if err != nil {
		writeServiceError(w, r, h.logger, "port scan", err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// NSLookup resolves DNS records.
//
// @Summary DNS lookup
// @Description Returns NS, A, AAAA and MX records of a name, or the PTR name of an address
// @Tags Lookups
// @Accept json
// @Produce json
// @Param request body NSLookupRequest true "Lookup request"
// @Success 200 {object} lookup.NSLookupResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /nslookup [post]
func (h *DiagnosticsHandler) NSLookup(w http.ResponseWriter, r *http.Request) {
	var req NSLookupRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := h.diag.NSLookup(r.Context(), req.Host, req.Server)
	if err != nil {
		writeServiceError(w, r, h.logger, "nslookup", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// Whois fetches registration data.
//
// @Summary Whois
// @Description Returns RDAP registration data for a domain or an address as flattened dotted keys
// @Tags Lookups
// @Accept json
// @Produce json
// @Param request body WhoisRequest true "Whois request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /whois [post]
func (h *DiagnosticsHandler) Whois(w http.ResponseWriter, r *http.Request) {
	var req WhoisRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	fields, err := h.diag.Whois(r.Context(), req.Target, req.Summary)
	if err != nil {
		writeServiceError(w, r, h.logger, "whois", err)
		return
	}
	writeJSON(w, r, http.StatusOK, fields)
}

// SpeedTest measures latency and bandwidth.
//
// @Summary Speed test
// @Description Measures latency, download and upload rates against a speedtest.net protocol server. Rates are in bits per second
// @Tags Diagnostics
// @Accept json
// @Produce json
// @Param request body SpeedTestRequest true "Speed test request"
// @Success 200 {object} speedtest.Result
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /speedtest [post]
func (h *DiagnosticsHandler) SpeedTest(w http.ResponseWriter, r *http.Request) {
	var req SpeedTestRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := h.diag.SpeedTest(r.Context(), req.Server, req.Runs)
	if err != nil {
		writeServiceError(w, r, h.logger, "speed test", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// WakeOnLAN sends a magic packet.
//
// @Summary Wake-on-LAN
// @Description Sends a magic packet to a MAC address, resolving it from the configured hosts table when only a name is given
// @Tags Diagnostics
// @Accept json
// @Produce json
// @Param request body WakeOnLANRequest true "Wake-on-LAN request"
// @Success 200 {object} wol.Result
// @Failure 400 {object} ErrorResponse
// @Router /wakeonlan [post]
func (h *DiagnosticsHandler) WakeOnLAN(w http.ResponseWriter, r *http.Request) {
	var req WakeOnLANRequest
	if err := parseJSON(w, r, h.maxRequestSize, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := h.diag.WakeOnLAN(r.Context(), wol.Request(req))
	if err != nil {
		writeServiceError(w, r, h.logger, "wake-on-lan", err)
		return
	}
	h.logger.Info("Wake-on-LAN packet sent",
		"request_id", getRequestIDFromContext(r),
		"mac_address", result.MACAddress)
	writeJSON(w, r, http.StatusOK, result)
}
