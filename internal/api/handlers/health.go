package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/anstrom/netdiag/internal/command"
	"github.com/anstrom/netdiag/internal/scanning"
)

// Status constants.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ScanLimiter reports on the shared port scan slots.
type ScanLimiter interface {
	IsHealthy() bool
	GetStats() scanning.Stats
}

// HealthHandler handles health check and version endpoints.
type HealthHandler struct {
	limiter   ScanLimiter
	lookPath  func(string) (string, error)
	goos      string
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(limiter ScanLimiter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		limiter:   limiter,
		lookPath:  exec.LookPath,
		logger:    logger.With("handler", "health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
	Scans     *scanning.Stats   `json:"scans,omitempty"`
}

// VersionResponse represents version information.
type VersionResponse struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	OS        string    `json:"os"`
	Arch      string    `json:"arch"`
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports whether the scan limiter is usable and which external
// tools are installed. A missing tool degrades the service; a stuck or
// closed limiter makes it unhealthy.
//
// @Summary Health check
// @Description Returns service health, tool availability and scan slot usage
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string),
	}

	for _, tool := range h.tools() {
		if _, err := h.lookPath(tool); err != nil {
			response.Checks[tool] = "not found"
			response.Status = StatusDegraded
		} else {
			response.Checks[tool] = "ok"
		}
	}

	if h.limiter != nil {
		stats := h.limiter.GetStats()
		response.Scans = &stats
		if h.limiter.IsHealthy() {
			response.Checks["scanner"] = "ok"
		} else {
			response.Checks["scanner"] = "unavailable"
			response.Status = StatusUnhealthy
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
		h.logger.Warn("Health check failed", "checks", response.Checks)
	}
	writeJSON(w, r, statusCode, response)
}

func (h *HealthHandler) tools() []string {
	if command.IsWindows(h.goos) {
		return []string{"ping", "tracert"}
	}
	return []string{"ping", "traceroute"}
}

// Version provides version information.
//
// @Summary Version information
// @Description Returns version and build info
// @Tags System
// @Produce json
// @Success 200 {object} VersionResponse
// @Router /version [get]
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, VersionResponse{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		PID:       os.Getpid(),
		Timestamp: time.Now().UTC(),
	})
}

// Build information, set through SetBuildInfo from ldflags values.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// SetBuildInfo sets build information (called by main package).
func SetBuildInfo(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
}
