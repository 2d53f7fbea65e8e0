// Package metrics provides Prometheus-based metrics collection for netdiag.
// Tool runs, parse failures, port probes, sweeps and HTTP traffic are exported
// from a private registry that the API serves on /metrics.
package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// Namespace for all netdiag metrics
	namespace = "netdiag"

	// Subsystems
	subsystemTool   = "tool"
	subsystemParse  = "parse"
	subsystemScan   = "scan"
	subsystemSweep  = "sweep"
	subsystemLookup = "lookup"
	subsystemSystem = "system"
	subsystemAPI    = "api"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Tool invocation metrics
	toolRuns     *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec

	// Parser metrics
	parseFailures  *prometheus.CounterVec
	tracerouteHops prometheus.Histogram

	// Port scan metrics
	portsScanned *prometheus.CounterVec
	scanDuration prometheus.Histogram
	scanErrors   *prometheus.CounterVec
	activeScans  prometheus.Gauge

	// Sweep metrics
	sweepTargets  *prometheus.CounterVec
	sweepRejected *prometheus.CounterVec

	// Lookup metrics
	lookups *prometheus.CounterVec

	// API metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// System metrics
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge

	startTime  time.Time
	lastUpdate time.Time
	mu         sync.RWMutex
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		startTime: time.Now(),
		registry:  registry,
	}

	pm.initToolMetrics()
	pm.initScanMetrics()
	pm.initAPIMetrics()
	pm.initSystemMetrics()

	pm.registerMetrics()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return pm
}

func (pm *PrometheusMetrics) initToolMetrics() {
	pm.toolRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemTool,
			Name:      "runs_total",
			Help:      "Total number of diagnostic tool runs by tool and status",
		},
		[]string{"tool", "status"},
	)

	pm.toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemTool,
			Name:      "duration_seconds",
			Help:      "Duration of diagnostic tool runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"tool"},
	)

	pm.parseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemParse,
			Name:      "failures_total",
			Help:      "Total number of tool outputs that could not be parsed",
		},
		[]string{"tool", "code"},
	)

	pm.tracerouteHops = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemParse,
			Name:      "traceroute_hops",
			Help:      "Number of hops in parsed traceroute output",
			Buckets:   []float64{1, 2, 4, 8, 12, 16, 20, 25, 30, 64},
		},
	)

	pm.sweepTargets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "targets_total",
			Help:      "Total number of targets probed by network sweeps",
		},
		[]string{"probe"},
	)

	pm.sweepRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "rejected_total",
			Help:      "Total number of sweeps rejected before probing",
		},
		[]string{"probe"},
	)

	pm.lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemLookup,
			Name:      "total",
			Help:      "Total number of DNS and whois lookups by kind and status",
		},
		[]string{"kind", "status"},
	)
}

func (pm *PrometheusMetrics) initScanMetrics() {
	pm.portsScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "ports_total",
			Help:      "Total number of ports probed by state",
		},
		[]string{"state"},
	)

	pm.scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "duration_seconds",
			Help:      "Duration of port scans in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
	)

	pm.scanErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "errors_total",
			Help:      "Total number of scans aborted by error code",
		},
		[]string{"code"},
	)

	pm.activeScans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "active",
			Help:      "Number of currently running port scans",
		},
	)
}

func (pm *PrometheusMetrics) initAPIMetrics() {
	pm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	pm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"method", "path"},
	)
}

func (pm *PrometheusMetrics) initSystemMetrics() {
	pm.goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	pm.uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)
}

func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(
		pm.toolRuns,
		pm.toolDuration,
		pm.parseFailures,
		pm.tracerouteHops,
		pm.portsScanned,
		pm.scanDuration,
		pm.scanErrors,
		pm.activeScans,
		pm.sweepTargets,
		pm.sweepRejected,
		pm.lookups,
		pm.httpRequests,
		pm.httpDuration,
		pm.goroutines,
		pm.uptime,
	)
}

// GetRegistry returns the Prometheus registry for HTTP handler
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// RecordToolRun records one invocation of an external diagnostic tool.
func (pm *PrometheusMetrics) RecordToolRun(tool, status string, duration time.Duration) {
	pm.toolRuns.WithLabelValues(tool, status).Inc()
	pm.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// IncrementParseFailures counts output that no parser recognized.
func (pm *PrometheusMetrics) IncrementParseFailures(tool, code string) {
	pm.parseFailures.WithLabelValues(tool, code).Inc()
}

// ObserveTracerouteHops records the hop count of a parsed trace.
func (pm *PrometheusMetrics) ObserveTracerouteHops(hops int) {
	pm.tracerouteHops.Observe(float64(hops))
}

// IncrementPortsScanned increments the probed port counter for state.
func (pm *PrometheusMetrics) IncrementPortsScanned(state string, count int) {
	pm.portsScanned.WithLabelValues(state).Add(float64(count))
}

// RecordScanDuration records a scan duration
func (pm *PrometheusMetrics) RecordScanDuration(duration time.Duration) {
	pm.scanDuration.Observe(duration.Seconds())
}

// IncrementScanErrors increments scan error counter
func (pm *PrometheusMetrics) IncrementScanErrors(code string) {
	pm.scanErrors.WithLabelValues(code).Inc()
}

// AddActiveScans adjusts the running scan gauge by delta.
func (pm *PrometheusMetrics) AddActiveScans(delta int) {
	pm.activeScans.Add(float64(delta))
}

// IncrementSweepTargets counts targets probed by a sweep.
func (pm *PrometheusMetrics) IncrementSweepTargets(probe string, count int) {
	pm.sweepTargets.WithLabelValues(probe).Add(float64(count))
}

// IncrementSweepRejected counts sweeps refused by the address cap.
func (pm *PrometheusMetrics) IncrementSweepRejected(probe string) {
	pm.sweepRejected.WithLabelValues(probe).Inc()
}

// IncrementLookups counts DNS and whois lookups.
func (pm *PrometheusMetrics) IncrementLookups(kind, status string) {
	pm.lookups.WithLabelValues(kind, status).Inc()
}

// IncrementHTTPRequests increments HTTP request counter
func (pm *PrometheusMetrics) IncrementHTTPRequests(method, path, status string) {
	pm.httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPDuration records HTTP request duration
func (pm *PrometheusMetrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	pm.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateSystemMetrics updates all system metrics with current values
func (pm *PrometheusMetrics) UpdateSystemMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.goroutines.Set(float64(runtime.NumGoroutine()))
	pm.uptime.Set(time.Since(pm.startTime).Seconds())
	pm.lastUpdate = time.Now()
}

// GetUptime returns the application uptime
func (pm *PrometheusMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// GetLastUpdate returns the last metrics update time
func (pm *PrometheusMetrics) GetLastUpdate() time.Time {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.lastUpdate
}

// StartPeriodicUpdates starts a goroutine that periodically updates system metrics
func (pm *PrometheusMetrics) StartPeriodicUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.UpdateSystemMetrics()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.UpdateSystemMetrics()
		}
	}
}

var globalMetrics *PrometheusMetrics
var metricsOnce sync.Once

// GetGlobalMetrics returns the global Prometheus metrics instance
func GetGlobalMetrics() *PrometheusMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewPrometheusMetrics()
	})
	return globalMetrics
}
