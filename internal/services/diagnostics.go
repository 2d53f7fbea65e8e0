// Package services wires the diagnostic tools to configuration so that the
// CLI and the API run them the same way.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/netdiag/internal/command"
	"github.com/anstrom/netdiag/internal/config"
	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/lookup"
	"github.com/anstrom/netdiag/internal/metrics"
	"github.com/anstrom/netdiag/internal/ping"
	"github.com/anstrom/netdiag/internal/portset"
	"github.com/anstrom/netdiag/internal/scanning"
	"github.com/anstrom/netdiag/internal/speedtest"
	"github.com/anstrom/netdiag/internal/sweep"
	"github.com/anstrom/netdiag/internal/tcpping"
	"github.com/anstrom/netdiag/internal/traceroute"
	"github.com/anstrom/netdiag/internal/wol"
)

// Deps are the collaborators of Diagnostics. Nil fields are built from
// the configuration.
type Deps struct {
	Runner    command.Runner
	Dialer    scanning.Dialer
	Metrics   metrics.Recorder
	Limiter   scanning.ResourceManager
	Resolver  *lookup.Resolver
	Whois     *lookup.Whois
	WOL       *wol.Sender
	SpeedTest *speedtest.Tester
}

// Diagnostics runs every diagnostic with configured defaults.
type Diagnostics struct {
	cfg    *config.Config
	deps   Deps
	logger *logging.Logger
}

// PortScanReport is the outcome of PortScan.
type PortScanReport struct {
	Host    string            `json:"host"`
	Ports   string            `json:"ports"`
	Open    []int             `json:"open"`
	Results []scanning.Result `json:"results"`
}

// NewDiagnostics returns Diagnostics for cfg, or for config.Default() when
// cfg is nil.
func NewDiagnostics(cfg *config.Config, deps Deps) *Diagnostics {
	if cfg == nil {
		cfg = config.Default()
	}
	deps.Metrics = metrics.OrNop(deps.Metrics)
	if deps.Runner == nil {
		deps.Runner = command.NewExecRunner()
	}
	if deps.Limiter == nil {
		deps.Limiter = scanning.NewFixedResourceManager(cfg.Scanning.MaxConcurrentScans)
	}
	if deps.Resolver == nil {
		deps.Resolver = lookup.NewResolver(lookup.ResolverConfig{
			Servers:  cfg.Lookup.Servers,
			Timeout:  cfg.Lookup.Timeout,
			CacheTTL: cfg.Lookup.CacheTTL,
		}, deps.Metrics)
	}
	if deps.Whois == nil {
		deps.Whois = lookup.NewWhois(cfg.Lookup.RDAPURL, cfg.Lookup.Timeout)
		deps.Whois.Metrics = deps.Metrics
	}
	if deps.WOL == nil {
		deps.WOL = wol.NewSender(cfg.WakeOnLAN.Hosts)
	}
	if deps.SpeedTest == nil {
		deps.SpeedTest = speedtest.NewTester(speedtest.Config{
			ServerListURL: cfg.SpeedTest.ServerListURL,
			Runs:          cfg.SpeedTest.Runs,
			Streams:       cfg.SpeedTest.Streams,
			Candidates:    cfg.SpeedTest.Candidates,
			Timeout:       cfg.SpeedTest.Timeout,
		})
		deps.SpeedTest.Metrics = deps.Metrics
	}

	return &Diagnostics{
		cfg:    cfg,
		deps:   deps,
		logger: logging.Default().WithComponent("diagnostics"),
	}
}

// Config returns the configuration in use.
func (d *Diagnostics) Config() *config.Config {
	return d.cfg
}

// Limiter returns the resource manager shared by all port scans.
func (d *Diagnostics) Limiter() scanning.ResourceManager {
	return d.deps.Limiter
}

// Ping pings every target of dest with the system ping utility. count
// zero means the configured count. fn, when set, receives each result as
// it becomes available, in target order.
func (d *Diagnostics) Ping(ctx context.Context, dest string, count int, fn func(*ping.Result)) ([]*ping.Result, error) {
	if err := requireHost("dest", dest); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = d.cfg.Ping.Count
	}

	pinger := ping.NewPinger(d.deps.Runner, count)
	pinger.Metrics = d.deps.Metrics
	timeout := d.cfg.Ping.Timeout
	if timeout <= 0 {
		timeout = pinger.Timeout()
	}

	return sweep.ExpandAndProbe(ctx, dest, withTimeout(timeout, pinger.Ping), sweep.Options[*ping.Result]{
		Name:        "ping",
		HardCap:     d.cfg.Sweep.PingCap,
		Concurrency: d.cfg.Sweep.Concurrency,
		Callback:    fn,
		Metrics:     d.deps.Metrics,
	})
}

// TCPPing runs a TCP ping against every target of dest. Zero port and
// count mean the configured values.
func (d *Diagnostics) TCPPing(ctx context.Context, dest string, port, count int, fn func(*tcpping.Result)) ([]*tcpping.Result, error) {
	if err := requireHost("dest", dest); err != nil {
		return nil, err
	}
	if port <= 0 {
		port = d.cfg.TCPPing.Port
	}
	if count <= 0 {
		count = d.cfg.TCPPing.Count
	}

	pinger := tcpping.NewPinger(port, count)
	pinger.Metrics = d.deps.Metrics
	if d.cfg.TCPPing.Timeout > 0 {
		pinger.Timeout = d.cfg.TCPPing.Timeout
	}
	if d.deps.Dialer != nil {
		pinger.Dialer = d.deps.Dialer
	}

	return sweep.ExpandAndProbe(ctx, dest, pinger.Ping, sweep.Options[*tcpping.Result]{
		Name:        "tcp_ping",
		HardCap:     d.cfg.Sweep.TCPPingCap,
		Concurrency: d.cfg.Sweep.Concurrency,
		Callback:    fn,
		Metrics:     d.deps.Metrics,
	})
}

// Traceroute traces the route to host.
func (d *Diagnostics) Traceroute(ctx context.Context, host string) (*traceroute.Run, error) {
	if err := requireHost("host", host); err != nil {
		return nil, err
	}

	tracer := traceroute.NewTracer(d.deps.Runner)
	tracer.Strict = d.cfg.Traceroute.Strict
	tracer.Metrics = d.deps.Metrics
	timeout := d.cfg.Traceroute.Timeout
	if timeout <= 0 {
		timeout = tracer.Timeout()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return tracer.Trace(ctx, host)
}

// PortScan scans the ports named by spec on host, or the configured
// default ports when spec is empty.
func (d *Diagnostics) PortScan(ctx context.Context, host, spec string, fn func(scanning.Result)) (*PortScanReport, error) {
	if err := requireHost("host", host); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec) == "" {
		spec = d.cfg.Scanning.DefaultPorts
	}
	ports, err := portset.ParsePorts(spec)
	if err != nil {
		return nil, err
	}

	scanner := scanning.NewScanner(scanning.Options{
		Concurrency: d.cfg.Scanning.Concurrency,
		Timeout:     d.cfg.Scanning.Timeout,
		RateLimit:   d.cfg.Scanning.RateLimit,
		Dialer:      d.deps.Dialer,
		Limiter:     d.deps.Limiter,
		Metrics:     d.deps.Metrics,
	})

	results, err := scanner.ScanEach(ctx, host, ports, fn)
	if err != nil {
		return nil, err
	}

	report := &PortScanReport{Host: host, Ports: spec, Open: []int{}, Results: results}
	for _, r := range results {
		if r.State == scanning.StateOpen {
			report.Open = append(report.Open, r.Port)
		}
	}
	return report, nil
}

// NSLookup resolves host, through server when it is not empty.
func (d *Diagnostics) NSLookup(ctx context.Context, host, server string) (*lookup.NSLookupResult, error) {
	return d.deps.Resolver.Lookup(ctx, host, server)
}

// Whois fetches registration data for target, reduced to the summary
// fields when summary is set.
func (d *Diagnostics) Whois(ctx context.Context, target string, summary bool) (*lookup.Fields, error) {
	fields, err := d.deps.Whois.Lookup(ctx, target)
	if err != nil {
		return nil, err
	}
	if summary {
		return lookup.Summarize(fields), nil
	}
	return fields, nil
}

// WakeOnLAN sends a magic packet for req.
func (d *Diagnostics) WakeOnLAN(ctx context.Context, req wol.Request) (*wol.Result, error) {
	return d.deps.WOL.Wake(ctx, req)
}

// SpeedTest measures latency and throughput against server, the
// configured server when it is empty, or else the closest listed server.
// runs zero means the configured count.
func (d *Diagnostics) SpeedTest(ctx context.Context, server string, runs int) (*speedtest.Result, error) {
	if strings.TrimSpace(server) == "" {
		server = d.cfg.SpeedTest.Server
	}
	tester := *d.deps.SpeedTest
	if runs > 0 {
		tester.Runs = runs
	}
	return tester.Run(ctx, server)
}

// Close releases the scan limiter.
func (d *Diagnostics) Close() error {
	return d.deps.Limiter.Close()
}

// targetRule admits the destinations the tools accept: a host name, an IP
// literal or a CIDR block. Anything else, notably text starting with "-",
// would reach the argv of ping or traceroute as an option.
const targetRule = "hostname_rfc1123|ip|cidr"

var targets = validator.New()

func requireHost(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(field, "the host cannot be empty", value)
	}
	if err := targets.Var(value, targetRule); err != nil {
		return errors.NewValidationError(field, "must be a host name, an IP address or a CIDR block", value)
	}
	return nil
}

// withTimeout bounds each call of probe by timeout.
func withTimeout[R any](timeout time.Duration, probe sweep.ProbeFunc[R]) sweep.ProbeFunc[R] {
	return func(ctx context.Context, target string) (R, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return probe(ctx, target)
	}
}
