package traceroute

import (
	"context"
	"time"

	"github.com/anstrom/netdiag/internal/command"
	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
)

// Run is the outcome of one traceroute execution.
type Run struct {
	Host       string      `json:"host"`
	ReturnCode int         `json:"return_code"`
	Output     string      `json:"output,omitempty"`
	Trace      *Trace      `json:"trace"`
	Records    []HopRecord `json:"records"`
}

// Tracer runs the platform traceroute utility and parses its output.
type Tracer struct {
	Runner  command.Runner
	GOOS    string
	Strict  bool
	Metrics metrics.Recorder
	Logger  *logging.Logger
}

// NewTracer returns a lenient Tracer using runner.
func NewTracer(runner command.Runner) *Tracer {
	return &Tracer{
		Runner:  runner,
		Metrics: metrics.Nop{},
		Logger:  logging.Default().WithComponent("traceroute"),
	}
}

// Args returns the command line for tracing host on the configured platform.
func (t *Tracer) Args(host string) (string, []string) {
	if command.IsWindows(t.GOOS) {
		return "tracert", []string{host}
	}
	return "traceroute", []string{host}
}

// Trace runs a traceroute to host. Unlike ping, output that cannot be parsed
// is an error, carrying the raw output.
func (t *Tracer) Trace(ctx context.Context, host string) (*Run, error) {
	name, args := t.Args(host)
	rec := metrics.OrNop(t.Metrics)

	out, err := t.Runner.Run(ctx, name, args...)
	if err != nil {
		rec.RecordToolRun("traceroute", "error", out.Duration)
		return nil, err
	}

	trace, err := Parse(out.Text, t.Strict)
	if err != nil {
		rec.IncrementParseFailures("traceroute", string(errors.GetCode(err)))
		if t.Logger != nil {
			t.Logger.Error("Unable to parse traceroute output", "target", host, "error", err)
		}
		return nil, err
	}

	records := Flatten(trace)
	rec.ObserveTracerouteHops(len(records))

	status := "success"
	if !out.Success() {
		status = "failed"
	}
	rec.RecordToolRun("traceroute", status, out.Duration)

	if t.Logger != nil {
		t.Logger.Debug("Traceroute completed", "target", host, "hops", len(records))
	}

	return &Run{
		Host:       host,
		ReturnCode: out.ExitCode,
		Output:     out.Text,
		Trace:      trace,
		Records:    records,
	}, nil
}

// Timeout is the default deadline for a traceroute, which can take minutes
// against hosts that drop probes.
func (t *Tracer) Timeout() time.Duration {
	return 3 * time.Minute
}
