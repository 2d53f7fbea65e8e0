package ping

import (
	"context"
	"strconv"
	"time"

	"github.com/anstrom/netdiag/internal/command"
	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
)

// UnparsedMessage is set on results whose output could not be parsed.
const UnparsedMessage = "output could not be parsed"

// Pinger runs the system ping utility and parses its output.
type Pinger struct {
	Runner  command.Runner
	Count   int
	GOOS    string
	Metrics metrics.Recorder
	Logger  *logging.Logger
}

// NewPinger returns a Pinger using runner that sends count echo requests.
func NewPinger(runner command.Runner, count int) *Pinger {
	if count <= 0 {
		count = 1
	}
	return &Pinger{
		Runner:  runner,
		Count:   count,
		Metrics: metrics.Nop{},
		Logger:  logging.Default().WithComponent("ping"),
	}
}

// Args returns the command line for pinging host on the configured platform.
func (p *Pinger) Args(host string) (string, []string) {
	flag := "-c"
	if command.IsWindows(p.GOOS) {
		flag = "-n"
	}
	return "ping", []string{flag, strconv.Itoa(p.Count), host}
}

// Ping pings host once per configured count.
//
// A missing ping binary is returned as an error. A run that exits nonzero
// still yields a Result carrying the return code and raw output; if the
// output cannot be parsed the Result carries only those fields and
// Message is set to UnparsedMessage.
func (p *Pinger) Ping(ctx context.Context, host string) (*Result, error) {
	name, args := p.Args(host)
	rec := metrics.OrNop(p.Metrics)

	out, err := p.Runner.Run(ctx, name, args...)
	if err != nil {
		rec.RecordToolRun("ping", "error", out.Duration)
		return nil, err
	}

	result, perr := Parse(out.Text)
	if perr != nil {
		rec.IncrementParseFailures("ping", string(errors.GetCode(perr)))
		if p.Logger != nil {
			p.Logger.Warn("Unable to parse ping output", "target", host, "return_code", out.ExitCode)
		}
		result = &Result{Message: UnparsedMessage}
	}

	result.Dest = host
	if result.Host != "" {
		result.Dest = result.Host
	}
	result.ReturnCode = out.ExitCode
	result.Output = out.Text

	status := "success"
	if !out.Success() {
		status = "failed"
	}
	rec.RecordToolRun("ping", status, out.Duration)

	return result, nil
}

// Timeout returns a reasonable upper bound for one run, used by callers that
// do not set their own deadline.
func (p *Pinger) Timeout() time.Duration {
	return time.Duration(p.Count)*time.Second + 10*time.Second
}
