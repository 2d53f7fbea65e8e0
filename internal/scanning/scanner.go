package scanning

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
	"github.com/anstrom/netdiag/internal/portset"
	"github.com/anstrom/netdiag/internal/workers"
)

// Scanner defaults.
const (
	DefaultConcurrency = 100
	DefaultTimeout     = time.Second
)

// State is the outcome of a TCP connect probe.
type State string

// Probe outcomes. Any connection failure that is not local resource
// exhaustion counts as closed.
const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Result is the state of one port on one host.
type Result struct {
	Host  string `json:"dest"`
	Port  int    `json:"port"`
	State State  `json:"status"`
}

// Proto returns the port in TCP\<port> display form.
func (r Result) Proto() string {
	return `TCP\` + strconv.Itoa(r.Port)
}

func (r Result) String() string {
	return fmt.Sprintf("%s %s %s", r.Host, r.Proto(), r.State)
}

// Dialer opens TCP connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options configures a Scanner.
type Options struct {
	// Concurrency caps the number of simultaneous connects (default 100).
	Concurrency int
	// Timeout bounds each connect attempt (default 1s).
	Timeout time.Duration
	// RateLimit caps connects started per second (0 = no limit).
	RateLimit int
	// Dialer replaces the default net.Dialer.
	Dialer Dialer
	// Limiter, when set, bounds how many scans run at once across callers.
	Limiter ResourceManager
	// Metrics receives scan counters.
	Metrics metrics.Recorder
}

// Scanner performs TCP connect scans with a bounded worker pool.
type Scanner struct {
	opts   Options
	logger *logging.Logger
}

// NewScanner returns a Scanner with defaults applied to opts.
func NewScanner(opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = &net.Dialer{}
	}
	opts.Metrics = metrics.OrNop(opts.Metrics)

	return &Scanner{
		opts:   opts,
		logger: logging.Default().WithComponent("scanner"),
	}
}

// Scan probes every port on host and returns one Result per port in the
// order the ports were given, whatever order the probes finish in.
func (s *Scanner) Scan(ctx context.Context, host string, ports []int) ([]Result, error) {
	return s.ScanEach(ctx, host, ports, nil)
}

// ScanSet scans the members of set in ascending order.
func (s *Scanner) ScanSet(ctx context.Context, host string, set portset.Set) ([]Result, error) {
	return s.Scan(ctx, host, set.Sorted())
}

// ScanEach is Scan with a callback invoked synchronously for each result,
// in port order, as soon as it and every result before it are known.
//
// The scan fails with a RESOURCE_EXHAUSTED ScanError when the local system
// cannot open more sockets, and with a CANCELED ScanError when ctx ends.
// In both cases every worker has exited before ScanEach returns.
func (s *Scanner) ScanEach(ctx context.Context, host string, ports []int, fn func(Result)) ([]Result, error) {
	if len(ports) == 0 {
		return []Result{}, nil
	}

	scanID := uuid.NewString()
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Acquire(ctx, scanID); err != nil {
			return nil, errors.WrapScanErrorWithTarget(errors.CodeCanceled,
				"scan canceled while waiting for a free slot", host, 0, err)
		}
		defer s.opts.Limiter.Release(scanID)
	}

	rec := s.opts.Metrics
	rec.AddActiveScans(1)
	defer rec.AddActiveScans(-1)

	start := time.Now()
	results, err := s.run(ctx, host, ports, fn)
	rec.RecordScanDuration(time.Since(start))

	if err != nil {
		rec.IncrementScanErrors(string(errors.GetCode(err)))
		s.logger.ErrorScan("Port scan failed", host, err, "ports", len(ports))
		return nil, err
	}

	s.logger.InfoScan("Port scan completed", host,
		"scan_id", scanID,
		"ports", len(ports),
		"open", countOpen(results),
		"duration", time.Since(start))
	return results, nil
}

func (s *Scanner) run(ctx context.Context, host string, ports []int, fn func(Result)) ([]Result, error) {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := workers.New(workers.Config{
		Size:      min(s.opts.Concurrency, len(ports)),
		QueueSize: len(ports),
		RateLimit: s.opts.RateLimit,
	})
	pool.Start(scanCtx)

	for _, port := range ports {
		job := &portJob{host: host, port: port, timeout: s.opts.Timeout, dialer: s.opts.Dialer}
		if _, err := pool.Submit(job); err != nil {
			cancel()
			pool.Close()
			drain(pool)
			return nil, errors.WrapScanErrorWithTarget(errors.CodeScanFailed,
				"failed to queue port", host, port, err)
		}
	}
	pool.Close()

	var (
		results  = make([]Result, 0, len(ports))
		pending  = make(map[int]Result)
		next     int
		firstErr error
	)

	// Results arrive in completion order; hold each one until every
	// result submitted before it has been emitted.
	for r := range pool.Results() {
		if firstErr != nil {
			continue
		}
		if r.Error != nil {
			firstErr = r.Error
			cancel()
			continue
		}

		pending[r.Seq] = r.Job.(*portJob).result()
		for {
			res, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			results = append(results, res)
			s.opts.Metrics.IncrementPortsScanned(string(res.State), 1)
			if fn != nil {
				fn(res)
			}
			next++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WrapScanErrorWithTarget(errors.CodeCanceled, "scan canceled", host, 0, err)
	}
	if firstErr != nil {
		var scanErr *errors.ScanError
		if stderrors.As(firstErr, &scanErr) {
			return nil, scanErr
		}
		return nil, errors.WrapScanErrorWithTarget(errors.CodeScanFailed, "scan failed", host, 0, firstErr)
	}
	return results, nil
}

func drain(pool *workers.Pool) {
	for range pool.Results() {
	}
}

func countOpen(results []Result) int {
	n := 0
	for _, r := range results {
		if r.State == StateOpen {
			n++
		}
	}
	return n
}

// portJob is one connect attempt, run by the worker pool.
type portJob struct {
	host    string
	port    int
	timeout time.Duration
	dialer  Dialer
	state   State
}

func (j *portJob) ID() string {
	return net.JoinHostPort(j.host, strconv.Itoa(j.port))
}

func (j *portJob) Type() string {
	return "tcp_connect"
}

// Execute dials the port. Only local resource exhaustion is an error; every
// other failure marks the port closed.
func (j *portJob) Execute(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	conn, err := j.dialer.DialContext(dialCtx, "tcp", j.ID())
	if err != nil {
		if isResourceExhausted(err) {
			return errors.WrapScanErrorWithTarget(errors.CodeResourceExhausted,
				"local resources exhausted", j.host, j.port, err)
		}
		j.state = StateClosed
		return nil
	}

	_ = conn.Close()
	j.state = StateOpen
	return nil
}

func (j *portJob) result() Result {
	return Result{Host: j.host, Port: j.port, State: j.state}
}

// isResourceExhausted reports whether err means the local host ran out of
// descriptors, buffers or memory while creating a socket.
func isResourceExhausted(err error) bool {
	for _, errno := range []syscall.Errno{syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM} {
		if stderrors.Is(err, errno) {
			return true
		}
	}
	return false
}
