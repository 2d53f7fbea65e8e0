// Package tcpping measures reachability and latency of a host by timing TCP
// connection attempts, for hosts or networks where ICMP is filtered.
package tcpping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
	"github.com/anstrom/netdiag/internal/scanning"
)

const (
	DefaultPort    = 80
	DefaultTimeout = time.Second
)

// Result summarizes one TCP ping run. Times are in milliseconds rounded to
// two decimals and include failed attempts.
type Result struct {
	Dest       string  `json:"dest"`
	Port       int     `json:"port"`
	Output     string  `json:"output"`
	Sent       int     `json:"sent"`
	Received   int     `json:"received"`
	PacketLoss int     `json:"packet_loss"`
	Jitter     float64 `json:"jitter"`
	Min        float64 `json:"min_ping"`
	Max        float64 `json:"max_ping"`
	Avg        float64 `json:"avg_ping"`
}

// Destination implements sweep.Backfiller.
func (r *Result) Destination() string {
	return r.Dest
}

// SetDestination implements sweep.Backfiller.
func (r *Result) SetDestination(dest string) {
	r.Dest = dest
}

// Pinger opens Count TCP connections to Port, one after the other.
type Pinger struct {
	Port    int
	Count   int
	Timeout time.Duration
	Dialer  scanning.Dialer
	Metrics metrics.Recorder
	Logger  *logging.Logger

	now func() time.Time
}

// NewPinger returns a Pinger for port sending count attempts with the
// default one second timeout.
func NewPinger(port, count int) *Pinger {
	if port <= 0 {
		port = DefaultPort
	}
	if count <= 0 {
		count = 1
	}
	return &Pinger{
		Port:    port,
		Count:   count,
		Timeout: DefaultTimeout,
		Dialer:  &net.Dialer{},
		Metrics: metrics.Nop{},
		Logger:  logging.Default().WithComponent("tcpping"),
		now:     time.Now,
	}
}

// Ping connects to host Count times. Connection failures count as lost
// packets; they are reported in Output and never returned as errors. Only
// cancellation of ctx stops the run early, in which case ctx's error is
// returned.
func (p *Pinger) Ping(ctx context.Context, host string) (*Result, error) {
	now := p.now
	if now == nil {
		now = time.Now
	}
	started := now()

	address := net.JoinHostPort(host, strconv.Itoa(p.Port))
	var (
		lines    []string
		times    []float64
		received int
	)

	for seq := 0; seq < p.Count; seq++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := now()
		err := p.attempt(ctx, address)
		elapsed := round2(float64(now().Sub(start)) / float64(time.Millisecond))
		times = append(times, elapsed)

		switch {
		case err == nil:
			received++
			lines = append(lines, fmt.Sprintf("Connected to %s[%d]: tcp_seq=%d time=%.2f ms", host, p.Port, seq, elapsed))
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case isTimeout(err):
			lines = append(lines, fmt.Sprintf("Connection timeout to %s[%d]", host, p.Port))
		default:
			lines = append(lines, fmt.Sprintf("Error when connecting to %s[%d]: %v", host, p.Port, err))
		}
	}

	result := summarize(times, received)
	result.Dest = host
	result.Port = p.Port

	lines = append(lines,
		"",
		fmt.Sprintf("--- %s ping statistics ---", host),
		fmt.Sprintf("%d packets transmitted, %d packets received, %d%% packet loss", result.Sent, result.Received, result.PacketLoss),
	)
	result.Output = strings.Join(lines, "\n")

	status := "success"
	if received == 0 {
		status = "failed"
	}
	metrics.OrNop(p.Metrics).RecordToolRun("tcp_ping", status, now().Sub(started))
	if p.Logger != nil {
		p.Logger.Debug("TCP ping completed", "target", host, "port", p.Port,
			"sent", result.Sent, "received", result.Received)
	}

	return result, nil
}

func (p *Pinger) attempt(ctx context.Context, address string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// summarize computes the statistics of a run from the elapsed time of every
// attempt, successful or not. Jitter is the sum of absolute differences of
// consecutive attempts divided by the number of attempts.
func summarize(times []float64, received int) *Result {
	r := &Result{Sent: len(times), Received: received}
	if len(times) == 0 {
		return r
	}

	var diff, total float64
	minPing, maxPing := times[0], times[0]
	for i, t := range times {
		if i > 0 {
			diff += math.Abs(times[i-1] - t)
		}
		minPing = math.Min(minPing, t)
		maxPing = math.Max(maxPing, t)
		total += t
	}

	n := float64(len(times))
	r.PacketLoss = int(math.Round(100 * float64(len(times)-received) / n))
	r.Jitter = round2(diff / n)
	r.Min = round2(minPing)
	r.Max = round2(maxPing)
	r.Avg = round2(total / n)
	return r
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
