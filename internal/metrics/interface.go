package metrics

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/anstrom/netdiag/internal/metrics Recorder

import "time"

// Recorder is the subset of metrics the diagnostic packages report into.
// Packages accept a Recorder so tests can pass Nop or a mock.
type Recorder interface {
	RecordToolRun(tool, status string, duration time.Duration)
	IncrementParseFailures(tool, code string)
	ObserveTracerouteHops(hops int)
	IncrementPortsScanned(state string, count int)
	RecordScanDuration(duration time.Duration)
	IncrementScanErrors(code string)
	AddActiveScans(delta int)
	IncrementSweepTargets(probe string, count int)
	IncrementSweepRejected(probe string)
	IncrementLookups(kind, status string)
}

// Ensure that PrometheusMetrics implements Recorder.
var _ Recorder = (*PrometheusMetrics)(nil)

// Nop discards everything.
type Nop struct{}

func (Nop) RecordToolRun(string, string, time.Duration) {}
func (Nop) IncrementParseFailures(string, string)       {}
func (Nop) ObserveTracerouteHops(int)                   {}
func (Nop) IncrementPortsScanned(string, int)           {}
func (Nop) RecordScanDuration(time.Duration)            {}
func (Nop) IncrementScanErrors(string)                  {}
func (Nop) AddActiveScans(int)                          {}
func (Nop) IncrementSweepTargets(string, int)           {}
func (Nop) IncrementSweepRejected(string)               {}
func (Nop) IncrementLookups(string, string)             {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
